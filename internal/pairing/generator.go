// package pairing selects one round of one-to-one pairs from the pairing matrix
package pairing

import (
	"slices"

	"github.com/desertthunder/oneplusone/internal/models"
)

// Select picks a round from candidates with a single greedy pass.
//
// Pairings with no shared team are dropped. The rest are ordered by pairing count, then by key,
// and taken in that order whenever neither person has been picked yet. The result is in
// selection order and carries the counts as they were before the round. candidates is not modified.
//
// This is not a maximum matching: a person may be left out even when a larger round exists.
func Select(candidates []models.PairView) []models.PairView {
	eligible := make([]models.PairView, 0, len(candidates))
	for _, c := range candidates {
		if c.TeamCount > 0 {
			eligible = append(eligible, c)
		}
	}

	slices.SortStableFunc(eligible, func(a, b models.PairView) int {
		switch {
		case a.PairingCount < b.PairingCount:
			return -1
		case a.PairingCount > b.PairingCount:
			return 1
		}
		return a.Key.Compare(b.Key)
	})

	picked := make(map[models.PersonID]struct{})
	var selected []models.PairView
	for _, c := range eligible {
		if _, ok := picked[c.Key.Low()]; ok {
			continue
		}
		if _, ok := picked[c.Key.High()]; ok {
			continue
		}
		picked[c.Key.Low()] = struct{}{}
		picked[c.Key.High()] = struct{}{}
		selected = append(selected, c)
	}
	return selected
}

// Unpaired returns the people not covered by selected, in the order given.
func Unpaired(people []models.PersonID, selected []models.PairView) []models.PersonID {
	covered := make(map[models.PersonID]struct{}, 2*len(selected))
	for _, s := range selected {
		covered[s.Key.Low()] = struct{}{}
		covered[s.Key.High()] = struct{}{}
	}

	var out []models.PersonID
	for _, p := range people {
		if _, ok := covered[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
