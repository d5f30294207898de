package pairing

import (
	"testing"

	"github.com/desertthunder/oneplusone/internal/models"
)

func key(t *testing.T, a, b models.PersonID) models.PairKey {
	t.Helper()
	k, err := models.NewPairKey(a, b)
	if err != nil {
		t.Fatalf("NewPairKey(%d, %d) failed: %v", a, b, err)
	}
	return k
}

func view(t *testing.T, a, b models.PersonID, pairings, teams uint) models.PairView {
	return models.PairView{Key: key(t, a, b), PairingCount: pairings, TeamCount: teams}
}

func assertRound(t *testing.T, round []models.PairView) {
	t.Helper()
	seen := make(map[models.PersonID]bool)
	for _, p := range round {
		if p.TeamCount == 0 {
			t.Errorf("selected %s with no shared team", p.Key)
		}
		for _, id := range []models.PersonID{p.Key.Low(), p.Key.High()} {
			if seen[id] {
				t.Errorf("person %d selected twice", id)
			}
			seen[id] = true
		}
	}
}

func TestSelect(t *testing.T) {
	t.Run("three people in one team", func(t *testing.T) {
		candidates := []models.PairView{view(t, 2, 3, 0, 1), view(t, 1, 3, 0, 1), view(t, 1, 2, 0, 1)}

		round := Select(candidates)
		if len(round) != 1 {
			t.Fatalf("expected 1 pair, got %v", round)
		}
		if round[0].Key != key(t, 1, 2) {
			t.Errorf("expected tie broken by key (1,2), got %s", round[0].Key)
		}
		if got := Unpaired([]models.PersonID{1, 2, 3}, round); len(got) != 1 || got[0] != 3 {
			t.Errorf("expected person 3 unpaired, got %v", got)
		}
		if candidates[0].Key != key(t, 2, 3) {
			t.Errorf("Select reordered its input")
		}
	})

	t.Run("prefers lowest pairing count", func(t *testing.T) {
		candidates := []models.PairView{view(t, 1, 2, 1, 1), view(t, 1, 3, 0, 1), view(t, 2, 3, 0, 1)}

		round := Select(candidates)
		if len(round) != 1 || round[0].Key != key(t, 1, 3) {
			t.Errorf("expected (1,3), got %v", round)
		}
	})

	t.Run("skips pairs without a shared team", func(t *testing.T) {
		candidates := []models.PairView{view(t, 1, 2, 0, 0), view(t, 3, 4, 5, 2)}

		round := Select(candidates)
		if len(round) != 1 || round[0].Key != key(t, 3, 4) {
			t.Errorf("expected only (3,4), got %v", round)
		}
	})

	t.Run("greedy may miss a larger round", func(t *testing.T) {
		// (2,3) goes first and blocks both (1,2) and (3,4).
		candidates := []models.PairView{view(t, 1, 2, 1, 1), view(t, 2, 3, 0, 1), view(t, 3, 4, 1, 1)}

		round := Select(candidates)
		if len(round) != 1 || round[0].Key != key(t, 2, 3) {
			t.Errorf("expected greedy pick (2,3) only, got %v", round)
		}
		if got := Unpaired([]models.PersonID{1, 2, 3, 4}, round); len(got) != 2 {
			t.Errorf("expected 2 unpaired, got %v", got)
		}
	})

	t.Run("selection order follows pairing count", func(t *testing.T) {
		candidates := []models.PairView{view(t, 1, 2, 3, 1), view(t, 3, 4, 1, 1), view(t, 5, 6, 2, 1)}

		round := Select(candidates)
		want := []models.PairKey{key(t, 3, 4), key(t, 5, 6), key(t, 1, 2)}
		if len(round) != len(want) {
			t.Fatalf("expected %d pairs, got %v", len(want), round)
		}
		for i := range want {
			if round[i].Key != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], round[i].Key)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if round := Select(nil); len(round) != 0 {
			t.Errorf("expected empty round, got %v", round)
		}
	})

	t.Run("rounds never reuse a person", func(t *testing.T) {
		var candidates []models.PairView
		for a := models.PersonID(1); a <= 7; a++ {
			for b := a + 1; b <= 7; b++ {
				candidates = append(candidates, view(t, a, b, uint((a*b)%3), uint((a+b)%2)))
			}
		}
		assertRound(t, Select(candidates))
	})
}
