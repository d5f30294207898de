// package models defines the data model for the pairing engine
package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/oneplusone/internal/shared"
)

// ErrPairOrder is returned when a pairing key would not have low < high.
var ErrPairOrder = fmt.Errorf("%w: pairing ids should be in increasing order", shared.ErrInvariant)

// TeamID identifies a team.
type TeamID int64

// PersonID identifies a person.
type PersonID int64

// PairKey is the ordered key of an unordered pair of people.
type PairKey struct {
	low  PersonID
	high PersonID
}

// NewPairKey orders a and b into a [PairKey]. Equal ids are rejected with [ErrPairOrder].
func NewPairKey(a, b PersonID) (PairKey, error) {
	if a == b {
		return PairKey{}, fmt.Errorf("%w: person %d paired with itself", ErrPairOrder, a)
	}
	if a > b {
		a, b = b, a
	}
	return PairKey{low: a, high: b}, nil
}

// StoredPairKey builds a key from a persisted (person1_id, person2_id) row, which must already be ordered.
func StoredPairKey(person1, person2 PersonID) (PairKey, error) {
	if person1 >= person2 {
		return PairKey{}, fmt.Errorf("%w: stored pairing (%d, %d)", ErrPairOrder, person1, person2)
	}
	return PairKey{low: person1, high: person2}, nil
}

// Low returns the smaller person id.
func (k PairKey) Low() PersonID { return k.low }

// High returns the larger person id.
func (k PairKey) High() PersonID { return k.high }

// Has reports whether p is one of the pair.
func (k PairKey) Has(p PersonID) bool { return p == k.low || p == k.high }

// Compare orders keys by (low, high).
func (k PairKey) Compare(o PairKey) int {
	switch {
	case k.low < o.low:
		return -1
	case k.low > o.low:
		return 1
	case k.high < o.high:
		return -1
	case k.high > o.high:
		return 1
	}
	return 0
}

func (k PairKey) String() string { return fmt.Sprintf("(%d,%d)", k.low, k.high) }

// Team is a read view of a team. Members is sorted and owned by the caller.
type Team struct {
	ID      TeamID
	Name    string
	Members []PersonID
}

// Person is a read view of a person. Teams is sorted and owned by the caller.
type Person struct {
	ID    PersonID
	Email string
	Teams []TeamID
}

// Pairing is one row of the pairing matrix.
type Pairing struct {
	ID           int64
	Key          PairKey
	PairingCount uint
	TeamCount    uint
}

// Valid reports whether the two people currently share at least one team.
func (p Pairing) Valid() bool { return p.TeamCount > 0 }

// View returns the generator-facing projection of p.
func (p Pairing) View() PairView {
	return PairView{Key: p.Key, PairingCount: p.PairingCount, TeamCount: p.TeamCount}
}

// PairView is a read-only view of a [Pairing] used by the generator.
type PairView struct {
	Key          PairKey
	PairingCount uint
	TeamCount    uint
}

// RoundPair is one selected pair in a [Round], resolved to people.
type RoundPair struct {
	First        Person
	Second       Person
	PairingCount uint // count after this selection
}

// Round is the output of one generate call.
type Round struct {
	At       time.Time
	Pairs    []RoundPair
	Unpaired []Person
}

// PairingRow is one pairing resolved to people, for listings and exports.
type PairingRow struct {
	First        Person
	Second       Person
	PairingCount uint
	TeamCount    uint
}

// TeamRoster is a team with its members resolved, used for listings.
type TeamRoster struct {
	Team    Team
	Members []Person
}

// SortedIDs returns the keys of set in ascending order.
func SortedIDs[T ~int64](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
