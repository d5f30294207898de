package roster

import (
	"fmt"
	"slices"

	"github.com/desertthunder/oneplusone/internal/models"
)

// Matrix holds one [models.Pairing] per unordered pair of known people.
type Matrix struct {
	out   *sink
	ids   *allocator
	pairs map[models.PairKey]*models.Pairing
}

func newMatrix(out *sink, ids *allocator) *Matrix {
	return &Matrix{out: out, ids: ids, pairs: make(map[models.PairKey]*models.Pairing)}
}

// pairKeysFor returns the keys of the pairings a new person p needs against each of existing,
// failing if any already exists. It changes nothing.
func (m *Matrix) pairKeysFor(p models.PersonID, existing []models.PersonID) ([]models.PairKey, error) {
	keys := make([]models.PairKey, 0, len(existing))
	for _, q := range existing {
		key, err := models.NewPairKey(p, q)
		if err != nil {
			return nil, err
		}
		if _, ok := m.pairs[key]; ok {
			return nil, fmt.Errorf("%w: pairing %s already exists", ErrCorruptSnapshot, key)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *Matrix) create(key models.PairKey) *models.Pairing {
	pairing := &models.Pairing{ID: m.ids.allocate(models.SeqPairing), Key: key}
	m.pairs[key] = pairing
	m.out.Schedule(models.InsertPairing{ID: pairing.ID, Key: key})
	return pairing
}

// lookup returns the pairings between p and every member of others, failing if any is missing.
func (m *Matrix) lookup(p models.PersonID, others []models.PersonID) ([]*models.Pairing, error) {
	found := make([]*models.Pairing, 0, len(others))
	for _, q := range others {
		if q == p {
			continue
		}
		key, err := models.NewPairKey(p, q)
		if err != nil {
			return nil, err
		}
		pairing, ok := m.pairs[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPairing, key)
		}
		found = append(found, pairing)
	}
	return found, nil
}

// MembershipAdded increments the team count between p and every other current member of the team p joined.
func (m *Matrix) MembershipAdded(p models.PersonID, coMembers []models.PersonID) error {
	pairings, err := m.lookup(p, coMembers)
	if err != nil {
		return err
	}

	for _, pairing := range pairings {
		pairing.TeamCount++
		m.scheduleUpdate(pairing)
	}
	return nil
}

// MembershipRemoved decrements the team count between p and every other member of the team p left.
//
// A zero team count is never clamped: the call fails with [ErrTeamCountUnderflow] before any pairing changes.
func (m *Matrix) MembershipRemoved(p models.PersonID, coMembers []models.PersonID) error {
	pairings, err := m.lookup(p, coMembers)
	if err != nil {
		return err
	}

	for _, pairing := range pairings {
		if pairing.TeamCount == 0 {
			return fmt.Errorf("%w: pairing %s", ErrTeamCountUnderflow, pairing.Key)
		}
	}

	for _, pairing := range pairings {
		pairing.TeamCount--
		m.scheduleUpdate(pairing)
	}
	return nil
}

// RecordSelection increments the pairing count of a pairing chosen by the generator.
func (m *Matrix) RecordSelection(key models.PairKey) (models.Pairing, error) {
	pairing, ok := m.pairs[key]
	if !ok {
		return models.Pairing{}, fmt.Errorf("%w: unknown pairing %s", ErrIneligiblePairing, key)
	}
	if !pairing.Valid() {
		return models.Pairing{}, fmt.Errorf("%w: %s shares no team", ErrIneligiblePairing, key)
	}

	pairing.PairingCount++
	m.scheduleUpdate(pairing)
	return *pairing, nil
}

func (m *Matrix) scheduleUpdate(p *models.Pairing) {
	m.out.Schedule(models.UpdatePairing{Key: p.Key, PairingCount: p.PairingCount, TeamCount: p.TeamCount})
}

// Snapshot returns every valid pairing (team count above zero) ordered by key.
//
// The slice is freshly allocated and does not alias matrix state.
func (m *Matrix) Snapshot() []models.PairView {
	views := make([]models.PairView, 0, len(m.pairs))
	for _, p := range m.pairs {
		if p.Valid() {
			views = append(views, p.View())
		}
	}
	slices.SortFunc(views, func(a, b models.PairView) int { return a.Key.Compare(b.Key) })
	return views
}

// Pairings returns a copy of every pairing, valid or not, ordered by key.
func (m *Matrix) Pairings() []models.Pairing {
	out := make([]models.Pairing, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b models.Pairing) int { return a.Key.Compare(b.Key) })
	return out
}

// Pairing returns the pairing between a and b.
func (m *Matrix) Pairing(a, b models.PersonID) (models.Pairing, bool) {
	key, err := models.NewPairKey(a, b)
	if err != nil {
		return models.Pairing{}, false
	}
	p, ok := m.pairs[key]
	if !ok {
		return models.Pairing{}, false
	}
	return *p, true
}

// Len returns the number of pairings.
func (m *Matrix) Len() int { return len(m.pairs) }
