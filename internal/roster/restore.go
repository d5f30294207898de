package roster

import (
	"fmt"
	"strings"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// RepairReport describes what [Restore] had to fix while rebuilding a store.
// Each repair is also scheduled so the next flush makes storage agree with memory.
type RepairReport struct {
	MissingPairings  []models.PairKey
	TeamCountRepairs []models.PairKey
}

// Empty reports whether the snapshot was already consistent.
func (r RepairReport) Empty() bool {
	return len(r.MissingPairings) == 0 && len(r.TeamCountRepairs) == 0
}

// Restore rebuilds a [Store] from stored rows.
//
// Rows are replayed in dependency order: teams, people, pairings, then memberships. Replay
// schedules nothing. Team counts are recomputed from memberships and stored counts that
// disagree are rewritten. Pairings missing for a known pair are created. Stored pairing counts
// are kept as-is. Repairs are held back and reach sched only when Restore succeeds.
func Restore(snap *models.Snapshot, sched Scheduler) (*Store, RepairReport, error) {
	var report RepairReport
	s := New(sched)
	if snap == nil {
		return s, report, nil
	}

	target := s.out.target
	var repairs []models.Intent
	held := SchedulerFunc(func(intent models.Intent) { repairs = append(repairs, intent) })
	s.out.target = discard

	for name, v := range snap.Sequences {
		s.ids.observe(name, v)
	}

	for _, rec := range snap.Teams {
		if err := s.replayTeam(rec); err != nil {
			return nil, report, err
		}
	}
	for _, rec := range snap.People {
		if err := s.replayPerson(rec); err != nil {
			return nil, report, err
		}
	}

	stored := make(map[models.PairKey]uint, len(snap.Pairings))
	for _, p := range snap.Pairings {
		if err := s.replayPairing(p); err != nil {
			return nil, report, err
		}
		stored[p.Key] = p.TeamCount
	}

	s.out.target = held
	report.MissingPairings = s.fillMissingPairings()
	s.out.target = discard

	for _, rec := range snap.Memberships {
		if err := s.replayMembership(rec); err != nil {
			return nil, report, err
		}
	}

	s.out.target = held
	for _, p := range s.matrix.Pairings() {
		want, ok := stored[p.Key]
		if ok && want == p.TeamCount {
			continue
		}
		if !ok && p.TeamCount == 0 {
			continue
		}
		s.matrix.scheduleUpdate(s.matrix.pairs[p.Key])
		report.TeamCountRepairs = append(report.TeamCountRepairs, p.Key)
	}

	s.out.target = target
	for _, intent := range repairs {
		target.Schedule(intent)
	}
	return s, report, nil
}

func (s *Store) replayTeam(rec models.TeamRecord) error {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return fmt.Errorf("%w: team %d has no name", ErrCorruptSnapshot, rec.ID)
	}
	key := shared.NormalizeKey(name)
	if _, ok := s.teams[rec.ID]; ok {
		return fmt.Errorf("%w: team id %d repeated", ErrCorruptSnapshot, rec.ID)
	}
	if _, ok := s.teamIndex[key]; ok {
		return fmt.Errorf("%w: team name %q repeated", ErrCorruptSnapshot, name)
	}

	s.teams[rec.ID] = &team{id: rec.ID, name: name, members: make(map[models.PersonID]struct{})}
	s.teamIndex[key] = rec.ID
	s.ids.observe(models.SeqTeam, int64(rec.ID))
	return nil
}

func (s *Store) replayPerson(rec models.PersonRecord) error {
	email := strings.TrimSpace(rec.Email)
	if email == "" {
		return fmt.Errorf("%w: person %d has no email", ErrCorruptSnapshot, rec.ID)
	}
	key := shared.NormalizeKey(email)
	if _, ok := s.people[rec.ID]; ok {
		return fmt.Errorf("%w: person id %d repeated", ErrCorruptSnapshot, rec.ID)
	}
	if _, ok := s.personIndex[key]; ok {
		return fmt.Errorf("%w: email %q repeated", ErrCorruptSnapshot, email)
	}

	s.people[rec.ID] = &person{id: rec.ID, email: email, teams: make(map[models.TeamID]struct{})}
	s.personIndex[key] = rec.ID
	s.ids.observe(models.SeqPerson, int64(rec.ID))
	return nil
}

// replayPairing loads a stored pairing with its pairing count. The team count starts at zero and is
// rebuilt from memberships.
func (s *Store) replayPairing(p models.Pairing) error {
	if _, ok := s.people[p.Key.Low()]; !ok {
		return fmt.Errorf("%w: pairing %s references unknown person %d", ErrCorruptSnapshot, p.Key, p.Key.Low())
	}
	if _, ok := s.people[p.Key.High()]; !ok {
		return fmt.Errorf("%w: pairing %s references unknown person %d", ErrCorruptSnapshot, p.Key, p.Key.High())
	}
	if _, ok := s.matrix.pairs[p.Key]; ok {
		return fmt.Errorf("%w: pairing %s repeated", ErrCorruptSnapshot, p.Key)
	}

	s.matrix.pairs[p.Key] = &models.Pairing{ID: p.ID, Key: p.Key, PairingCount: p.PairingCount}
	s.ids.observe(models.SeqPairing, p.ID)
	return nil
}

// fillMissingPairings creates a zeroed pairing for every pair of people with none.
func (s *Store) fillMissingPairings() []models.PairKey {
	var created []models.PairKey
	ids := models.SortedIDs(s.personSet())
	for i, hi := range ids {
		for _, lo := range ids[:i] {
			key, err := models.NewPairKey(lo, hi)
			if err != nil {
				continue
			}
			if _, ok := s.matrix.pairs[key]; ok {
				continue
			}
			s.matrix.create(key)
			created = append(created, key)
		}
	}
	return created
}

func (s *Store) replayMembership(rec models.MembershipRecord) error {
	p, t, err := s.resolve(rec.PersonID, rec.TeamID)
	if err != nil {
		return fmt.Errorf("%w: membership %d: %w", ErrCorruptSnapshot, rec.ID, err)
	}
	if _, member := t.members[p.id]; member {
		return fmt.Errorf("%w: membership of %s in %q repeated", ErrCorruptSnapshot, p.email, t.name)
	}
	if err := s.matrix.MembershipAdded(p.id, models.SortedIDs(t.members)); err != nil {
		return err
	}

	t.members[p.id] = struct{}{}
	p.teams[t.id] = struct{}{}
	s.ids.observe(models.SeqMembership, rec.ID)
	return nil
}
