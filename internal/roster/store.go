package roster

import (
	"fmt"
	"strings"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// Scheduler receives durable write intents. Schedule must not block on storage.
type Scheduler interface {
	Schedule(intent models.Intent)
}

// SchedulerFunc adapts a function to [Scheduler].
type SchedulerFunc func(models.Intent)

func (f SchedulerFunc) Schedule(intent models.Intent) { f(intent) }

// discard drops intents; used while replaying rows that are already durable.
var discard = SchedulerFunc(func(models.Intent) {})

// sink forwards to the current scheduler so replay can mute it without rewiring the matrix.
type sink struct {
	target Scheduler
}

func (s *sink) Schedule(intent models.Intent) { s.target.Schedule(intent) }

// allocator hands out monotonic ids per sequence and schedules each new high-water mark.
type allocator struct {
	out  *sink
	last map[models.Sequence]int64
}

func newAllocator(out *sink) *allocator {
	return &allocator{out: out, last: make(map[models.Sequence]int64)}
}

func (a *allocator) allocate(seq models.Sequence) int64 {
	a.last[seq]++
	v := a.last[seq]
	a.out.Schedule(models.AdvanceSequence{Name: seq, Value: v})
	return v
}

// peek returns the id the next allocate of seq will hand out.
func (a *allocator) peek(seq models.Sequence) int64 {
	return a.last[seq] + 1
}

// observe raises the high-water mark of seq to at least v without scheduling.
func (a *allocator) observe(seq models.Sequence, v int64) {
	if v > a.last[seq] {
		a.last[seq] = v
	}
}

type team struct {
	id      models.TeamID
	name    string
	members map[models.PersonID]struct{}
}

type person struct {
	id    models.PersonID
	email string
	teams map[models.TeamID]struct{}
}

// Store owns teams and people, their lookup indices and the pairing [Matrix].
type Store struct {
	out         *sink
	ids         *allocator
	matrix      *Matrix
	teams       map[models.TeamID]*team
	people      map[models.PersonID]*person
	teamIndex   map[string]models.TeamID
	personIndex map[string]models.PersonID
}

// New creates an empty [Store] that reports its writes to sched.
func New(sched Scheduler) *Store {
	if sched == nil {
		sched = discard
	}
	out := &sink{target: sched}
	ids := newAllocator(out)
	return &Store{
		out:         out,
		ids:         ids,
		matrix:      newMatrix(out, ids),
		teams:       make(map[models.TeamID]*team),
		people:      make(map[models.PersonID]*person),
		teamIndex:   make(map[string]models.TeamID),
		personIndex: make(map[string]models.PersonID),
	}
}

// Matrix returns the pairing matrix owned by s.
func (s *Store) Matrix() *Matrix { return s.matrix }

// CanCreateTeam reports why [Store.CreateTeam] would fail for name, or nil. It has no side effects.
func (s *Store) CanCreateTeam(name string) error {
	if err := shared.ValidateName(name); err != nil {
		return err
	}
	if _, ok := s.teamIndex[shared.NormalizeKey(name)]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTeam, strings.TrimSpace(name))
	}
	return nil
}

// CreateTeam adds a team with no members.
func (s *Store) CreateTeam(name string) (models.Team, error) {
	if err := s.CanCreateTeam(name); err != nil {
		return models.Team{}, err
	}

	t := &team{
		id:      models.TeamID(s.ids.allocate(models.SeqTeam)),
		name:    strings.TrimSpace(name),
		members: make(map[models.PersonID]struct{}),
	}
	s.teams[t.id] = t
	s.teamIndex[shared.NormalizeKey(t.name)] = t.id
	s.out.Schedule(models.InsertTeam{ID: t.id, Name: t.name})
	return t.view(), nil
}

// CanCreatePerson reports why [Store.CreatePerson] would fail for email, or nil. It has no side effects.
func (s *Store) CanCreatePerson(email string) error {
	email = strings.TrimSpace(email)
	if err := shared.ValidateEmail(email); err != nil {
		return err
	}
	if _, ok := s.personIndex[shared.NormalizeKey(email)]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePerson, email)
	}
	return nil
}

// CreatePerson adds a person and a zeroed pairing against every existing person.
func (s *Store) CreatePerson(email string) (models.Person, error) {
	if err := s.CanCreatePerson(email); err != nil {
		return models.Person{}, err
	}

	existing := models.SortedIDs(s.personSet())
	keys, err := s.matrix.pairKeysFor(models.PersonID(s.ids.peek(models.SeqPerson)), existing)
	if err != nil {
		return models.Person{}, err
	}

	p := &person{
		id:    models.PersonID(s.ids.allocate(models.SeqPerson)),
		email: strings.TrimSpace(email),
		teams: make(map[models.TeamID]struct{}),
	}
	s.out.Schedule(models.InsertPerson{ID: p.id, Email: p.email})
	for _, key := range keys {
		s.matrix.create(key)
	}

	s.people[p.id] = p
	s.personIndex[shared.NormalizeKey(p.email)] = p.id
	return p.view(), nil
}

// CanAddMembership reports why adding email to teamName would fail, or nil. It has no side effects.
//
// A person who does not exist yet is acceptable as long as the email is valid; the
// caller creates them first.
func (s *Store) CanAddMembership(email, teamName string) error {
	if err := shared.ValidateEmail(strings.TrimSpace(email)); err != nil {
		return err
	}
	t, ok := s.teamByName(teamName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrTeamNotFound, strings.TrimSpace(teamName))
	}
	if p, ok := s.personByEmail(email); ok {
		if _, member := t.members[p.id]; member {
			return fmt.Errorf("%w: %s in %q", ErrAlreadyMember, p.email, t.name)
		}
	}
	return nil
}

// AddMembership links a person and a team and updates the team count of every affected pairing.
func (s *Store) AddMembership(pid models.PersonID, tid models.TeamID) error {
	p, t, err := s.resolve(pid, tid)
	if err != nil {
		return err
	}
	if _, member := t.members[p.id]; member {
		return fmt.Errorf("%w: %s in %q", ErrAlreadyMember, p.email, t.name)
	}

	if err := s.matrix.MembershipAdded(p.id, models.SortedIDs(t.members)); err != nil {
		return err
	}

	t.members[p.id] = struct{}{}
	p.teams[t.id] = struct{}{}
	id := s.ids.allocate(models.SeqMembership)
	s.out.Schedule(models.InsertMembership{ID: id, TeamID: t.id, PersonID: p.id})
	return nil
}

// RemoveMembership unlinks a person and a team and updates the team count of every affected pairing.
func (s *Store) RemoveMembership(pid models.PersonID, tid models.TeamID) error {
	p, t, err := s.resolve(pid, tid)
	if err != nil {
		return err
	}
	if _, member := t.members[p.id]; !member {
		return fmt.Errorf("%w: %s in %q", ErrNotMember, p.email, t.name)
	}

	if err := s.matrix.MembershipRemoved(p.id, models.SortedIDs(t.members)); err != nil {
		return err
	}

	delete(t.members, p.id)
	delete(p.teams, t.id)
	s.out.Schedule(models.DeleteMembership{TeamID: t.id, PersonID: p.id})
	return nil
}

// RemovePersonFromAllTeams removes every membership of a person. The person and their pairings remain.
// It returns the ids of the teams the person left.
func (s *Store) RemovePersonFromAllTeams(pid models.PersonID) ([]models.TeamID, error) {
	p, ok := s.people[pid]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPersonNotFound, pid)
	}

	left := models.SortedIDs(p.teams)
	for _, tid := range left {
		if err := s.RemoveMembership(pid, tid); err != nil {
			return nil, err
		}
	}
	return left, nil
}

// RemoveTeam removes every membership of a team and then the team itself.
func (s *Store) RemoveTeam(tid models.TeamID) error {
	t, ok := s.teams[tid]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrTeamNotFound, tid)
	}

	for _, pid := range models.SortedIDs(t.members) {
		if err := s.RemoveMembership(pid, tid); err != nil {
			return err
		}
	}

	delete(s.teams, tid)
	delete(s.teamIndex, shared.NormalizeKey(t.name))
	s.out.Schedule(models.DeleteTeam{ID: tid})
	return nil
}

// TeamByName looks up a team case-insensitively.
func (s *Store) TeamByName(name string) (models.Team, bool) {
	t, ok := s.teamByName(name)
	if !ok {
		return models.Team{}, false
	}
	return t.view(), true
}

// PersonByEmail looks up a person case-insensitively.
func (s *Store) PersonByEmail(email string) (models.Person, bool) {
	p, ok := s.personByEmail(email)
	if !ok {
		return models.Person{}, false
	}
	return p.view(), true
}

// Person looks up a person by id.
func (s *Store) Person(id models.PersonID) (models.Person, bool) {
	p, ok := s.people[id]
	if !ok {
		return models.Person{}, false
	}
	return p.view(), true
}

// Team looks up a team by id.
func (s *Store) Team(id models.TeamID) (models.Team, bool) {
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, false
	}
	return t.view(), true
}

// IsPersonInTeam reports whether the person is a member of the team.
func (s *Store) IsPersonInTeam(pid models.PersonID, tid models.TeamID) bool {
	t, ok := s.teams[tid]
	if !ok {
		return false
	}
	_, member := t.members[pid]
	return member
}

// Teams returns every team ordered by id. The slice and its member lists are freshly built.
func (s *Store) Teams() []models.Team {
	out := make([]models.Team, 0, len(s.teams))
	for _, id := range models.SortedIDs(s.teamSet()) {
		out = append(out, s.teams[id].view())
	}
	return out
}

// People returns every person ordered by id. The slice and its team lists are freshly built.
func (s *Store) People() []models.Person {
	out := make([]models.Person, 0, len(s.people))
	for _, id := range models.SortedIDs(s.personSet()) {
		out = append(out, s.people[id].view())
	}
	return out
}

// SharedTeams counts the teams both people belong to by scanning memberships.
//
// Used to audit the incrementally maintained team counts; the matrix never calls it.
func (s *Store) SharedTeams(a, b models.PersonID) uint {
	pa, okA := s.people[a]
	pb, okB := s.people[b]
	if !okA || !okB {
		return 0
	}
	var n uint
	for tid := range pa.teams {
		if _, ok := pb.teams[tid]; ok {
			n++
		}
	}
	return n
}

func (s *Store) resolve(pid models.PersonID, tid models.TeamID) (*person, *team, error) {
	p, ok := s.people[pid]
	if !ok {
		return nil, nil, fmt.Errorf("%w: id %d", ErrPersonNotFound, pid)
	}
	t, ok := s.teams[tid]
	if !ok {
		return nil, nil, fmt.Errorf("%w: id %d", ErrTeamNotFound, tid)
	}
	return p, t, nil
}

func (s *Store) teamByName(name string) (*team, bool) {
	id, ok := s.teamIndex[shared.NormalizeKey(name)]
	if !ok {
		return nil, false
	}
	return s.teams[id], true
}

func (s *Store) personByEmail(email string) (*person, bool) {
	id, ok := s.personIndex[shared.NormalizeKey(email)]
	if !ok {
		return nil, false
	}
	return s.people[id], true
}

func (s *Store) personSet() map[models.PersonID]struct{} {
	set := make(map[models.PersonID]struct{}, len(s.people))
	for id := range s.people {
		set[id] = struct{}{}
	}
	return set
}

func (s *Store) teamSet() map[models.TeamID]struct{} {
	set := make(map[models.TeamID]struct{}, len(s.teams))
	for id := range s.teams {
		set[id] = struct{}{}
	}
	return set
}

func (t *team) view() models.Team {
	return models.Team{ID: t.id, Name: t.name, Members: models.SortedIDs(t.members)}
}

func (p *person) view() models.Person {
	return models.Person{ID: p.id, Email: p.email, Teams: models.SortedIDs(p.teams)}
}
