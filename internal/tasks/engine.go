package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/pairing"
	"github.com/desertthunder/oneplusone/internal/roster"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// Storage is the durable side of the engine.
type Storage interface {
	BatchStore
	Load(ctx context.Context) (*models.Snapshot, error)
	Truncate(ctx context.Context) error
	Close() error
}

// EngineOpts configures a [PairingEngine].
type EngineOpts struct {
	Logger       *log.Logger
	FlushRetries int                   // Extra attempts made by Save after a failed flush
	RetryRate    float64               // Retries per second
	Now          func() time.Time      // Clock used to stamp rounds (default: time.Now)
	Progress     chan<- ProgressUpdate // Optional, receives load and save updates
}

// MembershipResult describes what AddPersonToTeam did.
type MembershipResult struct {
	Person        models.Person
	Team          models.Team
	PersonCreated bool
}

// PairingEngine is the handle every roster operation goes through.
//
// It owns the in-memory roster and the scheduler that persists it. All roster access is
// serialized by one mutex because team counts span several records and must never be
// observed half-updated. Flushing does not take that mutex.
type PairingEngine struct {
	mu      sync.Mutex
	store   *roster.Store
	sched   *Scheduler
	storage Storage

	logger   *log.Logger
	retries  int
	now      func() time.Time
	progress chan<- ProgressUpdate
}

// NewPairingEngine creates an engine with an empty roster. Call [PairingEngine.LoadAll] to read storage.
func NewPairingEngine(storage Storage, opts EngineOpts) *PairingEngine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FlushRetries < 0 {
		opts.FlushRetries = 0
	}

	sched := NewScheduler(storage, SchedulerOpts{Logger: opts.Logger, RetryRate: opts.RetryRate})
	return &PairingEngine{
		store:    roster.New(sched),
		sched:    sched,
		storage:  storage,
		logger:   opts.Logger,
		retries:  opts.FlushRetries,
		now:      opts.Now,
		progress: opts.Progress,
	}
}

// Scheduler returns the engine's persistence queue.
func (e *PairingEngine) Scheduler() *Scheduler { return e.sched }

// LoadAll waits for pending writes, then replaces the in-memory roster with what storage holds.
// Stored team counts that disagree with memberships are repaired and the fixes scheduled.
func (e *PairingEngine) LoadAll(ctx context.Context) (roster.RepairReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sched.Barrier(ctx); err != nil {
		return roster.RepairReport{}, fmt.Errorf("failed to flush before load: %w", err)
	}

	snap, err := e.storage.Load(ctx)
	if err != nil {
		return roster.RepairReport{}, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	store, report, err := roster.Restore(snap, e.sched)
	if err != nil {
		return report, err
	}
	e.store = store

	if !report.Empty() {
		e.logger.Warn("repaired stored roster",
			"missing_pairings", len(report.MissingPairings),
			"team_counts", len(report.TeamCountRepairs))
	}
	e.logger.Debug("loaded roster", "teams", len(snap.Teams), "people", len(snap.People), "pairings", len(snap.Pairings))
	sendProgress(e.progress, loadUpdate(len(snap.Teams), len(snap.People)))
	return report, nil
}

// CanAddTeam reports why AddTeam would fail, or nil.
func (e *PairingEngine) CanAddTeam(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.CanCreateTeam(name)
}

// AddTeam creates a team.
func (e *PairingEngine) AddTeam(name string) (models.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	team, err := e.store.CreateTeam(name)
	if err != nil {
		return models.Team{}, err
	}
	e.logger.Info("added team", "team", team.Name, "id", team.ID)
	return team, nil
}

// RemoveTeam removes a team and all of its memberships. People and their pairing counts stay.
func (e *PairingEngine) RemoveTeam(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	team, ok := e.store.TeamByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", roster.ErrTeamNotFound, strings.TrimSpace(name))
	}
	if err := e.store.RemoveTeam(team.ID); err != nil {
		return err
	}
	e.logger.Info("removed team", "team", team.Name, "members", len(team.Members))
	return nil
}

// CanAddPerson reports why AddPerson would fail, or nil.
func (e *PairingEngine) CanAddPerson(email string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.CanCreatePerson(email)
}

// AddPerson creates a person in no team.
func (e *PairingEngine) AddPerson(email string) (models.Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.CreatePerson(email)
	if err != nil {
		return models.Person{}, err
	}
	e.logger.Info("added person", "email", p.Email, "id", p.ID)
	return p, nil
}

// CanAddPersonToTeam reports why AddPersonToTeam would fail, or nil.
func (e *PairingEngine) CanAddPersonToTeam(email, teamName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.CanAddMembership(email, teamName)
}

// AddPersonToTeam adds a person to an existing team, creating the person first if needed.
func (e *PairingEngine) AddPersonToTeam(email, teamName string) (MembershipResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addPersonToTeam(email, teamName)
}

func (e *PairingEngine) addPersonToTeam(email, teamName string) (MembershipResult, error) {
	if err := e.store.CanAddMembership(email, teamName); err != nil {
		return MembershipResult{}, err
	}

	team, _ := e.store.TeamByName(teamName)
	var res MembershipResult
	p, ok := e.store.PersonByEmail(email)
	if !ok {
		created, err := e.store.CreatePerson(email)
		if err != nil {
			return MembershipResult{}, err
		}
		p = created
		res.PersonCreated = true
	}

	if err := e.store.AddMembership(p.ID, team.ID); err != nil {
		return MembershipResult{}, err
	}

	res.Person, _ = e.store.Person(p.ID)
	res.Team, _ = e.store.Team(team.ID)
	e.logger.Info("added person to team", "email", res.Person.Email, "team", res.Team.Name, "new", res.PersonCreated)
	return res, nil
}

// RemovePersonFromTeam removes one membership.
func (e *PairingEngine) RemovePersonFromTeam(email, teamName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, team, err := e.lookup(email, teamName)
	if err != nil {
		return err
	}
	if err := e.store.RemoveMembership(p.ID, team.ID); err != nil {
		return err
	}
	e.logger.Info("removed person from team", "email", p.Email, "team", team.Name)
	return nil
}

// RemovePersonFromAllTeams removes every membership of a person and returns the teams they left.
func (e *PairingEngine) RemovePersonFromAllTeams(email string) ([]models.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.PersonByEmail(email)
	if !ok {
		return nil, fmt.Errorf("%w: %q", roster.ErrPersonNotFound, strings.TrimSpace(email))
	}
	ids, err := e.store.RemovePersonFromAllTeams(p.ID)
	if err != nil {
		return nil, err
	}

	left := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		if team, ok := e.store.Team(id); ok {
			left = append(left, team)
		}
	}
	e.logger.Info("removed person from all teams", "email", p.Email, "teams", len(left))
	return left, nil
}

func (e *PairingEngine) lookup(email, teamName string) (models.Person, models.Team, error) {
	p, ok := e.store.PersonByEmail(email)
	if !ok {
		return models.Person{}, models.Team{}, fmt.Errorf("%w: %q", roster.ErrPersonNotFound, strings.TrimSpace(email))
	}
	team, ok := e.store.TeamByName(teamName)
	if !ok {
		return models.Person{}, models.Team{}, fmt.Errorf("%w: %q", roster.ErrTeamNotFound, strings.TrimSpace(teamName))
	}
	return p, team, nil
}

// TeamByName looks up a team case-insensitively.
func (e *PairingEngine) TeamByName(name string) (models.Team, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.TeamByName(name)
}

// PersonByEmail looks up a person case-insensitively.
func (e *PairingEngine) PersonByEmail(email string) (models.Person, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.PersonByEmail(email)
}

// IsPersonInTeam reports whether the person with email belongs to teamName.
func (e *PairingEngine) IsPersonInTeam(email, teamName string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, team, err := e.lookup(email, teamName)
	if err != nil {
		return false
	}
	return e.store.IsPersonInTeam(p.ID, team.ID)
}

// Organization returns every team with its members resolved, ordered by team id then person id.
func (e *PairingEngine) Organization() []models.TeamRoster {
	e.mu.Lock()
	defer e.mu.Unlock()

	teams := e.store.Teams()
	out := make([]models.TeamRoster, 0, len(teams))
	for _, team := range teams {
		members := make([]models.Person, 0, len(team.Members))
		for _, id := range team.Members {
			if p, ok := e.store.Person(id); ok {
				members = append(members, p)
			}
		}
		out = append(out, models.TeamRoster{Team: team, Members: members})
	}
	return out
}

// People returns every person ordered by id.
func (e *PairingEngine) People() []models.Person {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.People()
}

// Pairings returns every pairing resolved to people. When validOnly is set, pairings whose
// people share no team are left out.
func (e *PairingEngine) Pairings(validOnly bool) []models.PairingRow {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.store.Matrix().Pairings()
	rows := make([]models.PairingRow, 0, len(all))
	for _, p := range all {
		if validOnly && !p.Valid() {
			continue
		}
		first, _ := e.store.Person(p.Key.Low())
		second, _ := e.store.Person(p.Key.High())
		rows = append(rows, models.PairingRow{First: first, Second: second, PairingCount: p.PairingCount, TeamCount: p.TeamCount})
	}
	return rows
}

// Generate selects one round and records every selection. People in at least one team who
// were not selected are listed as unpaired.
func (e *PairingEngine) Generate() (models.Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	matrix := e.store.Matrix()
	selected := pairing.Select(matrix.Snapshot())

	round := models.Round{At: e.now()}
	for _, sel := range selected {
		updated, err := matrix.RecordSelection(sel.Key)
		if err != nil {
			return models.Round{}, err
		}
		first, _ := e.store.Person(sel.Key.Low())
		second, _ := e.store.Person(sel.Key.High())
		round.Pairs = append(round.Pairs, models.RoundPair{First: first, Second: second, PairingCount: updated.PairingCount})
	}

	var inTeams []models.PersonID
	for _, p := range e.store.People() {
		if len(p.Teams) > 0 {
			inTeams = append(inTeams, p.ID)
		}
	}
	for _, id := range pairing.Unpaired(inTeams, selected) {
		p, _ := e.store.Person(id)
		round.Unpaired = append(round.Unpaired, p)
	}

	e.logger.Info("generated round", "pairs", len(round.Pairs), "unpaired", len(round.Unpaired))
	return round, nil
}

// Pending returns the number of intents not yet saved.
func (e *PairingEngine) Pending() int { return e.sched.Pending() }

// Save flushes pending intents, retrying as configured, and returns how many were written.
func (e *PairingEngine) Save(ctx context.Context) (int, error) {
	n, err := e.sched.FlushWithRetry(ctx, e.retries)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		sendProgress(e.progress, saveUpdate(n))
	}
	return n, nil
}

// Discard drops unsaved intents. The in-memory roster keeps the changes; reload to undo them.
func (e *PairingEngine) Discard() int { return e.sched.Discard() }

// SkipFailedIntent drops the intent a failed [PairingEngine.Save] blamed in err so the rest of the
// queue can be saved. It reports false when err is not a [*StorageError] naming a queued intent.
func (e *PairingEngine) SkipFailedIntent(err error) (models.Intent, bool) {
	var serr *StorageError
	if !errors.As(err, &serr) {
		return nil, false
	}
	return e.sched.SkipFailed(serr)
}

// Reset deletes every stored row and empties the roster. Id counters restart. When storage
// cannot be cleared, the roster and pending intents are left as they were.
//
// No roster operation or flush can run while it does.
func (e *PairingEngine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sched.Exclusive(func() error {
		if err := e.storage.Truncate(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		dropped := e.sched.Discard()
		e.store = roster.New(e.sched)
		e.logger.Warn("reset roster", "dropped_intents", dropped)
		return nil
	})
}

// RunAutosave flushes pending intents every interval until ctx is done.
func (e *PairingEngine) RunAutosave(ctx context.Context, interval time.Duration) error {
	return e.sched.Run(ctx, interval)
}

// Close saves pending intents when save is set, then closes storage. Both errors are reported.
func (e *PairingEngine) Close(ctx context.Context, save bool) error {
	var err error
	if save {
		_, flushErr := e.Save(ctx)
		err = multierr.Append(err, flushErr)
	} else if n := e.sched.Discard(); n > 0 {
		e.logger.Warn("discarded unsaved changes", "intents", n)
	}
	return multierr.Append(err, e.storage.Close())
}
