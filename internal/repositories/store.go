package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// BatchError reports the intent that stopped a batch. Nothing in the batch was committed.
type BatchError struct {
	Index  int
	Intent models.Intent
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("intent %d (%s) failed: %v", e.Index, e.Intent, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// SQLStore applies intent batches and reads snapshots from a SQLite database.
type SQLStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLStore creates a SQLStore over db. The schema must already be migrated.
func NewSQLStore(db *sql.DB, logger *log.Logger) *SQLStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SQLStore{db: db, logger: logger}
}

// DB returns the underlying database handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// ApplyBatch writes every intent in order inside one transaction.
// On failure the transaction is rolled back and the error is a [*BatchError].
func (s *SQLStore) ApplyBatch(ctx context.Context, batch []models.Intent) error {
	if len(batch) == 0 {
		return nil
	}

	return RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		for i, intent := range batch {
			if err := apply(ctx, tx, intent); err != nil {
				return &BatchError{Index: i, Intent: intent, Err: err}
			}
		}
		return nil
	})
}

func apply(ctx context.Context, tx *sql.Tx, intent models.Intent) error {
	switch in := intent.(type) {
	case models.InsertTeam:
		return NewTeamRepository(tx).Insert(ctx, in.ID, in.Name)
	case models.DeleteTeam:
		return NewTeamRepository(tx).Delete(ctx, in.ID)
	case models.InsertPerson:
		return NewPersonRepository(tx).Insert(ctx, in.ID, in.Email)
	case models.InsertMembership:
		return NewMembershipRepository(tx).Insert(ctx, models.MembershipRecord{ID: in.ID, TeamID: in.TeamID, PersonID: in.PersonID})
	case models.DeleteMembership:
		return NewMembershipRepository(tx).Delete(ctx, in.TeamID, in.PersonID)
	case models.InsertPairing:
		return NewPairingRepository(tx).Insert(ctx, in.ID, in.Key)
	case models.UpdatePairing:
		return NewPairingRepository(tx).Update(ctx, in.Key, in.PairingCount, in.TeamCount)
	case models.AdvanceSequence:
		return NewSequenceRepository(tx).Advance(ctx, in.Name, in.Value)
	default:
		return fmt.Errorf("%w: unknown intent %T", shared.ErrStorage, intent)
	}
}

// Load reads every table, in dependency order, inside one read transaction.
func (s *SQLStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	err := RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if snap.Teams, err = NewTeamRepository(tx).List(ctx); err != nil {
			return err
		}
		if snap.People, err = NewPersonRepository(tx).List(ctx); err != nil {
			return err
		}
		if snap.Memberships, err = NewMembershipRepository(tx).List(ctx); err != nil {
			return err
		}
		if snap.Pairings, err = NewPairingRepository(tx).List(ctx); err != nil {
			return err
		}
		snap.Sequences, err = NewSequenceRepository(tx).All(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return snap, nil
}

// Truncate deletes every roster row and id high-water mark in one transaction.
func (s *SQLStore) Truncate(ctx context.Context) error {
	tables := []string{"team_person_connection", "pairing", "person", "team", "sequences"}
	return RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
