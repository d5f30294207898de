package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// setupTestDB creates a migrated SQLite database in a temp directory
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := shared.OpenDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func pairKey(t *testing.T, a, b models.PersonID) models.PairKey {
	t.Helper()
	k, err := models.NewPairKey(a, b)
	if err != nil {
		t.Fatalf("NewPairKey failed: %v", err)
	}
	return k
}

func rosterBatch(t *testing.T) []models.Intent {
	return []models.Intent{
		models.AdvanceSequence{Name: models.SeqTeam, Value: 1},
		models.InsertTeam{ID: 1, Name: "Alpha"},
		models.AdvanceSequence{Name: models.SeqPerson, Value: 1},
		models.InsertPerson{ID: 1, Email: "a@x.com"},
		models.AdvanceSequence{Name: models.SeqPerson, Value: 2},
		models.InsertPerson{ID: 2, Email: "b@x.com"},
		models.AdvanceSequence{Name: models.SeqPairing, Value: 1},
		models.InsertPairing{ID: 1, Key: pairKey(t, 1, 2)},
		models.AdvanceSequence{Name: models.SeqMembership, Value: 1},
		models.InsertMembership{ID: 1, TeamID: 1, PersonID: 1},
		models.UpdatePairing{Key: pairKey(t, 1, 2), PairingCount: 0, TeamCount: 1},
		models.AdvanceSequence{Name: models.SeqMembership, Value: 2},
		models.InsertMembership{ID: 2, TeamID: 1, PersonID: 2},
		models.UpdatePairing{Key: pairKey(t, 1, 2), PairingCount: 3, TeamCount: 1},
	}
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()

	t.Run("ApplyBatch and Load", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)

		if err := store.ApplyBatch(ctx, rosterBatch(t)); err != nil {
			t.Fatalf("ApplyBatch failed: %v", err)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Teams) != 1 || snap.Teams[0].Name != "Alpha" {
			t.Errorf("unexpected teams %+v", snap.Teams)
		}
		if len(snap.People) != 2 || snap.People[1].Email != "b@x.com" {
			t.Errorf("unexpected people %+v", snap.People)
		}
		if len(snap.Memberships) != 2 {
			t.Errorf("expected 2 memberships, got %+v", snap.Memberships)
		}
		if len(snap.Pairings) != 1 {
			t.Fatalf("expected 1 pairing, got %+v", snap.Pairings)
		}
		p := snap.Pairings[0]
		if p.Key != pairKey(t, 1, 2) || p.PairingCount != 3 || p.TeamCount != 1 {
			t.Errorf("unexpected pairing %+v", p)
		}
		if snap.Sequences[models.SeqPerson] != 2 || snap.Sequences[models.SeqMembership] != 2 {
			t.Errorf("unexpected sequences %v", snap.Sequences)
		}
	})

	t.Run("failed batch commits nothing", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)

		batch := []models.Intent{
			models.InsertTeam{ID: 1, Name: "Alpha"},
			models.InsertPerson{ID: 1, Email: "a@x.com"},
			models.InsertTeam{ID: 2, Name: "ALPHA"},
		}
		err := store.ApplyBatch(ctx, batch)

		var batchErr *BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("expected *BatchError, got %v", err)
		}
		if batchErr.Index != 2 {
			t.Errorf("expected failing index 2, got %d", batchErr.Index)
		}
		if batchErr.Intent.Kind() != models.KindInsertTeam {
			t.Errorf("unexpected failing intent %v", batchErr.Intent)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !snap.Empty() {
			t.Errorf("expected nothing committed, got %+v", snap)
		}
	})

	t.Run("sequences never go down", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)

		batch := []models.Intent{
			models.AdvanceSequence{Name: models.SeqTeam, Value: 5},
			models.AdvanceSequence{Name: models.SeqTeam, Value: 3},
		}
		if err := store.ApplyBatch(ctx, batch); err != nil {
			t.Fatalf("ApplyBatch failed: %v", err)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := snap.Sequences[models.SeqTeam]; got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("deletes", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)
		if err := store.ApplyBatch(ctx, rosterBatch(t)); err != nil {
			t.Fatalf("ApplyBatch failed: %v", err)
		}

		batch := []models.Intent{
			models.DeleteMembership{TeamID: 1, PersonID: 1},
			models.DeleteMembership{TeamID: 1, PersonID: 2},
			models.UpdatePairing{Key: pairKey(t, 1, 2), PairingCount: 3, TeamCount: 0},
			models.DeleteTeam{ID: 1},
		}
		if err := store.ApplyBatch(ctx, batch); err != nil {
			t.Fatalf("ApplyBatch failed: %v", err)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Teams) != 0 || len(snap.Memberships) != 0 {
			t.Errorf("expected team and memberships gone, got %+v", snap)
		}
		if len(snap.People) != 2 || snap.Pairings[0].TeamCount != 0 {
			t.Errorf("people and pairings should remain, got %+v", snap)
		}
	})

	t.Run("missing rows fail the batch", func(t *testing.T) {
		tc := []struct {
			name   string
			intent models.Intent
		}{
			{"update unknown pairing", models.UpdatePairing{Key: pairKey(t, 1, 9), PairingCount: 1, TeamCount: 1}},
			{"delete unknown membership", models.DeleteMembership{TeamID: 1, PersonID: 9}},
			{"delete unknown team", models.DeleteTeam{ID: 9}},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				store := NewSQLStore(setupTestDB(t), nil)
				err := store.ApplyBatch(ctx, []models.Intent{models.InsertTeam{ID: 1, Name: "Alpha"}, c.intent})

				var batchErr *BatchError
				if !errors.As(err, &batchErr) || batchErr.Index != 1 {
					t.Errorf("expected failure at index 1, got %v", err)
				}
			})
		}
	})

	t.Run("Truncate", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)
		if err := store.ApplyBatch(ctx, rosterBatch(t)); err != nil {
			t.Fatalf("ApplyBatch failed: %v", err)
		}

		if err := store.Truncate(ctx); err != nil {
			t.Fatalf("Truncate failed: %v", err)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !snap.Empty() || len(snap.Sequences) != 0 {
			t.Errorf("expected empty database, got %+v", snap)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		store := NewSQLStore(setupTestDB(t), nil)
		if err := store.ApplyBatch(ctx, nil); err != nil {
			t.Errorf("expected nil for an empty batch, got %v", err)
		}
	})
}

func TestRunInTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewSQLStore(db, nil)
	boom := errors.New("boom")

	err := RunInTransaction(ctx, db, store.logger, func(ctx context.Context, tx *sql.Tx) error {
		if err := NewTeamRepository(tx).Insert(ctx, 1, "Alpha"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	teams, err := NewTeamRepository(db).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(teams) != 0 {
		t.Errorf("expected rollback, got %+v", teams)
	}
}
