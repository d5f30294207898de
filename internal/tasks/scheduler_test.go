package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/shared"
	tu "github.com/desertthunder/oneplusone/internal/testing"
)

func teamIntents(n int) []models.Intent {
	out := make([]models.Intent, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.InsertTeam{ID: models.TeamID(i), Name: "team"})
	}
	return out
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("Flush applies in schedule order", func(t *testing.T) {
		store := &tu.FlakyStore{}
		s := NewScheduler(store, SchedulerOpts{})
		for _, in := range teamIntents(3) {
			s.Schedule(in)
		}

		n, err := s.Flush(ctx)
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if n != 3 || s.Pending() != 0 {
			t.Errorf("expected 3 flushed and none pending, got %d and %d", n, s.Pending())
		}
		if len(store.Batches) != 1 {
			t.Fatalf("expected one batch, got %d", len(store.Batches))
		}
		for i, in := range store.Batches[0] {
			if in.(models.InsertTeam).ID != models.TeamID(i+1) {
				t.Errorf("intent %d out of order: %v", i, in)
			}
		}
	})

	t.Run("empty Flush does not touch storage", func(t *testing.T) {
		store := &tu.FlakyStore{}
		s := NewScheduler(store, SchedulerOpts{})
		if n, err := s.Flush(ctx); n != 0 || err != nil {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
		if store.Attempts != 0 {
			t.Errorf("expected no attempts, got %d", store.Attempts)
		}
	})

	t.Run("failed Flush requeues the batch at the head", func(t *testing.T) {
		store := &tu.FlakyStore{Failures: 1, FailAt: 1}
		s := NewScheduler(store, SchedulerOpts{})
		for _, in := range teamIntents(2) {
			s.Schedule(in)
		}

		_, err := s.Flush(ctx)
		var serr *StorageError
		if !errors.As(err, &serr) {
			t.Fatalf("expected *StorageError, got %v", err)
		}
		if !errors.Is(err, shared.ErrStorage) || !errors.Is(err, tu.ErrInjected) {
			t.Errorf("expected storage class and cause, got %v", err)
		}
		if serr.Index != 1 || serr.Size != 2 || serr.BatchID == "" {
			t.Errorf("unexpected error fields %+v", serr)
		}
		if serr.Intent.(models.InsertTeam).ID != 2 {
			t.Errorf("expected failing intent to be team 2, got %v", serr.Intent)
		}

		s.Schedule(models.InsertTeam{ID: 3, Name: "later"})
		if s.Pending() != 3 {
			t.Fatalf("expected 3 pending, got %d", s.Pending())
		}

		if _, err := s.Flush(ctx); err != nil {
			t.Fatalf("second Flush failed: %v", err)
		}
		applied := store.Applied()
		for i, in := range applied {
			if in.(models.InsertTeam).ID != models.TeamID(i+1) {
				t.Errorf("intent %d out of order after retry: %v", i, in)
			}
		}
	})

	t.Run("SkipFailed drops only the blamed intent", func(t *testing.T) {
		store := &tu.FlakyStore{Failures: 1, FailAt: 1}
		s := NewScheduler(store, SchedulerOpts{})
		for _, in := range teamIntents(3) {
			s.Schedule(in)
		}

		_, err := s.Flush(ctx)
		var serr *StorageError
		if !errors.As(err, &serr) {
			t.Fatalf("expected *StorageError, got %v", err)
		}

		skipped, ok := s.SkipFailed(serr)
		if !ok || skipped.(models.InsertTeam).ID != 2 {
			t.Fatalf("expected team 2 skipped, got %v (%v)", skipped, ok)
		}
		if s.Pending() != 2 {
			t.Errorf("expected 2 pending after skip, got %d", s.Pending())
		}
		if _, ok := s.SkipFailed(serr); ok {
			t.Error("expected a second skip of the same error to do nothing")
		}

		if _, err := s.Flush(ctx); err != nil {
			t.Fatalf("Flush after skip failed: %v", err)
		}
		applied := store.Applied()
		if len(applied) != 2 || applied[0].(models.InsertTeam).ID != 1 || applied[1].(models.InsertTeam).ID != 3 {
			t.Errorf("expected teams 1 and 3 applied, got %v", applied)
		}
	})

	t.Run("SkipFailed ignores errors without an intent", func(t *testing.T) {
		s := NewScheduler(&tu.FlakyStore{}, SchedulerOpts{})
		s.Schedule(models.InsertTeam{ID: 1, Name: "a"})
		if _, ok := s.SkipFailed(&StorageError{Index: -1, Err: tu.ErrInjected}); ok {
			t.Error("expected no skip")
		}
		if _, ok := s.SkipFailed(nil); ok {
			t.Error("expected no skip for nil")
		}
		if s.Pending() != 1 {
			t.Errorf("expected queue untouched, got %d", s.Pending())
		}
	})

	t.Run("FlushWithRetry", func(t *testing.T) {
		store := &tu.FlakyStore{Failures: 2}
		s := NewScheduler(store, SchedulerOpts{RetryRate: 1000})
		for _, in := range teamIntents(2) {
			s.Schedule(in)
		}

		n, err := s.FlushWithRetry(ctx, 2)
		if err != nil {
			t.Fatalf("FlushWithRetry failed: %v", err)
		}
		if n != 2 || store.Attempts != 3 {
			t.Errorf("expected 2 intents after 3 attempts, got %d after %d", n, store.Attempts)
		}
	})

	t.Run("FlushWithRetry gives up", func(t *testing.T) {
		store := &tu.FlakyStore{Failures: 5}
		s := NewScheduler(store, SchedulerOpts{RetryRate: 1000})
		s.Schedule(models.InsertTeam{ID: 1, Name: "a"})

		if _, err := s.FlushWithRetry(ctx, 1); !errors.Is(err, shared.ErrStorage) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if store.Attempts != 2 || s.Pending() != 1 {
			t.Errorf("expected 2 attempts and the intent kept, got %d and %d", store.Attempts, s.Pending())
		}
	})

	t.Run("Discard", func(t *testing.T) {
		store := &tu.FlakyStore{}
		s := NewScheduler(store, SchedulerOpts{})
		for _, in := range teamIntents(4) {
			s.Schedule(in)
		}
		if n := s.Discard(); n != 4 {
			t.Errorf("expected 4 dropped, got %d", n)
		}
		if err := s.Barrier(ctx); err != nil {
			t.Errorf("Barrier failed: %v", err)
		}
		if store.Attempts != 0 {
			t.Errorf("discarded intents reached storage")
		}
	})

	t.Run("Run autosaves until cancelled", func(t *testing.T) {
		store := &tu.FlakyStore{}
		s := NewScheduler(store, SchedulerOpts{})
		s.Schedule(models.InsertTeam{ID: 1, Name: "a"})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

		deadline := time.After(2 * time.Second)
		for s.Pending() > 0 {
			select {
			case <-deadline:
				t.Fatal("autosave never flushed")
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(store.Applied()) != 1 {
			t.Errorf("expected one applied intent, got %v", store.Applied())
		}
	})

	t.Run("Run rejects a non-positive interval", func(t *testing.T) {
		s := NewScheduler(&tu.FlakyStore{}, SchedulerOpts{})
		if err := s.Run(ctx, 0); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
