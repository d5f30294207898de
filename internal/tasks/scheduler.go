package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/repositories"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// BatchStore applies a batch of intents all-or-nothing.
type BatchStore interface {
	ApplyBatch(ctx context.Context, batch []models.Intent) error
}

// StorageError reports a flush that committed nothing. The batch is back at the head of the queue.
type StorageError struct {
	BatchID string        // Id logged for the failed attempt
	Size    int           // Intents in the batch
	Index   int           // Position of the failing intent, -1 when unknown
	Intent  models.Intent // Failing intent, nil when unknown
	Err     error
}

func (e *StorageError) Error() string {
	if e.Intent == nil {
		return fmt.Sprintf("flush %s of %d intents failed: %v", e.BatchID, e.Size, e.Err)
	}
	return fmt.Sprintf("flush %s failed at intent %d of %d (%s): %v", e.BatchID, e.Index+1, e.Size, e.Intent, e.Err)
}

// Unwrap exposes both [shared.ErrStorage] and the underlying cause to [errors.Is] and [errors.As].
func (e *StorageError) Unwrap() []error { return []error{shared.ErrStorage, e.Err} }

// SchedulerOpts configures retry pacing.
type SchedulerOpts struct {
	Logger    *log.Logger
	RetryRate float64 // Retries per second for [Scheduler.FlushWithRetry] (default: 2)
}

// Scheduler queues durable writes and commits them in batches.
//
// Schedule only takes the queue lock, so it never waits on storage. Flushes are serialized
// by a second lock and see intents in the order they were scheduled.
type Scheduler struct {
	store   BatchStore
	logger  *log.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	pending []models.Intent

	flushMu sync.Mutex
}

// NewScheduler creates a Scheduler that flushes to store.
func NewScheduler(store BatchStore, opts SchedulerOpts) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RetryRate <= 0 {
		opts.RetryRate = 2.0
	}
	return &Scheduler{
		store:   store,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RetryRate), 1),
	}
}

// Schedule appends intent to the pending queue.
func (s *Scheduler) Schedule(intent models.Intent) {
	s.mu.Lock()
	s.pending = append(s.pending, intent)
	s.mu.Unlock()
}

// Pending returns the number of queued intents.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush applies every queued intent in one transaction and returns how many were written.
//
// On failure the batch is returned to the head of the queue, ahead of anything scheduled while
// the flush ran, and the error is a [*StorageError]. An intent the store always rejects fails
// every later flush too until it is dropped with [Scheduler.SkipFailed].
func (s *Scheduler) Flush(ctx context.Context) (int, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Scheduler) flushLocked(ctx context.Context) (int, error) {
	batch := s.take()
	if len(batch) == 0 {
		return 0, nil
	}

	id := shared.GenerateID()
	start := time.Now()
	if err := s.store.ApplyBatch(ctx, batch); err != nil {
		s.requeue(batch)

		serr := &StorageError{BatchID: id, Size: len(batch), Index: -1, Err: err}
		var batchErr *repositories.BatchError
		if errors.As(err, &batchErr) {
			serr.Index = batchErr.Index
			serr.Intent = batchErr.Intent
		}
		s.logger.Warn("flush failed", "batch", id, "intents", len(batch), "error", err)
		return 0, serr
	}

	s.logger.Debug("flushed", "batch", id, "intents", len(batch), "took", time.Since(start))
	return len(batch), nil
}

// FlushWithRetry calls [Scheduler.Flush] up to 1+retries times, waiting on the retry limiter
// between attempts. It returns the last error when every attempt fails.
func (s *Scheduler) FlushWithRetry(ctx context.Context, retries int) (int, error) {
	n, err := s.Flush(ctx)
	for attempt := 1; err != nil && attempt <= retries; attempt++ {
		if waitErr := s.limiter.Wait(ctx); waitErr != nil {
			return 0, fmt.Errorf("%w (retry aborted: %v)", err, waitErr)
		}
		s.logger.Info("retrying flush", "attempt", attempt, "of", retries)
		n, err = s.Flush(ctx)
	}
	return n, err
}

// Barrier returns once everything scheduled before the call is durable, waiting for any
// flush already in progress.
func (s *Scheduler) Barrier(ctx context.Context) error {
	_, err := s.Flush(ctx)
	return err
}

// Discard drops every queued intent and returns how many were dropped.
func (s *Scheduler) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	s.pending = nil
	return n
}

// SkipFailed removes the intent serr blames from the head batch it was requeued with and returns
// it. It does nothing when serr names no intent or the queue no longer holds it at that position.
//
// Dropping an intent can leave storage behind the in-memory roster; a reload shows what was kept.
func (s *Scheduler) SkipFailed(serr *StorageError) (models.Intent, bool) {
	if serr == nil || serr.Intent == nil {
		return nil, false
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := serr.Index
	if i < 0 || i >= len(s.pending) || s.pending[i] != serr.Intent {
		return nil, false
	}
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	s.logger.Warn("skipped failing intent", "batch", serr.BatchID, "intent", serr.Intent.String())
	return serr.Intent, true
}

// Exclusive runs fn with no flush in progress and none able to start until fn returns.
func (s *Scheduler) Exclusive(fn func() error) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return fn()
}

// Run flushes on every tick of interval until ctx is done. Failed flushes are logged and
// retried on the next tick.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: autosave interval must be positive", shared.ErrInvalidConfig)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Pending() == 0 {
				continue
			}
			if n, err := s.Flush(ctx); err != nil {
				s.logger.Error("autosave failed", "error", err)
			} else {
				s.logger.Info("autosaved", "intents", n)
			}
		}
	}
}

func (s *Scheduler) take() []models.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = nil
	return batch
}

func (s *Scheduler) requeue(batch []models.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(batch, s.pending...)
}
