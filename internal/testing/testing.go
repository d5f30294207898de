// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/repositories"
	"github.com/desertthunder/oneplusone/internal/shared"
)

// ErrInjected is returned by doubles configured to fail.
var ErrInjected = errors.New("injected failure")

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FlakyStore is an in-memory batch store that fails the next Failures batches at FailAt.
// Successful batches are recorded in order.
type FlakyStore struct {
	mu          sync.Mutex
	Failures    int
	FailAt      int
	Batches     [][]models.Intent
	Attempts    int
	Snapshot    *models.Snapshot
	TruncateErr error
	Closed      bool
}

func (f *FlakyStore) ApplyBatch(ctx context.Context, batch []models.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Attempts++
	if f.Failures > 0 {
		f.Failures--
		idx := min(f.FailAt, len(batch)-1)
		return &repositories.BatchError{Index: idx, Intent: batch[idx], Err: ErrInjected}
	}
	f.Batches = append(f.Batches, append([]models.Intent(nil), batch...))
	return nil
}

// Applied returns every intent from successful batches, in order.
func (f *FlakyStore) Applied() []models.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Intent
	for _, b := range f.Batches {
		out = append(out, b...)
	}
	return out
}

func (f *FlakyStore) Load(ctx context.Context) (*models.Snapshot, error) {
	if f.Snapshot == nil {
		return &models.Snapshot{}, nil
	}
	return f.Snapshot, nil
}

func (f *FlakyStore) Truncate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TruncateErr != nil {
		return f.TruncateErr
	}
	f.Batches = nil
	f.Snapshot = nil
	return nil
}

func (f *FlakyStore) Close() error {
	f.Closed = true
	return nil
}

// NewTestDatabase opens a migrated SQLite database in a temp directory, closed with the test.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	cfg := shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "roster.db")}
	db, err := shared.OpenDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
