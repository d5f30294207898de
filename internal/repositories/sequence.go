package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/oneplusone/internal/models"
)

// SequenceRepository persists id high-water marks.
type SequenceRepository struct {
	q DBTX
}

// NewSequenceRepository creates a SequenceRepository over q
func NewSequenceRepository(q DBTX) *SequenceRepository {
	return &SequenceRepository{q: q}
}

// Advance raises the stored value of name to value. A lower value leaves the row unchanged.
func (r *SequenceRepository) Advance(ctx context.Context, name models.Sequence, value int64) error {
	query := `
		INSERT INTO sequences (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = MAX(value, excluded.value)
	`
	if _, err := r.q.ExecContext(ctx, query, string(name), value); err != nil {
		return fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return nil
}

// All returns every stored high-water mark.
func (r *SequenceRepository) All(ctx context.Context) (map[models.Sequence]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT name, value FROM sequences`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Sequence]int64)
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}
		out[models.Sequence(name)] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
