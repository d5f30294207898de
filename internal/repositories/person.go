package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/oneplusone/internal/models"
)

// PersonRepository persists person rows. People are never deleted.
type PersonRepository struct {
	q DBTX
}

// NewPersonRepository creates a PersonRepository over q
func NewPersonRepository(q DBTX) *PersonRepository {
	return &PersonRepository{q: q}
}

// Insert writes a person with their in-memory id.
func (r *PersonRepository) Insert(ctx context.Context, id models.PersonID, email string) error {
	if _, err := r.q.ExecContext(ctx, `INSERT INTO person (id, email) VALUES (?, ?)`, id, email); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// List returns every person ordered by id.
func (r *PersonRepository) List(ctx context.Context) ([]models.PersonRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, email FROM person ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []models.PersonRecord
	for rows.Next() {
		var rec models.PersonRecord
		if err := rows.Scan(&rec.ID, &rec.Email); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return people, nil
}
