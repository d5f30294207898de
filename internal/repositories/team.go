package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/oneplusone/internal/models"
)

// TeamRepository persists team rows.
type TeamRepository struct {
	q DBTX
}

// NewTeamRepository creates a TeamRepository over q
func NewTeamRepository(q DBTX) *TeamRepository {
	return &TeamRepository{q: q}
}

// Insert writes a team with its in-memory id.
func (r *TeamRepository) Insert(ctx context.Context, id models.TeamID, name string) error {
	if _, err := r.q.ExecContext(ctx, `INSERT INTO team (id, name) VALUES (?, ?)`, id, name); err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// Delete removes a team. Its memberships must already be gone.
func (r *TeamRepository) Delete(ctx context.Context, id models.TeamID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM team WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return expectOne(result, fmt.Sprintf("team %d", id))
}

// List returns every team ordered by id.
func (r *TeamRepository) List(ctx context.Context) ([]models.TeamRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM team ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.TeamRecord
	for rows.Next() {
		var rec models.TeamRecord
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return teams, nil
}
