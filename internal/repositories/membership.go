package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/oneplusone/internal/models"
)

// MembershipRepository persists team_person_connection edges.
type MembershipRepository struct {
	q DBTX
}

// NewMembershipRepository creates a MembershipRepository over q
func NewMembershipRepository(q DBTX) *MembershipRepository {
	return &MembershipRepository{q: q}
}

// Insert writes one membership edge.
func (r *MembershipRepository) Insert(ctx context.Context, rec models.MembershipRecord) error {
	query := `INSERT INTO team_person_connection (id, team_id, person_id) VALUES (?, ?, ?)`
	if _, err := r.q.ExecContext(ctx, query, rec.ID, rec.TeamID, rec.PersonID); err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// Delete removes the edge between a team and a person.
func (r *MembershipRepository) Delete(ctx context.Context, team models.TeamID, person models.PersonID) error {
	query := `DELETE FROM team_person_connection WHERE team_id = ? AND person_id = ?`
	result, err := r.q.ExecContext(ctx, query, team, person)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return expectOne(result, fmt.Sprintf("membership (team %d, person %d)", team, person))
}

// List returns every edge ordered by id.
func (r *MembershipRepository) List(ctx context.Context) ([]models.MembershipRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, team_id, person_id FROM team_person_connection ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var edges []models.MembershipRecord
	for rows.Next() {
		var rec models.MembershipRecord
		if err := rows.Scan(&rec.ID, &rec.TeamID, &rec.PersonID); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		edges = append(edges, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return edges, nil
}
