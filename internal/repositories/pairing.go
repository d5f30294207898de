package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/oneplusone/internal/models"
)

// PairingRepository persists pairing counters. Rows are keyed by (person1_id, person2_id) with person1_id < person2_id.
type PairingRepository struct {
	q DBTX
}

// NewPairingRepository creates a PairingRepository over q
func NewPairingRepository(q DBTX) *PairingRepository {
	return &PairingRepository{q: q}
}

// Insert writes a pairing with both counters at zero.
func (r *PairingRepository) Insert(ctx context.Context, id int64, key models.PairKey) error {
	query := `INSERT INTO pairing (id, person1_id, person2_id, pairing_count, team_count) VALUES (?, ?, ?, 0, 0)`
	if _, err := r.q.ExecContext(ctx, query, id, key.Low(), key.High()); err != nil {
		return fmt.Errorf("failed to insert pairing: %w", err)
	}
	return nil
}

// Update overwrites both counters of a pairing.
func (r *PairingRepository) Update(ctx context.Context, key models.PairKey, pairingCount, teamCount uint) error {
	query := `
		UPDATE pairing
		SET pairing_count = ?, team_count = ?
		WHERE person1_id = ? AND person2_id = ?
	`
	result, err := r.q.ExecContext(ctx, query, int64(pairingCount), int64(teamCount), key.Low(), key.High())
	if err != nil {
		return fmt.Errorf("failed to update pairing: %w", err)
	}
	return expectOne(result, fmt.Sprintf("pairing %s", key))
}

// List returns every pairing ordered by id.
func (r *PairingRepository) List(ctx context.Context) ([]models.Pairing, error) {
	query := `SELECT id, person1_id, person2_id, pairing_count, team_count FROM pairing ORDER BY id ASC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings: %w", err)
	}
	defer rows.Close()

	var pairings []models.Pairing
	for rows.Next() {
		var (
			id           int64
			person1      models.PersonID
			person2      models.PersonID
			pairingCount int64
			teamCount    int64
		)
		if err := rows.Scan(&id, &person1, &person2, &pairingCount, &teamCount); err != nil {
			return nil, fmt.Errorf("failed to scan pairing: %w", err)
		}

		key, err := models.StoredPairKey(person1, person2)
		if err != nil {
			return nil, err
		}
		if pairingCount < 0 || teamCount < 0 {
			return nil, fmt.Errorf("pairing %s has negative counters", key)
		}
		pairings = append(pairings, models.Pairing{
			ID:           id,
			Key:          key,
			PairingCount: uint(pairingCount),
			TeamCount:    uint(teamCount),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return pairings, nil
}
