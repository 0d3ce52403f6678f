// Package campaigns provides the campaign reference data other modules read:
// a pgx-backed directory plus a Redis cache in front of it. Campaigns change
// rarely, so a short cache absorbs the lookup burst of busy intake and
// distribution periods.
package campaigns

import (
	"context"
	"errors"

	"estateleads_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the query surface the repository needs; *pgxpool.Pool satisfies it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// Get resolves a campaign by ID; the second return is false when unknown.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (ports.CampaignSnapshot, bool, error) {
	var snap ports.CampaignSnapshot
	err := r.db.QueryRow(ctx,
		`SELECT id, name, active, started_at FROM campaigns WHERE id = $1`, id,
	).Scan(&snap.ID, &snap.Name, &snap.Active, &snap.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.CampaignSnapshot{}, false, nil
	}
	if err != nil {
		return ports.CampaignSnapshot{}, false, err
	}
	return snap, true, nil
}

var _ ports.CampaignDirectory = (*Repository)(nil)
