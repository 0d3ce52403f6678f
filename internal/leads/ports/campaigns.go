package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignSnapshot is the view of a campaign the leads context needs: the
// active flag gates intake and scoring, the start timestamp feeds recency.
type CampaignSnapshot struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	StartedAt time.Time
}

// CampaignDirectory is the read-only view of the campaign module. The leads
// context treats campaigns as immutable reference data.
type CampaignDirectory interface {
	// Get resolves a campaign by ID. The second return is false when the
	// campaign is unknown.
	Get(ctx context.Context, id uuid.UUID) (CampaignSnapshot, bool, error)
}
