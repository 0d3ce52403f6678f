package repository

import (
	"context"
	"time"

	"estateleads_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListAssignments(ctx context.Context, leadID uuid.UUID) ([]Assignment, error)
}

// LeadWriter provides intake and scoring writes.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	SetScore(ctx context.Context, id uuid.UUID, score int) error
}

// LifecycleStore provides the guarded lifecycle mutations. Each call is one
// atomic unit against the store.
type LifecycleStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.Status) (Lead, domain.Status, error)
	AssignAndStart(ctx context.Context, leadID, agentID uuid.UUID) (Lead, error)
	Reassign(ctx context.Context, leadID, fromAgentID, toAgentID uuid.UUID) (Lead, error)
}

// DistributionReader provides the batch queries driven by the scheduler.
type DistributionReader interface {
	FindUnassigned(ctx context.Context, limit int) ([]Lead, error)
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadStore defines the complete interface for lead data operations.
type LeadStore interface {
	LeadReader
	LeadWriter
	LifecycleStore
	DistributionReader
}

// Ensure Repository implements LeadStore
var _ LeadStore = (*Repository)(nil)
