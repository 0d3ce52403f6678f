// Package ports defines the interfaces the leads context consumes from other
// modules. Leads depend on agent and campaign identifiers plus derived
// metrics only, never on the owning modules' full types.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// AgentSnapshot is a point-in-time view of an active agent used for ranking.
// Counts are best-effort snapshots; the assignment policy tolerates slight
// staleness instead of cross-agent locking.
type AgentSnapshot struct {
	ID             uuid.UUID
	OpenLeadCount  int
	ConversionRate float64
}

// AgentDirectory is the read-only view of the employee module.
type AgentDirectory interface {
	ListActive(ctx context.Context) ([]AgentSnapshot, error)
}

// AgentContact carries the details needed to notify an agent.
type AgentContact struct {
	ID       uuid.UUID
	FullName string
	Email    string
}

// AgentContactReader resolves an agent's contact details.
type AgentContactReader interface {
	GetContact(ctx context.Context, id uuid.UUID) (AgentContact, error)
}
