// Package agents provides the read model of the agent pool: per-agent
// workload and conversion aggregates for the assignment policy, plus contact
// details for notifications.
package agents

import (
	"context"
	"errors"

	"estateleads_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrAgentNotFound = errors.New("agent not found")

// DB is the query surface the repository needs; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// listActiveQuery aggregates per-agent workload in one round trip. The open
// count is leads currently InProgress; the conversion rate is Converted over
// every lead assigned to the agent, zero when nothing was assigned yet.
const listActiveQuery = `
SELECT
        a.id,
        COUNT(l.id) FILTER (WHERE l.status = 'InProgress') AS open_count,
        CASE
                WHEN COUNT(l.id) = 0 THEN 0
                ELSE COUNT(l.id) FILTER (WHERE l.status = 'Converted')::float8
                        / COUNT(l.id)
        END AS conversion_rate
FROM agents a
LEFT JOIN leads l ON l.assigned_agent_id = a.id
WHERE a.active
GROUP BY a.id
ORDER BY a.id`

// ListActive returns a snapshot of every active agent. The counts are
// consistent within the query but may drift before the caller acts on them;
// the lead store's guarded updates absorb that race.
func (r *Repository) ListActive(ctx context.Context) ([]ports.AgentSnapshot, error) {
	rows, err := r.db.Query(ctx, listActiveQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []ports.AgentSnapshot
	for rows.Next() {
		var snap ports.AgentSnapshot
		if err := rows.Scan(&snap.ID, &snap.OpenLeadCount, &snap.ConversionRate); err != nil {
			return nil, err
		}
		agents = append(agents, snap)
	}
	return agents, rows.Err()
}

// GetContact resolves an agent's notification details.
func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (ports.AgentContact, error) {
	var contact ports.AgentContact
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email FROM agents WHERE id = $1`, id,
	).Scan(&contact.ID, &contact.FullName, &contact.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.AgentContact{}, ErrAgentNotFound
	}
	if err != nil {
		return ports.AgentContact{}, err
	}
	return contact, nil
}

var (
	_ ports.AgentDirectory     = (*Repository)(nil)
	_ ports.AgentContactReader = (*Repository)(nil)
)
