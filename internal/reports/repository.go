// Package reports builds the agent performance report: per-agent funnel
// aggregates, a coaching insight derived from the conversion rate, and an
// XLSX export stored in object storage.
package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AgentPerformance is one report line.
type AgentPerformance struct {
	AgentID        uuid.UUID
	AgentName      string
	AssignedTotal  int
	OpenCount      int
	ClosedCount    int
	ConvertedCount int
	ConversionRate float64
	LastAssignedAt *time.Time
}

// DB is the query surface the repository needs; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// performanceQuery counts a lead toward every agent it was ever assigned to,
// so a reassigned lead shows up in both agents' assigned totals but only in
// the final agent's outcome columns.
const performanceQuery = `
SELECT
        a.id,
        a.full_name,
        COUNT(DISTINCT la.lead_id) AS assigned_total,
        COUNT(DISTINCT l.id) FILTER (WHERE l.status = 'InProgress') AS open_count,
        COUNT(DISTINCT l.id) FILTER (WHERE l.status = 'Closed') AS closed_count,
        COUNT(DISTINCT l.id) FILTER (WHERE l.status = 'Converted') AS converted_count,
        MAX(la.assigned_at) AS last_assigned_at
FROM agents a
LEFT JOIN lead_assignments la ON la.to_agent_id = a.id
LEFT JOIN leads l ON l.assigned_agent_id = a.id
WHERE a.active
GROUP BY a.id, a.full_name
ORDER BY a.full_name`

// ListPerformance returns the per-agent aggregates for all active agents.
func (r *Repository) ListPerformance(ctx context.Context) ([]AgentPerformance, error) {
	rows, err := r.db.Query(ctx, performanceQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AgentPerformance
	for rows.Next() {
		var p AgentPerformance
		if err := rows.Scan(
			&p.AgentID,
			&p.AgentName,
			&p.AssignedTotal,
			&p.OpenCount,
			&p.ClosedCount,
			&p.ConvertedCount,
			&p.LastAssignedAt,
		); err != nil {
			return nil, err
		}
		if p.AssignedTotal > 0 {
			p.ConversionRate = float64(p.ConvertedCount) / float64(p.AssignedTotal)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
