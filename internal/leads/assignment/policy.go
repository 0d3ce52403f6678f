// Package assignment selects the agent a lead should be routed to.
package assignment

import (
	"context"
	"errors"
	"sort"
	"strings"

	"estateleads_backend/internal/leads/ports"

	"github.com/google/uuid"
)

// ErrNoAvailableAgent is returned when the agent pool is empty. Callers must
// leave the lead unassigned rather than fail the batch.
var ErrNoAvailableAgent = errors.New("no available agent for assignment")

// Policy ranks agents by current workload and historical conversion
// performance. Workload counts are best-effort snapshots of the store.
type Policy struct {
	agents ports.AgentDirectory
}

func New(agents ports.AgentDirectory) *Policy {
	return &Policy{agents: agents}
}

// Select returns the best agent for a new lead: fewest open leads first,
// highest conversion rate next. Exact ties break on the lexicographically
// smallest agent ID, which keeps the choice deterministic and testable
// (never random).
func (p *Policy) Select(ctx context.Context) (ports.AgentSnapshot, error) {
	return p.pick(ctx, nil)
}

// SelectExcluding behaves like Select but skips the excluded agent, used when
// reassigning a stale lead away from its current agent. The exclusion is
// only applied when at least one other agent exists.
func (p *Policy) SelectExcluding(ctx context.Context, exclude uuid.UUID) (ports.AgentSnapshot, error) {
	return p.pick(ctx, &exclude)
}

func (p *Policy) pick(ctx context.Context, exclude *uuid.UUID) (ports.AgentSnapshot, error) {
	candidates, err := p.agents.ListActive(ctx)
	if err != nil {
		return ports.AgentSnapshot{}, err
	}

	if exclude != nil && len(candidates) > 1 {
		filtered := make([]ports.AgentSnapshot, 0, len(candidates)-1)
		for _, agent := range candidates {
			if agent.ID != *exclude {
				filtered = append(filtered, agent)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	if len(candidates) == 0 {
		return ports.AgentSnapshot{}, ErrNoAvailableAgent
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.OpenLeadCount != b.OpenLeadCount {
			return a.OpenLeadCount < b.OpenLeadCount
		}
		if a.ConversionRate != b.ConversionRate {
			return a.ConversionRate > b.ConversionRate
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})

	return candidates[0], nil
}
