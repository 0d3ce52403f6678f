// Package distribution runs the periodic assignment pass: first binding
// unassigned leads to agents, then rotating stale in-progress leads to a
// different agent. A pass is coordination only; every per-lead mutation is
// guarded in the store, so concurrent passes skip rather than double-assign.
package distribution

import (
	"context"
	"errors"
	"time"

	"estateleads_backend/internal/leads/assignment"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/internal/leads/scoring"
	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadSource is the store surface a pass reads and scores from.
type LeadSource interface {
	repository.DistributionReader
	SetScore(ctx context.Context, id uuid.UUID, score int) error
}

// AgentSelector ranks agents; satisfied by assignment.Policy.
type AgentSelector interface {
	Select(ctx context.Context) (ports.AgentSnapshot, error)
	SelectExcluding(ctx context.Context, exclude uuid.UUID) (ports.AgentSnapshot, error)
}

// Lifecycle is the subset of the lifecycle controller a pass drives.
type Lifecycle interface {
	Assign(ctx context.Context, leadID, agentID uuid.UUID) (repository.Lead, error)
	Reassign(ctx context.Context, leadID, fromAgentID, toAgentID uuid.UUID) (repository.Lead, error)
}

// Summary is the outcome of one pass. Errors holds per-lead failures that did
// not stop the pass; the pass itself only fails on context cancellation.
type Summary struct {
	Assigned   int
	Reassigned int
	Skipped    int
	Errors     []error
}

// Service executes distribution passes.
type Service struct {
	store     LeadSource
	selector  AgentSelector
	lifecycle Lifecycle
	engine    *scoring.Engine
	campaigns ports.CampaignDirectory
	batchSize int
	log       *logger.Logger
}

func New(store LeadSource, selector AgentSelector, lifecycle Lifecycle, engine *scoring.Engine, campaigns ports.CampaignDirectory, batchSize int, log *logger.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		store:     store,
		selector:  selector,
		lifecycle: lifecycle,
		engine:    engine,
		campaigns: campaigns,
		batchSize: batchSize,
		log:       log,
	}
}

// RunPass executes one full distribution pass. Phase one assigns unassigned
// leads in score order; when no agent is available the phase stops early
// rather than erroring. Phase two reassigns leads whose last update is older
// than staleWindow. The returned summary is complete even when individual
// leads failed.
func (s *Service) RunPass(ctx context.Context, staleWindow time.Duration) (Summary, error) {
	var sum Summary

	if err := s.assignNew(ctx, &sum); err != nil {
		return sum, err
	}
	if err := s.rotateStale(ctx, staleWindow, &sum); err != nil {
		return sum, err
	}

	s.log.DistributionSummary(sum.Assigned, sum.Reassigned, sum.Skipped, len(sum.Errors))
	return sum, nil
}

func (s *Service) assignNew(ctx context.Context, sum *Summary) error {
	// A lead whose assignment keeps failing stays unassigned and reappears
	// in every batch; remember it so the error is recorded once.
	handled := make(map[uuid.UUID]struct{})

	for {
		leads, err := s.store.FindUnassigned(ctx, s.batchSize)
		if err != nil {
			sum.Errors = append(sum.Errors, err)
			return nil
		}
		if len(leads) == 0 {
			return nil
		}

		progressed := 0
		for _, lead := range leads {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, done := handled[lead.ID]; done {
				continue
			}

			if lead.Score == nil {
				s.scoreLead(ctx, lead, sum)
			}

			agent, err := s.selector.Select(ctx)
			if errors.Is(err, assignment.ErrNoAvailableAgent) {
				// Nothing left to hand out to; the stale phase still runs.
				return nil
			}
			if err != nil {
				sum.Errors = append(sum.Errors, err)
				return nil
			}

			switch _, err := s.lifecycle.Assign(ctx, lead.ID, agent.ID); {
			case err == nil:
				sum.Assigned++
				progressed++
			case errors.Is(err, repository.ErrLeadTaken), errors.Is(err, repository.ErrNotFound):
				// Another pass or a manual action got there first.
				sum.Skipped++
				progressed++
			default:
				handled[lead.ID] = struct{}{}
				sum.Errors = append(sum.Errors, err)
			}
		}

		// A batch that moved nothing would come back verbatim next query.
		if progressed == 0 || len(leads) < s.batchSize {
			return nil
		}
	}
}

func (s *Service) rotateStale(ctx context.Context, staleWindow time.Duration, sum *Summary) error {
	cutoff := time.Now().UTC().Add(-staleWindow)

	// Skipped leads keep their updated_at, so they come back in every
	// following FindStale batch. Remember them and count only actual
	// rotations as loop progress, or a batch of pure skips never ends.
	handled := make(map[uuid.UUID]struct{})

	for {
		leads, err := s.store.FindStale(ctx, cutoff, s.batchSize)
		if err != nil {
			sum.Errors = append(sum.Errors, err)
			return nil
		}
		if len(leads) == 0 {
			return nil
		}

		rotated := 0
		for _, lead := range leads {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, done := handled[lead.ID]; done {
				continue
			}
			if lead.AssignedAgentID == nil {
				handled[lead.ID] = struct{}{}
				sum.Skipped++
				continue
			}
			current := *lead.AssignedAgentID

			agent, err := s.selector.SelectExcluding(ctx, current)
			if errors.Is(err, assignment.ErrNoAvailableAgent) {
				return nil
			}
			if err != nil {
				sum.Errors = append(sum.Errors, err)
				return nil
			}
			if agent.ID == current {
				// Sole active agent keeps the lead; rotating to self is a no-op.
				handled[lead.ID] = struct{}{}
				sum.Skipped++
				continue
			}

			switch _, err := s.lifecycle.Reassign(ctx, lead.ID, current, agent.ID); {
			case err == nil:
				sum.Reassigned++
				rotated++
			case errors.Is(err, repository.ErrLeadTaken), errors.Is(err, repository.ErrNotFound):
				handled[lead.ID] = struct{}{}
				sum.Skipped++
			default:
				handled[lead.ID] = struct{}{}
				sum.Errors = append(sum.Errors, err)
			}
		}

		if rotated == 0 || len(leads) < s.batchSize {
			return nil
		}
	}
}

// scoreLead backfills a missing score so the current and following passes
// serve the lead in the right order. A scoring failure is recorded but never
// blocks assignment.
func (s *Service) scoreLead(ctx context.Context, lead repository.Lead, sum *Summary) {
	sig := scoring.Signals{
		Name:  lead.Name,
		Email: lead.Email,
	}
	if lead.Phone != nil {
		sig.Phone = *lead.Phone
	}

	campaign, ok, err := s.campaigns.Get(ctx, lead.CampaignID)
	if err != nil {
		sum.Errors = append(sum.Errors, err)
		return
	}
	if ok {
		sig.CampaignActive = campaign.Active
		sig.CampaignAgeDays = int(time.Since(campaign.StartedAt).Hours() / 24)
	}

	if err := s.store.SetScore(ctx, lead.ID, s.engine.Score(sig)); err != nil {
		sum.Errors = append(sum.Errors, err)
	}
}
