// Package lifecycle drives lead status transitions and the side effects that
// follow them. Store mutations commit first; events and notifications are
// explicit follow-up calls, and a failed notification never fails the
// lifecycle operation that triggered it.
package lifecycle

import (
	"context"
	"fmt"

	"estateleads_backend/internal/events"
	"estateleads_backend/internal/leads/domain"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the subset of the lead store the controller mutates.
type Store interface {
	repository.LifecycleStore
}

// Service is the lifecycle controller. The notifier and contact reader are
// injected capabilities scoped to the service instance, never process-wide
// state.
type Service struct {
	store    Store
	contacts ports.AgentContactReader
	notifier ports.Notifier
	bus      events.Bus
	log      *logger.Logger
}

func New(store Store, contacts ports.AgentContactReader, notifier ports.Notifier, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		contacts: contacts,
		notifier: notifier,
		bus:      bus,
		log:      log,
	}
}

// Transition moves a lead along the state machine. Illegal edges surface the
// store's domain.IllegalTransitionError untouched.
func (s *Service) Transition(ctx context.Context, leadID uuid.UUID, newStatus domain.Status) (repository.Lead, error) {
	lead, previous, err := s.store.UpdateStatus(ctx, leadID, newStatus)
	if err != nil {
		return repository.Lead{}, err
	}

	s.publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		From:      string(previous),
		To:        string(newStatus),
	})

	return lead, nil
}

// Assign binds an unassigned lead to an agent and flips it to InProgress as
// one atomic unit against the store.
func (s *Service) Assign(ctx context.Context, leadID, agentID uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.AssignAndStart(ctx, leadID, agentID)
	if err != nil {
		return repository.Lead{}, err
	}

	s.publish(ctx, events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		NewAgent:  agentID,
		Reason:    "distribution",
	})

	s.notifyAgent(ctx, agentID,
		"New lead assigned",
		fmt.Sprintf("Lead %s (%s) has been assigned to you.", lead.Name, lead.Email))

	return lead, nil
}

// Reassign moves a stale InProgress lead to a new agent. The status stays
// InProgress; the agent swap and its timestamp land in the assignment history.
func (s *Service) Reassign(ctx context.Context, leadID, fromAgentID, toAgentID uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.Reassign(ctx, leadID, fromAgentID, toAgentID)
	if err != nil {
		return repository.Lead{}, err
	}

	s.publish(ctx, events.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		PreviousAgent: &fromAgentID,
		NewAgent:      toAgentID,
		Reason:        "staleness",
	})

	s.notifyAgent(ctx, toAgentID,
		"Lead reassigned to you",
		fmt.Sprintf("Lead %s (%s) went stale and has been reassigned to you.", lead.Name, lead.Email))

	return lead, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// notifyAgent dispatches without awaiting delivery confirmation; the store
// mutation has already committed. Failures are logged and swallowed.
func (s *Service) notifyAgent(ctx context.Context, agentID uuid.UUID, subject, body string) {
	if s.notifier == nil || s.contacts == nil {
		return
	}

	contact, err := s.contacts.GetContact(ctx, agentID)
	if err != nil {
		s.log.Warn("agent contact lookup failed", "agent_id", agentID, "error", err)
		return
	}

	delivered, err := s.notifier.Notify(ctx, ports.ChannelEmail, contact.Email, subject, body)
	if err != nil {
		s.log.NotifyFailure(string(ports.ChannelEmail), contact.Email, err)
		return
	}
	if !delivered {
		s.log.Warn("notification not delivered", "channel", string(ports.ChannelEmail), "destination", contact.Email)
	}
}
