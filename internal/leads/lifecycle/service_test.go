package lifecycle

import (
	"context"
	"errors"
	"testing"

	"estateleads_backend/internal/events"
	"estateleads_backend/internal/leads/domain"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	lead       repository.Lead
	prevStatus domain.Status
	err        error

	gotLeadID  uuid.UUID
	gotStatus  domain.Status
	gotAgentID uuid.UUID
	gotFrom    uuid.UUID
	gotTo      uuid.UUID
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, newStatus domain.Status) (repository.Lead, domain.Status, error) {
	f.gotLeadID = id
	f.gotStatus = newStatus
	if f.err != nil {
		return repository.Lead{}, "", f.err
	}
	return f.lead, f.prevStatus, nil
}

func (f *fakeStore) AssignAndStart(_ context.Context, leadID, agentID uuid.UUID) (repository.Lead, error) {
	f.gotLeadID = leadID
	f.gotAgentID = agentID
	if f.err != nil {
		return repository.Lead{}, f.err
	}
	return f.lead, nil
}

func (f *fakeStore) Reassign(_ context.Context, leadID, fromAgentID, toAgentID uuid.UUID) (repository.Lead, error) {
	f.gotLeadID = leadID
	f.gotFrom = fromAgentID
	f.gotTo = toAgentID
	if f.err != nil {
		return repository.Lead{}, f.err
	}
	return f.lead, nil
}

type fakeContacts struct {
	contact ports.AgentContact
	err     error
}

func (f *fakeContacts) GetContact(_ context.Context, id uuid.UUID) (ports.AgentContact, error) {
	if f.err != nil {
		return ports.AgentContact{}, f.err
	}
	c := f.contact
	c.ID = id
	return c, nil
}

type fakeNotifier struct {
	delivered bool
	err       error

	calls        int
	gotChannel   ports.Channel
	gotDest      string
	gotSubject   string
	gotBody      string
}

func (f *fakeNotifier) Notify(_ context.Context, channel ports.Channel, destination, subject, body string) (bool, error) {
	f.calls++
	f.gotChannel = channel
	f.gotDest = destination
	f.gotSubject = subject
	f.gotBody = body
	return f.delivered, f.err
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event)            { b.published = append(b.published, event) }
func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func testLead(id uuid.UUID) repository.Lead {
	return repository.Lead{
		ID:     id,
		Name:   "Nour Hassan",
		Email:  "nour.hassan@example.com",
		Status: domain.StatusInProgress,
	}
}

func TestTransitionPublishesStatusChange(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{lead: testLead(leadID), prevStatus: domain.StatusNew}
	bus := &captureBus{}
	svc := New(store, nil, nil, bus, logger.New("test"))

	lead, err := svc.Transition(context.Background(), leadID, domain.StatusInProgress)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if lead.ID != leadID {
		t.Errorf("lead ID = %s, want %s", lead.ID, leadID)
	}
	if store.gotStatus != domain.StatusInProgress {
		t.Errorf("store called with status %q, want %q", store.gotStatus, domain.StatusInProgress)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	ev, ok := bus.published[0].(events.LeadStatusChanged)
	if !ok {
		t.Fatalf("published event type = %T, want LeadStatusChanged", bus.published[0])
	}
	if ev.From != string(domain.StatusNew) || ev.To != string(domain.StatusInProgress) {
		t.Errorf("event edge = %q -> %q, want New -> InProgress", ev.From, ev.To)
	}
}

func TestTransitionIllegalEdgePassesThrough(t *testing.T) {
	illegal := domain.NewIllegalTransition(domain.StatusConverted, domain.StatusInProgress)
	store := &fakeStore{err: illegal}
	bus := &captureBus{}
	svc := New(store, nil, nil, bus, logger.New("test"))

	_, err := svc.Transition(context.Background(), uuid.New(), domain.StatusInProgress)

	var transitionErr *domain.IllegalTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Transition() error = %v, want IllegalTransitionError", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("published %d events on failed transition, want 0", len(bus.published))
	}
}

func TestAssignNotifiesAgent(t *testing.T) {
	leadID := uuid.New()
	agentID := uuid.New()
	store := &fakeStore{lead: testLead(leadID)}
	contacts := &fakeContacts{contact: ports.AgentContact{FullName: "Omar Farouk", Email: "omar@agency.example"}}
	notifier := &fakeNotifier{delivered: true}
	bus := &captureBus{}
	svc := New(store, contacts, notifier, bus, logger.New("test"))

	_, err := svc.Assign(context.Background(), leadID, agentID)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if notifier.calls != 1 {
		t.Fatalf("notifier called %d times, want 1", notifier.calls)
	}
	if notifier.gotChannel != ports.ChannelEmail {
		t.Errorf("notify channel = %q, want email", notifier.gotChannel)
	}
	if notifier.gotDest != "omar@agency.example" {
		t.Errorf("notify destination = %q, want agent email", notifier.gotDest)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	ev, ok := bus.published[0].(events.LeadAssigned)
	if !ok {
		t.Fatalf("published event type = %T, want LeadAssigned", bus.published[0])
	}
	if ev.NewAgent != agentID || ev.Reason != "distribution" {
		t.Errorf("event = agent %s reason %q, want %s / distribution", ev.NewAgent, ev.Reason, agentID)
	}
	if ev.PreviousAgent != nil {
		t.Errorf("PreviousAgent = %v, want nil on first assignment", ev.PreviousAgent)
	}
}

func TestAssignNotifierFailureDoesNotFailAssignment(t *testing.T) {
	store := &fakeStore{lead: testLead(uuid.New())}
	contacts := &fakeContacts{contact: ports.AgentContact{Email: "omar@agency.example"}}
	notifier := &fakeNotifier{err: errors.New("smtp: connection refused")}
	svc := New(store, contacts, notifier, &captureBus{}, logger.New("test"))

	_, err := svc.Assign(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Assign() error = %v, want nil when only notification fails", err)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.calls)
	}
}

func TestAssignStoreErrorSkipsSideEffects(t *testing.T) {
	store := &fakeStore{err: repository.ErrLeadTaken}
	notifier := &fakeNotifier{delivered: true}
	bus := &captureBus{}
	svc := New(store, &fakeContacts{}, notifier, bus, logger.New("test"))

	_, err := svc.Assign(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, repository.ErrLeadTaken) {
		t.Fatalf("Assign() error = %v, want ErrLeadTaken", err)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times after store failure, want 0", notifier.calls)
	}
	if len(bus.published) != 0 {
		t.Errorf("published %d events after store failure, want 0", len(bus.published))
	}
}

func TestReassignRecordsPreviousAgent(t *testing.T) {
	leadID := uuid.New()
	fromAgent := uuid.New()
	toAgent := uuid.New()
	store := &fakeStore{lead: testLead(leadID)}
	contacts := &fakeContacts{contact: ports.AgentContact{Email: "sara@agency.example"}}
	notifier := &fakeNotifier{delivered: true}
	bus := &captureBus{}
	svc := New(store, contacts, notifier, bus, logger.New("test"))

	_, err := svc.Reassign(context.Background(), leadID, fromAgent, toAgent)
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if store.gotFrom != fromAgent || store.gotTo != toAgent {
		t.Errorf("store swap = %s -> %s, want %s -> %s", store.gotFrom, store.gotTo, fromAgent, toAgent)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	ev := bus.published[0].(events.LeadAssigned)
	if ev.PreviousAgent == nil || *ev.PreviousAgent != fromAgent {
		t.Errorf("PreviousAgent = %v, want %s", ev.PreviousAgent, fromAgent)
	}
	if ev.Reason != "staleness" {
		t.Errorf("reason = %q, want staleness", ev.Reason)
	}
}
