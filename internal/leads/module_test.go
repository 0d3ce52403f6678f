package leads

import (
	"context"
	"testing"

	"estateleads_backend/internal/events"
	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingBus struct {
	handlers map[string]events.Handler
}

func (b *recordingBus) Publish(context.Context, events.Event) {}

func (b *recordingBus) PublishSync(context.Context, events.Event) error { return nil }

func (b *recordingBus) Subscribe(name string, h events.Handler) {
	b.handlers[name] = h
}

func TestRegisterHandlersCoversAllLeadEvents(t *testing.T) {
	bus := &recordingBus{handlers: make(map[string]events.Handler)}
	m := &Module{log: logger.New("test")}

	m.RegisterHandlers(bus)

	agent := uuid.New()
	deliveries := []events.Event{
		events.LeadCreated{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), CampaignID: uuid.New(), Email: "lead@example.com", Score: 70},
		events.LeadAssigned{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), NewAgent: agent, Reason: "distribution"},
		events.LeadAssigned{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), PreviousAgent: &agent, NewAgent: uuid.New(), Reason: "staleness"},
		events.LeadStatusChanged{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), From: "New", To: "Closed"},
	}
	for _, ev := range deliveries {
		h, ok := bus.handlers[ev.EventName()]
		if !ok {
			t.Fatalf("no subscription for %s", ev.EventName())
		}
		if err := h.Handle(context.Background(), ev); err != nil {
			t.Fatalf("Handle(%s) error = %v", ev.EventName(), err)
		}
	}
}
