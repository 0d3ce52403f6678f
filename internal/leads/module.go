// Package leads provides the lead management bounded context module.
package leads

import (
	"context"
	"log/slog"

	"estateleads_backend/internal/events"
	apphttp "estateleads_backend/internal/http"
	"estateleads_backend/internal/leads/assignment"
	"estateleads_backend/internal/leads/handler"
	"estateleads_backend/internal/leads/lifecycle"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/internal/leads/scoring"
	"estateleads_backend/internal/leads/service"
	"estateleads_backend/platform/config"
	"estateleads_backend/platform/logger"
	"estateleads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig is the config surface the leads module needs.
type ModuleConfig interface {
	config.ScoringConfig
	config.PhoneConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	lifecycle *lifecycle.Service
	policy    *assignment.Policy
	engine    *scoring.Engine
	repo      *repository.Repository
	log       *logger.Logger
}

// NewModule creates and initializes the leads module. The agent and campaign
// directories and the notifier are owned by their modules and injected here.
func NewModule(
	pool *pgxpool.Pool,
	campaigns ports.CampaignDirectory,
	agents ports.AgentDirectory,
	contacts ports.AgentContactReader,
	notifier ports.Notifier,
	bus events.Bus,
	val *validator.Validator,
	cfg ModuleConfig,
	log *logger.Logger,
) (*Module, error) {
	weights, err := scoring.LoadWeights(cfg.GetScoreWeightsPath())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	engine := scoring.New(weights)
	policy := assignment.New(agents)
	lc := lifecycle.New(repo, contacts, notifier, bus, log)
	svc := service.New(repo, lc, engine, campaigns, bus, val, cfg.GetPhoneDefaultRegion(), log)

	return &Module{
		handler:   handler.New(svc, log),
		service:   svc,
		lifecycle: lc,
		policy:    policy,
		engine:    engine,
		repo:      repo,
		log:       log,
	}, nil
}

// RegisterHandlers subscribes to lead events for the audit log.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)
}

// Handle routes lead events into the structured audit log.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		m.log.LeadEvent("created", e.LeadID.String(),
			slog.String("campaign_id", e.CampaignID.String()),
			slog.Int("score", e.Score))
	case events.LeadAssigned:
		attrs := []slog.Attr{
			slog.String("agent_id", e.NewAgent.String()),
			slog.String("reason", e.Reason),
		}
		if e.PreviousAgent != nil {
			attrs = append(attrs, slog.String("previous_agent_id", e.PreviousAgent.String()))
		}
		m.log.LeadEvent("assigned", e.LeadID.String(), attrs...)
	case events.LeadStatusChanged:
		m.log.LeadEvent("status_changed", e.LeadID.String(),
			slog.String("from", e.From),
			slog.String("to", e.To))
	}
	return nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Lifecycle returns the lifecycle controller for the distribution pass.
func (m *Module) Lifecycle() *lifecycle.Service {
	return m.lifecycle
}

// Policy returns the assignment policy for the distribution pass.
func (m *Module) Policy() *assignment.Policy {
	return m.policy
}

// Engine returns the scoring engine for the distribution pass.
func (m *Module) Engine() *scoring.Engine {
	return m.engine
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
