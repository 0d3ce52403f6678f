package distribution

import (
	"time"

	apphttp "estateleads_backend/internal/http"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/scoring"
	"estateleads_backend/platform/config"
	"estateleads_backend/platform/httpkit"
	"estateleads_backend/platform/logger"
)

// Module is the distribution module implementing http.Module. It owns the
// pass service and the manual trigger endpoint; the scheduled trigger lives
// in the scheduler binary.
type Module struct {
	service *Service
	handler *Handler
}

func NewModule(
	store LeadSource,
	selector AgentSelector,
	lc Lifecycle,
	engine *scoring.Engine,
	campaigns ports.CampaignDirectory,
	cfg config.DistributionConfig,
	log *logger.Logger,
) *Module {
	svc := New(store, selector, lc, engine, campaigns, cfg.GetDistributionBatchSize(), log)
	staleWindow := time.Duration(cfg.GetStaleWindowDays()) * 24 * time.Hour

	return &Module{
		service: svc,
		handler: NewHandler(svc, staleWindow, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "distribution"
}

// Service returns the pass service for the scheduler worker.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the distribution routes on the provided router
// context. Triggering a pass is an operator action, so the routes sit behind
// the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Protected.Group("", httpkit.RequireRole("admin"))
	m.handler.RegisterRoutes(admin)
}

var _ apphttp.Module = (*Module)(nil)
