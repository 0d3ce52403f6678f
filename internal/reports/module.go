package reports

import (
	apphttp "estateleads_backend/internal/http"
	"estateleads_backend/platform/httpkit"
	"estateleads_backend/platform/logger"
)

// Module is the reporting module implementing http.Module.
type Module struct {
	service *Service
	handler *Handler
}

// NewModule creates the reporting module. uploader may be nil when object
// storage is not configured.
func NewModule(db DB, uploader Uploader, log *logger.Logger) *Module {
	svc := NewService(New(db), uploader, log)
	return &Module{
		service: svc,
		handler: NewHandler(svc, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// Service returns the report service for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the report routes on the provided router context.
// Reports expose other agents' numbers, so they sit behind the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Protected.Group("", httpkit.RequireRole("admin"))
	m.handler.RegisterRoutes(admin)
}

var _ apphttp.Module = (*Module)(nil)
