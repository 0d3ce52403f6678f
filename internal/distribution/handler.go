package distribution

import (
	"net/http"
	"time"

	"estateleads_backend/platform/httpkit"
	"estateleads_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// runRequest optionally overrides the configured stale window for a manually
// triggered pass.
type runRequest struct {
	StaleWindowDays *int `json:"staleWindowDays" binding:"omitempty,min=1,max=90"`
}

type summaryResponse struct {
	Assigned   int      `json:"assigned"`
	Reassigned int      `json:"reassigned"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Handler exposes a manual trigger for a distribution pass, alongside the
// scheduled ones.
type Handler struct {
	svc         *Service
	staleWindow time.Duration
	log         *logger.Logger
}

func NewHandler(svc *Service, staleWindow time.Duration, log *logger.Logger) *Handler {
	return &Handler{svc: svc, staleWindow: staleWindow, log: log}
}

// RegisterRoutes mounts the distribution endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/distribution/run", h.run)
}

func (h *Handler) run(c *gin.Context) {
	// The body is optional; an empty POST runs with the configured window.
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	window := h.staleWindow
	if req.StaleWindowDays != nil {
		window = time.Duration(*req.StaleWindowDays) * 24 * time.Hour
	}

	sum, err := h.svc.RunPass(c.Request.Context(), window)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "distribution pass aborted", err.Error())
		return
	}

	resp := summaryResponse{
		Assigned:   sum.Assigned,
		Reassigned: sum.Reassigned,
		Skipped:    sum.Skipped,
	}
	for _, passErr := range sum.Errors {
		resp.Errors = append(resp.Errors, passErr.Error())
	}

	httpkit.OK(c, resp)
}
