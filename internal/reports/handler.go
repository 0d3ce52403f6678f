package reports

import (
	"net/http"
	"time"

	"estateleads_backend/platform/httpkit"
	"estateleads_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type performanceRowResponse struct {
	AgentID        uuid.UUID  `json:"agentId"`
	AgentName      string     `json:"agentName"`
	AssignedTotal  int        `json:"assignedTotal"`
	OpenCount      int        `json:"openCount"`
	ClosedCount    int        `json:"closedCount"`
	ConvertedCount int        `json:"convertedCount"`
	ConversionRate float64    `json:"conversionRate"`
	LastAssignedAt *time.Time `json:"lastAssignedAt,omitempty"`
	Insight        string     `json:"insight"`
	LowActivity    bool       `json:"lowActivity"`
}

type performanceReportResponse struct {
	GeneratedAt         time.Time                `json:"generatedAt"`
	FleetConversionRate float64                  `json:"fleetConversionRate"`
	Agents              []performanceRowResponse `json:"agents"`
}

type Handler struct {
	svc *Service
	log *logger.Logger
}

func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the report endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/agent-performance", h.agentPerformance)
}

// agentPerformance serves JSON by default; ?format=xlsx returns the workbook
// and, when object storage is configured, a download URL via header.
func (h *Handler) agentPerformance(c *gin.Context) {
	if c.Query("format") == "xlsx" {
		h.agentPerformanceXLSX(c)
		return
	}

	rows, err := h.svc.Build(c.Request.Context())
	if err != nil {
		h.log.Error("failed to build performance report", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to build report", nil)
		return
	}

	resp := performanceReportResponse{
		GeneratedAt:         time.Now().UTC(),
		FleetConversionRate: FleetConversionRate(rows),
		Agents:              make([]performanceRowResponse, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Agents = append(resp.Agents, performanceRowResponse{
			AgentID:        row.AgentID,
			AgentName:      row.AgentName,
			AssignedTotal:  row.AssignedTotal,
			OpenCount:      row.OpenCount,
			ClosedCount:    row.ClosedCount,
			ConvertedCount: row.ConvertedCount,
			ConversionRate: row.ConversionRate,
			LastAssignedAt: row.LastAssignedAt,
			Insight:        row.Insight,
			LowActivity:    row.LowActivity,
		})
	}

	httpkit.OK(c, resp)
}

func (h *Handler) agentPerformanceXLSX(c *gin.Context) {
	content, downloadURL, err := h.svc.ExportXLSX(c.Request.Context())
	if err != nil {
		h.log.Error("failed to export performance report", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to export report", nil)
		return
	}

	if downloadURL != "" {
		c.Header("X-Report-Download-URL", downloadURL)
	}
	c.Header("Content-Disposition", `attachment; filename="agent-performance.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, content)
}
