// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"estateleads_backend/internal/leads/domain"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/internal/leads/service"
	"estateleads_backend/internal/leads/transport"
	"estateleads_backend/platform/httpkit"
	"estateleads_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	log *logger.Logger
}

func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the leads endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	leads := rg.Group("/leads")
	leads.POST("", h.create)
	leads.GET("", h.list)
	leads.GET("/:id", h.get)
	leads.PATCH("/:id/status", h.updateStatus)
}

func (h *Handler) create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), service.CreateLeadInput{
		CampaignID: req.CampaignID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.NewLeadResponse(lead))
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	detail, err := h.svc.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewLeadDetailResponse(detail.Lead, detail.Assignments))
}

func (h *Handler) list(c *gin.Context) {
	params, ok := h.parseListParams(c)
	if !ok {
		return
	}

	leads, total, err := h.svc.ListLeads(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, transport.NewLeadResponse(lead))
	}

	httpkit.OK(c, transport.ListLeadsResponse{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.svc.TransitionStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) parseListParams(c *gin.Context) (repository.ListParams, bool) {
	params := repository.ListParams{
		Search:   c.Query("search"),
		Page:     1,
		PageSize: 50,
	}

	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, "unknown status filter", raw)
			return params, false
		}
		params.Status = &status
	}
	if raw := c.Query("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid campaignId filter", nil)
			return params, false
		}
		params.CampaignID = &id
	}
	if raw := c.Query("agentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid agentId filter", nil)
			return params, false
		}
		params.AgentID = &id
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			params.Page = page
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 && size <= 200 {
			params.PageSize = size
		}
	}

	return params, true
}
