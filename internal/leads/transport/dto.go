// Package transport defines the wire DTOs of the leads HTTP API.
package transport

import (
	"time"

	"estateleads_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest is the intake payload. Normalization happens server-side;
// clients may send the name and email in any casing or spacing.
type CreateLeadRequest struct {
	CampaignID uuid.UUID `json:"campaignId" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Email      string    `json:"email" binding:"required"`
	Phone      string    `json:"phone"`
}

// UpdateStatusRequest requests a lifecycle transition.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LeadResponse is the public shape of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	CampaignID      uuid.UUID  `json:"campaignId"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone,omitempty"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	Status          string     `json:"status"`
	Score           *int       `json:"score,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewLeadResponse maps a stored lead to its wire shape.
func NewLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		CampaignID:      lead.CampaignID,
		Name:            lead.Name,
		Email:           lead.Email,
		Phone:           lead.Phone,
		AssignedAgentID: lead.AssignedAgentID,
		Status:          string(lead.Status),
		Score:           lead.Score,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// AssignmentResponse is one assignment history entry.
type AssignmentResponse struct {
	FromAgentID *uuid.UUID `json:"fromAgentId,omitempty"`
	ToAgentID   uuid.UUID  `json:"toAgentId"`
	Reason      string     `json:"reason"`
	AssignedAt  time.Time  `json:"assignedAt"`
}

// LeadDetailResponse is a lead plus its assignment history.
type LeadDetailResponse struct {
	LeadResponse
	Assignments []AssignmentResponse `json:"assignments"`
}

// NewLeadDetailResponse maps a lead and its history to the wire shape.
func NewLeadDetailResponse(lead repository.Lead, assignments []repository.Assignment) LeadDetailResponse {
	out := LeadDetailResponse{
		LeadResponse: NewLeadResponse(lead),
		Assignments:  make([]AssignmentResponse, 0, len(assignments)),
	}
	for _, a := range assignments {
		out.Assignments = append(out.Assignments, AssignmentResponse{
			FromAgentID: a.FromAgentID,
			ToAgentID:   a.ToAgentID,
			Reason:      a.Reason,
			AssignedAt:  a.AssignedAt,
		})
	}
	return out
}

// ListLeadsResponse is a page of leads.
type ListLeadsResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
