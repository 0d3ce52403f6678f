// Package service is the application facade of the leads module: intake
// normalization and validation, reads, and the lifecycle entry point the
// HTTP layer talks to. Storage guards (dedupe, quota, transitions) live in
// the repository; this layer translates them into API-facing errors.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"estateleads_backend/internal/events"
	"estateleads_backend/internal/leads/domain"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/internal/leads/scoring"
	"estateleads_backend/platform/apperr"
	"estateleads_backend/platform/logger"
	"estateleads_backend/platform/phone"
	"estateleads_backend/platform/validator"

	"github.com/google/uuid"
)

// Lifecycle is the subset of the lifecycle controller the facade delegates to.
type Lifecycle interface {
	Transition(ctx context.Context, leadID uuid.UUID, newStatus domain.Status) (repository.Lead, error)
}

// Service exposes the leads module's application operations.
type Service struct {
	repo        repository.LeadStore
	lifecycle   Lifecycle
	engine      *scoring.Engine
	campaigns   ports.CampaignDirectory
	bus         events.Bus
	validate    *validator.Validator
	phoneRegion string
	log         *logger.Logger
}

func New(repo repository.LeadStore, lc Lifecycle, engine *scoring.Engine, campaigns ports.CampaignDirectory, bus events.Bus, validate *validator.Validator, phoneRegion string, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		lifecycle:   lc,
		engine:      engine,
		campaigns:   campaigns,
		bus:         bus,
		validate:    validate,
		phoneRegion: phoneRegion,
		log:         log,
	}
}

// CreateLeadInput carries raw intake data as received from the outside.
type CreateLeadInput struct {
	CampaignID uuid.UUID
	Name       string
	Email      string
	Phone      string
}

// LeadDetail is a lead plus its assignment history.
type LeadDetail struct {
	Lead        repository.Lead
	Assignments []repository.Assignment
}

// CreateLead normalizes, validates, persists and scores a new lead. The
// persisted row always starts as New and unassigned; only the distribution
// pass hands leads out.
func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	name := strings.Join(strings.Fields(input.Name), " ")
	if name == "" {
		return repository.Lead{}, apperr.New(apperr.KindValidation, "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return repository.Lead{}, apperr.New(apperr.KindValidation, "a valid email address is required")
	}

	var phonePtr *string
	if strings.TrimSpace(input.Phone) != "" {
		digits, ok := phone.NormalizeDigits(input.Phone, s.phoneRegion)
		if !ok {
			return repository.Lead{}, apperr.New(apperr.KindValidation, "phone number is not valid")
		}
		phonePtr = &digits
	}

	campaign, found, err := s.campaigns.Get(ctx, input.CampaignID)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "campaign lookup failed", err)
	}
	if !found {
		return repository.Lead{}, apperr.New(apperr.KindNotFound, "campaign not found")
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		CampaignID: input.CampaignID,
		Name:       name,
		Email:      email,
		Phone:      phonePtr,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateLead):
		return repository.Lead{}, apperr.New(apperr.KindConflict, "this email was already captured for this campaign")
	case errors.Is(err, repository.ErrCampaignQuotaExceeded):
		return repository.Lead{}, apperr.New(apperr.KindConflict, "this email has reached the campaign limit")
	case err != nil:
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	lead = s.scoreNewLead(ctx, lead, campaign)

	if s.bus != nil {
		score := 0
		if lead.Score != nil {
			score = *lead.Score
		}
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			CampaignID: lead.CampaignID,
			Email:      lead.Email,
			Score:      score,
		})
	}

	return lead, nil
}

// scoreNewLead computes and persists the intake score. A failure here leaves
// the lead unscored for the next distribution pass to backfill.
func (s *Service) scoreNewLead(ctx context.Context, lead repository.Lead, campaign ports.CampaignSnapshot) repository.Lead {
	sig := scoring.Signals{
		Name:            lead.Name,
		Email:           lead.Email,
		CampaignActive:  campaign.Active,
		CampaignAgeDays: int(time.Since(campaign.StartedAt).Hours() / 24),
	}
	if lead.Phone != nil {
		sig.Phone = *lead.Phone
	}

	score := s.engine.Score(sig)
	if err := s.repo.SetScore(ctx, lead.ID, score); err != nil {
		s.log.Warn("failed to persist lead score", "lead_id", lead.ID, "error", err)
		return lead
	}
	lead.Score = &score
	return lead
}

// GetLead returns a lead with its assignment history.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (LeadDetail, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return LeadDetail{}, apperr.New(apperr.KindNotFound, "lead not found")
	}
	if err != nil {
		return LeadDetail{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	assignments, err := s.repo.ListAssignments(ctx, id)
	if err != nil {
		return LeadDetail{}, apperr.Wrap(apperr.KindInternal, "failed to load assignment history", err)
	}

	return LeadDetail{Lead: lead, Assignments: assignments}, nil
}

// ListLeads returns a filtered page of leads plus the total match count.
func (s *Service) ListLeads(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 200 {
		params.PageSize = 50
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, total, nil
}

// TransitionStatus validates the requested status string and delegates the
// edge check to the lifecycle controller.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, rawStatus string) (repository.Lead, error) {
	status, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return repository.Lead{}, apperr.New(apperr.KindValidation, "unknown lead status").WithDetails(rawStatus)
	}

	lead, err := s.lifecycle.Transition(ctx, id, status)

	var transitionErr *domain.IllegalTransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return repository.Lead{}, apperr.New(apperr.KindNotFound, "lead not found")
	case errors.As(err, &transitionErr):
		return repository.Lead{}, apperr.New(apperr.KindConflict, transitionErr.Error())
	case err != nil:
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
	}

	return lead, nil
}
