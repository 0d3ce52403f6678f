package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estateleads_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lead does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicateLead is returned when a lead with the same (email, campaign)
	// pair already exists.
	ErrDuplicateLead = errors.New("a lead with this email already exists for this campaign")
	// ErrCampaignQuotaExceeded is returned when the email is already present in
	// the maximum number of distinct campaigns.
	ErrCampaignQuotaExceeded = errors.New("this email already appears in the maximum number of campaigns")
	// ErrLeadTaken is returned when a guarded update finds the lead in a
	// different state than expected, typically because a concurrent
	// distribution pass got there first.
	ErrLeadTaken = errors.New("lead was modified concurrently")
)

// maxCampaignsPerEmail caps how many distinct campaigns may hold a lead for
// the same email address, system-wide.
const maxCampaignsPerEmail = 3

const leadColumns = `id, campaign_id, name, email, phone, assigned_agent_id, status, score, created_at, updated_at`

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool in production and by pgxmock in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the durable lead store. All multi-step mutations run inside a
// transaction so each lead operation is a single atomic unit.
type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// Lead is the persisted lead record.
type Lead struct {
	ID              uuid.UUID
	CampaignID      uuid.UUID
	Name            string
	Email           string
	Phone           *string
	AssignedAgentID *uuid.UUID
	Status          domain.Status
	Score           *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Assignment is one entry of a lead's assignment history.
type Assignment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	FromAgentID *uuid.UUID
	ToAgentID   uuid.UUID
	Reason      string
	AssignedAt  time.Time
}

// CreateLeadParams carries normalized intake data. Normalization (name
// whitespace, email casing, phone digits) happens in the service layer.
type CreateLeadParams struct {
	CampaignID uuid.UUID
	Name       string
	Email      string
	Phone      *string
}

// Create inserts a new lead with status New and no score. It enforces the
// (email, campaign) uniqueness and the per-email campaign quota inside one
// transaction.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize creates per email for the quota count below; without the
	// lock two concurrent inserts can both read an under-quota count.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, params.Email); err != nil {
		return Lead{}, err
	}

	var campaignCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(DISTINCT campaign_id)
		FROM leads
		WHERE email = $1 AND campaign_id <> $2
	`, params.Email, params.CampaignID).Scan(&campaignCount)
	if err != nil {
		return Lead{}, err
	}
	if campaignCount >= maxCampaignsPerEmail {
		return Lead{}, ErrCampaignQuotaExceeded
	}

	var lead Lead
	err = tx.QueryRow(ctx, `
		INSERT INTO leads (campaign_id, name, email, phone, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+leadColumns+`
	`, params.CampaignID, params.Name, params.Email, params.Phone, domain.StatusNew).Scan(
		&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, ErrDuplicateLead
		}
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.db.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id).Scan(
		&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// ListParams filters the lead listing.
type ListParams struct {
	Status     *domain.Status
	CampaignID *uuid.UUID
	AgentID    *uuid.UUID
	Search     string
	Page       int
	PageSize   int
}

// List returns a page of leads newest-first plus the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 6)

	addArg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Status != nil {
		where = append(where, "status = "+addArg(*params.Status))
	}
	if params.CampaignID != nil {
		where = append(where, "campaign_id = "+addArg(*params.CampaignID))
	}
	if params.AgentID != nil {
		where = append(where, "assigned_agent_id = "+addArg(*params.AgentID))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		ph := addArg("%" + search + "%")
		where = append(where, "(name ILIKE "+ph+" OR email ILIKE "+ph+" OR phone ILIKE "+ph+")")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM leads"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	limitPh := addArg(pageSize)
	offsetPh := addArg((page - 1) * pageSize)

	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads`+clause+`
		ORDER BY created_at DESC
		LIMIT `+limitPh+` OFFSET `+offsetPh, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// FindUnassigned returns up to limit leads with status New and no agent,
// highest score first, oldest first on ties. Assigned leads drop out of the
// predicate, so repeated calls page through the remaining set.
func (r *Repository) FindUnassigned(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1 AND assigned_agent_id IS NULL
		ORDER BY score DESC NULLS LAST, created_at ASC
		LIMIT $2
	`, domain.StatusNew, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

// FindStale returns InProgress leads not updated since the cutoff.
func (r *Repository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`, domain.StatusInProgress, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

// UpdateStatus moves a lead along the state machine, recording the edge in
// the status history, and reports the status the lead moved from. Illegal
// edges fail with a domain.IllegalTransitionError.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.Status) (Lead, domain.Status, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, "", ErrNotFound
	}
	if err != nil {
		return Lead{}, "", err
	}

	if !domain.CanTransition(current, newStatus) {
		return Lead{}, "", domain.NewIllegalTransition(current, newStatus)
	}

	var lead Lead
	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, newStatus).Scan(
		&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status)
		VALUES ($1, $2, $3)
	`, id, current, newStatus)
	if err != nil {
		return Lead{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, "", err
	}
	return lead, current, nil
}

// AssignAndStart binds an unassigned New lead to an agent and flips it to
// InProgress as one atomic unit. The guarded UPDATE acts as the
// optimistic-concurrency check: a lead already taken by a concurrent pass
// yields ErrLeadTaken and no partial state.
func (r *Repository) AssignAndStart(ctx context.Context, leadID, agentID uuid.UUID) (Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET assigned_agent_id = $2, status = $3, updated_at = now()
		WHERE id = $1 AND status = $4 AND assigned_agent_id IS NULL
		RETURNING `+leadColumns+`
	`, leadID, agentID, domain.StatusInProgress, domain.StatusNew).Scan(
		&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, r.classifyMiss(ctx, tx, leadID)
	}
	if err != nil {
		return Lead{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_assignments (lead_id, from_agent_id, to_agent_id, reason)
		VALUES ($1, NULL, $2, 'distribution')
	`, leadID, agentID)
	if err != nil {
		return Lead{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status)
		VALUES ($1, $2, $3)
	`, leadID, domain.StatusNew, domain.StatusInProgress)
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// Reassign moves a stale InProgress lead from one agent to another. Status is
// untouched; the swap is recorded in the assignment history and bumps
// updated_at, restarting the staleness clock under the new agent.
func (r *Repository) Reassign(ctx context.Context, leadID, fromAgentID, toAgentID uuid.UUID) (Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET assigned_agent_id = $3, updated_at = now()
		WHERE id = $1 AND status = $4 AND assigned_agent_id = $2
		RETURNING `+leadColumns+`
	`, leadID, fromAgentID, toAgentID, domain.StatusInProgress).Scan(
		&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, r.classifyMiss(ctx, tx, leadID)
	}
	if err != nil {
		return Lead{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_assignments (lead_id, from_agent_id, to_agent_id, reason)
		VALUES ($1, $2, $3, 'staleness')
	`, leadID, fromAgentID, toAgentID)
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// SetScore persists the computed priority score for a lead.
func (r *Repository) SetScore(ctx context.Context, id uuid.UUID, score int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads
		SET score = $2, updated_at = now()
		WHERE id = $1
	`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAssignments returns the full assignment history of a lead, oldest first.
func (r *Repository) ListAssignments(ctx context.Context, leadID uuid.UUID) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, from_agent_id, to_agent_id, reason, assigned_at
		FROM lead_assignments
		WHERE lead_id = $1
		ORDER BY assigned_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		var item Assignment
		if err := rows.Scan(&item.ID, &item.LeadID, &item.FromAgentID, &item.ToAgentID, &item.Reason, &item.AssignedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// classifyMiss distinguishes a genuinely missing lead from one whose guarded
// update lost a race.
func (r *Repository) classifyMiss(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, leadID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrLeadTaken
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.CampaignID, &lead.Name, &lead.Email, &lead.Phone,
			&lead.AssignedAgentID, &lead.Status, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
