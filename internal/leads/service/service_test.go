package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"estateleads_backend/internal/events"
	"estateleads_backend/internal/leads/domain"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/leads/repository"
	"estateleads_backend/internal/leads/scoring"
	"estateleads_backend/platform/apperr"
	"estateleads_backend/platform/logger"
	"estateleads_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeRepo struct {
	created    *repository.CreateLeadParams
	createErr  error
	lead       repository.Lead
	getErr     error
	setScoreID uuid.UUID
	setScore   int
	scoreErr   error
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.created = &params
	if f.createErr != nil {
		return repository.Lead{}, f.createErr
	}
	return repository.Lead{
		ID:         uuid.New(),
		CampaignID: params.CampaignID,
		Name:       params.Name,
		Email:      params.Email,
		Phone:      params.Phone,
		Status:     domain.StatusNew,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

func (f *fakeRepo) SetScore(_ context.Context, id uuid.UUID, score int) error {
	if f.scoreErr != nil {
		return f.scoreErr
	}
	f.setScoreID = id
	f.setScore = score
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	if f.getErr != nil {
		return repository.Lead{}, f.getErr
	}
	lead := f.lead
	lead.ID = id
	return lead, nil
}

func (f *fakeRepo) List(context.Context, repository.ListParams) ([]repository.Lead, int, error) {
	return []repository.Lead{f.lead}, 1, nil
}

func (f *fakeRepo) ListAssignments(context.Context, uuid.UUID) ([]repository.Assignment, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateStatus(context.Context, uuid.UUID, domain.Status) (repository.Lead, domain.Status, error) {
	return repository.Lead{}, "", errors.New("not used")
}

func (f *fakeRepo) AssignAndStart(context.Context, uuid.UUID, uuid.UUID) (repository.Lead, error) {
	return repository.Lead{}, errors.New("not used")
}

func (f *fakeRepo) Reassign(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (repository.Lead, error) {
	return repository.Lead{}, errors.New("not used")
}

func (f *fakeRepo) FindUnassigned(context.Context, int) ([]repository.Lead, error) {
	return nil, nil
}

func (f *fakeRepo) FindStale(context.Context, time.Time, int) ([]repository.Lead, error) {
	return nil, nil
}

type fakeLifecycle struct {
	lead repository.Lead
	err  error

	gotStatus domain.Status
}

func (f *fakeLifecycle) Transition(_ context.Context, _ uuid.UUID, newStatus domain.Status) (repository.Lead, error) {
	f.gotStatus = newStatus
	if f.err != nil {
		return repository.Lead{}, f.err
	}
	return f.lead, nil
}

type staticCampaigns struct {
	snapshot ports.CampaignSnapshot
	known    bool
	err      error
}

func (s *staticCampaigns) Get(context.Context, uuid.UUID) (ports.CampaignSnapshot, bool, error) {
	return s.snapshot, s.known, s.err
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo, lc *fakeLifecycle, campaigns *staticCampaigns, bus *captureBus) *Service {
	engine := scoring.New(scoring.DefaultWeights())
	return New(repo, lc, engine, campaigns, bus, validator.New(), "EG", logger.New("test"))
}

func activeCampaign() *staticCampaigns {
	return &staticCampaigns{
		snapshot: ports.CampaignSnapshot{Active: true, StartedAt: time.Now().AddDate(0, 0, -5)},
		known:    true,
	}
}

func TestCreateLeadNormalizesInput(t *testing.T) {
	repo := &fakeRepo{}
	bus := &captureBus{}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), bus)

	lead, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(),
		Name:       "  Ahmed   Samir ",
		Email:      " Ahmed.Samir@Example.COM ",
		Phone:      "+20 100 123 4567",
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}

	if repo.created.Name != "Ahmed Samir" {
		t.Errorf("stored name = %q, want collapsed whitespace", repo.created.Name)
	}
	if repo.created.Email != "ahmed.samir@example.com" {
		t.Errorf("stored email = %q, want lowercased", repo.created.Email)
	}
	if repo.created.Phone == nil || *repo.created.Phone != "201001234567" {
		t.Errorf("stored phone = %v, want normalized digits 201001234567", repo.created.Phone)
	}

	if lead.Score == nil {
		t.Fatal("lead returned without a score")
	}
	if *lead.Score != repo.setScore {
		t.Errorf("returned score %d != persisted score %d", *lead.Score, repo.setScore)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if _, ok := bus.published[0].(events.LeadCreated); !ok {
		t.Errorf("published event type = %T, want LeadCreated", bus.published[0])
	}
}

func TestCreateLeadValidation(t *testing.T) {
	cases := []struct {
		name  string
		input CreateLeadInput
	}{
		{"blank name", CreateLeadInput{CampaignID: uuid.New(), Name: "   ", Email: "a@b.com"}},
		{"bad email", CreateLeadInput{CampaignID: uuid.New(), Name: "Ahmed", Email: "not-an-email"}},
		{"bad phone", CreateLeadInput{CampaignID: uuid.New(), Name: "Ahmed", Email: "a@b.com", Phone: "12"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

			_, err := svc.CreateLead(context.Background(), tc.input)
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Fatalf("error kind = %v (%v), want validation", apperr.GetKind(err), err)
			}
			if repo.created != nil {
				t.Error("repository was called despite invalid input")
			}
		})
	}
}

func TestCreateLeadUnknownCampaign(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeLifecycle{}, &staticCampaigns{known: false}, &captureBus{})

	_, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(), Name: "Ahmed Samir", Email: "a@b.com",
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("error kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestCreateLeadDuplicateMapsToConflict(t *testing.T) {
	repo := &fakeRepo{createErr: repository.ErrDuplicateLead}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	_, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(), Name: "Ahmed Samir", Email: "a@b.com",
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestCreateLeadQuotaMapsToConflict(t *testing.T) {
	repo := &fakeRepo{createErr: repository.ErrCampaignQuotaExceeded}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	_, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(), Name: "Ahmed Samir", Email: "a@b.com",
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestCreateLeadWithoutPhoneSucceeds(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	_, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(), Name: "Ahmed Samir", Email: "a@b.com",
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if repo.created.Phone != nil {
		t.Errorf("stored phone = %v, want nil for omitted phone", repo.created.Phone)
	}
}

func TestCreateLeadScorePersistFailureStillReturnsLead(t *testing.T) {
	repo := &fakeRepo{scoreErr: errors.New("db down")}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	lead, err := svc.CreateLead(context.Background(), CreateLeadInput{
		CampaignID: uuid.New(), Name: "Ahmed Samir", Email: "a@b.com",
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v, want scoring failure swallowed", err)
	}
	if lead.Score != nil {
		t.Error("lead carries a score the store never accepted")
	}
}

func TestTransitionStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), "Archived")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error kind = %v, want validation for unknown status", apperr.GetKind(err))
	}
}

func TestTransitionStatusIllegalEdgeMapsToConflict(t *testing.T) {
	lc := &fakeLifecycle{err: domain.NewIllegalTransition(domain.StatusClosed, domain.StatusInProgress)}
	svc := newTestService(&fakeRepo{}, lc, activeCampaign(), &captureBus{})

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), string(domain.StatusInProgress))
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v, want conflict for illegal edge", apperr.GetKind(err))
	}
}

func TestTransitionStatusNotFound(t *testing.T) {
	lc := &fakeLifecycle{err: repository.ErrNotFound}
	svc := newTestService(&fakeRepo{}, lc, activeCampaign(), &captureBus{})

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), string(domain.StatusClosed))
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("error kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestGetLeadNotFound(t *testing.T) {
	repo := &fakeRepo{getErr: repository.ErrNotFound}
	svc := newTestService(repo, &fakeLifecycle{}, activeCampaign(), &captureBus{})

	_, err := svc.GetLead(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("error kind = %v, want not found", apperr.GetKind(err))
	}
}
