package agents

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestListActiveScansSnapshots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	agentA := uuid.New()
	agentB := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM agents a")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "open_count", "conversion_rate"}).
			AddRow(agentA, 3, 0.25).
			AddRow(agentB, 0, 0.0))

	repo := New(mock)
	agents, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(agents))
	}
	if agents[0].ID != agentA || agents[0].OpenLeadCount != 3 || agents[0].ConversionRate != 0.25 {
		t.Errorf("first snapshot = %+v", agents[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetContactNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email FROM agents WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := New(mock)
	_, err = repo.GetContact(context.Background(), id)
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("GetContact() error = %v, want ErrAgentNotFound", err)
	}
}
