package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amirb101/three-sided-sub001/internal/database"
)

func newPublisherRepo(t *testing.T) (*database.PublisherRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewPublisherRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestPublisherRepository_ListActive(t *testing.T) {
	repo, mock, cleanup := newPublisherRepo(t)
	defer cleanup()

	created := time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)
	columns := []string{"id", "display_name", "is_active", "post_count", "created_at"}

	mock.ExpectQuery("SELECT (.+) FROM publishers WHERE is_active = TRUE").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.New().String(), "eulers-ghost", true, int64(41), created).
			AddRow(uuid.New().String(), "gauss-prime", true, int64(17), created))

	publishers, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(publishers) != 2 {
		t.Fatalf("ListActive() returned %d publishers, want 2", len(publishers))
	}
	if publishers[0].DisplayName != "eulers-ghost" || publishers[0].PostCount != 41 {
		t.Errorf("ListActive()[0] = %+v, want eulers-ghost with 41 posts", publishers[0])
	}
	if !publishers[1].IsActive {
		t.Error("ListActive()[1].IsActive = false, want true")
	}

	expectationsMet(t, mock)
}

func TestPublisherRepository_ListActiveEmpty(t *testing.T) {
	repo, mock, cleanup := newPublisherRepo(t)
	defer cleanup()

	columns := []string{"id", "display_name", "is_active", "post_count", "created_at"}

	mock.ExpectQuery("SELECT (.+) FROM publishers WHERE is_active = TRUE").
		WillReturnRows(sqlmock.NewRows(columns))

	publishers, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(publishers) != 0 {
		t.Errorf("ListActive() returned %d publishers, want none", len(publishers))
	}

	expectationsMet(t, mock)
}
