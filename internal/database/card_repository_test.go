package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/amirb101/three-sided-sub001/internal/database"
	"github.com/amirb101/three-sided-sub001/internal/domain"
)

func newCardRepo(t *testing.T) (*database.CardRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewCardRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestCardRepository_Exists(t *testing.T) {
	repo, mock, cleanup := newCardRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("cauchy-sequences-converge").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("cauchy-sequences-converge-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.Exists(context.Background(), "cauchy-sequences-converge")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !taken {
		t.Error("Exists() = false, want true for taken slug")
	}

	free, err := repo.Exists(context.Background(), "cauchy-sequences-converge-2")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if free {
		t.Error("Exists() = true, want false for free slug")
	}

	expectationsMet(t, mock)
}

func TestCardRepository_Publish(t *testing.T) {
	repo, mock, cleanup := newCardRepo(t)
	defer cleanup()

	card := &domain.Card{
		ID:           uuid.New(),
		Slug:         "every-cauchy-sequence-of-real-numbers-converges",
		Statement:    "Every Cauchy sequence of real numbers converges.",
		Hints:        "Show the sequence is bounded, then extract a convergent subsequence.",
		Proof:        "Boundedness follows from the Cauchy property. Bolzano-Weierstrass gives a convergent subsequence, and the Cauchy property forces the whole sequence to its limit.",
		Tags:         []string{"real-analysis", "sequences", "convergence"},
		PublisherID:  uuid.New(),
		SourceRef:    "archive:9041522",
		FallbackUsed: false,
		CreatedAt:    time.Date(2026, 3, 14, 9, 0, 12, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO cards").
		WithArgs(card.ID, card.Slug, card.Statement, card.Hints, card.Proof,
			pq.Array(card.Tags), card.PublisherID, card.SourceRef, false, card.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Publish(context.Background(), card); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestCardRepository_Endorse(t *testing.T) {
	repo, mock, cleanup := newCardRepo(t)
	defer cleanup()

	cardID := uuid.New()
	publisherID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO card_endorsements").
		WithArgs(cardID, publisherID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE cards").
		WithArgs(cardID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Endorse(context.Background(), cardID, publisherID); err != nil {
		t.Fatalf("Endorse() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestCardRepository_EndorseMissingCard(t *testing.T) {
	repo, mock, cleanup := newCardRepo(t)
	defer cleanup()

	cardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO card_endorsements").
		WithArgs(cardID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE cards").
		WithArgs(cardID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Endorse(context.Background(), cardID, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Endorse() error = %v, want ErrNotFound", err)
	}

	expectationsMet(t, mock)
}
