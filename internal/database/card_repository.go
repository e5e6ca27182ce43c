package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// CardRepository persists published cards and their endorsements. It is the
// pipeline's publish sink.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository creates a new repository.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Exists reports whether a card already owns the slug.
func (r *CardRepository) Exists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// Publish inserts the card. The slug uniqueness constraint backstops the
// pipeline's existence checks against a concurrent insert.
func (r *CardRepository) Publish(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, slug, statement, hints, proof, tags,
			publisher_id, source_ref, fallback_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.Slug,
		card.Statement,
		card.Hints,
		card.Proof,
		pq.Array(card.Tags),
		card.PublisherID,
		card.SourceRef,
		card.FallbackUsed,
		card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to publish card: %w", err)
	}
	return nil
}

// Endorse records the publisher's endorsement and bumps the card's
// engagement counter in one transaction.
func (r *CardRepository) Endorse(ctx context.Context, cardID, publisherID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin endorse transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO card_endorsements (card_id, publisher_id) VALUES ($1, $2)`,
		cardID, publisherID)
	if err != nil {
		return fmt.Errorf("failed to insert endorsement: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE cards SET endorsement_count = endorsement_count + 1 WHERE id = $1`,
		cardID)
	if err != nil {
		return fmt.Errorf("failed to bump endorsement count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit endorse transaction: %w", err)
	}
	return nil
}
