package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// publisherColumns is the column list for SELECT on publishers.
const publisherColumns = `id, display_name, is_active, post_count, created_at`

// PublisherRepository reads the bot publisher directory. The automation
// service never creates or edits publisher identities; operators seed them.
type PublisherRepository struct {
	db *sqlx.DB
}

// NewPublisherRepository creates a new repository.
func NewPublisherRepository(db *sqlx.DB) *PublisherRepository {
	return &PublisherRepository{db: db}
}

// ListActive returns publishers eligible to be attributed new cards.
func (r *PublisherRepository) ListActive(ctx context.Context) ([]domain.PublisherIdentity, error) {
	query := `SELECT ` + publisherColumns + `
		FROM publishers
		WHERE is_active = TRUE
		ORDER BY display_name`

	var publishers []domain.PublisherIdentity
	if err := r.db.SelectContext(ctx, &publishers, query); err != nil {
		return nil, fmt.Errorf("failed to list active publishers: %w", err)
	}
	return publishers, nil
}

// List returns every publisher identity, active or not.
func (r *PublisherRepository) List(ctx context.Context) ([]domain.PublisherIdentity, error) {
	query := `SELECT ` + publisherColumns + `
		FROM publishers
		ORDER BY display_name`

	var publishers []domain.PublisherIdentity
	if err := r.db.SelectContext(ctx, &publishers, query); err != nil {
		return nil, fmt.Errorf("failed to list publishers: %w", err)
	}
	return publishers, nil
}
