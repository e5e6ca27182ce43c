package domain

import (
	"time"

	"github.com/google/uuid"
)

// PublisherIdentity is a bot account that published cards are attributed to.
// Read-only from this service's perspective except for the post counter,
// which update_stats advances.
type PublisherIdentity struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	IsActive    bool      `db:"is_active"    json:"is_active"`
	PostCount   int64     `db:"post_count"   json:"post_count"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}
