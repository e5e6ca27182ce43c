// Package domain contains the core domain models for the card automation service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Default values applied when the operator settings row is first created.
const (
	DefaultIntervalMinutes = 15
	DefaultMaxRetries      = 3
)

// Settings is the singleton automation configuration record. It is treated as
// an immutable value: repositories return fresh copies and every mutation is a
// single atomic transition producing a new row state.
type Settings struct {
	Enabled           bool       `db:"enabled"             json:"enabled"`
	IntervalMinutes   int        `db:"interval_minutes"    json:"interval_minutes"`
	LastRun           time.Time  `db:"last_run"            json:"last_run"`
	NextRun           time.Time  `db:"next_run"            json:"next_run"`
	CurrentRetryCount int        `db:"current_retry_count" json:"current_retry_count"`
	MaxRetries        int        `db:"max_retries"         json:"max_retries"`
	RetryScheduledFor *time.Time `db:"retry_scheduled_for" json:"retry_scheduled_for,omitempty"`
	LastRetryReason   *string    `db:"last_retry_reason"   json:"last_retry_reason,omitempty"`
	LastFailureReason *string    `db:"last_failure_reason" json:"last_failure_reason,omitempty"`
	LastFailureTime   *time.Time `db:"last_failure_time"   json:"last_failure_time,omitempty"`
	LastSuccessTime   *time.Time `db:"last_success_time"   json:"last_success_time,omitempty"`
	TotalPosts        int64      `db:"total_posts"         json:"total_posts"`
	LastPostID        string     `db:"last_post_id"        json:"last_post_id"`
	ClaimToken        *uuid.UUID `db:"claim_token"         json:"-"`
	ClaimedAt         *time.Time `db:"claimed_at"          json:"-"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updated_at"`
}

// Interval returns the configured cadence as a duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// RetryPending returns true if a retry has been scheduled and not yet resolved.
// While it holds, RetryScheduledFor and LastRetryReason are both present.
func (s Settings) RetryPending() bool {
	return s.CurrentRetryCount > 0
}

// RetryBudgetLeft returns true if another retry may still be scheduled.
func (s Settings) RetryBudgetLeft() bool {
	return s.CurrentRetryCount < s.MaxRetries
}

// Claimed returns true if a run currently holds the settings claim and the
// claim is younger than staleAfter.
func (s Settings) Claimed(now time.Time, staleAfter time.Duration) bool {
	if s.ClaimToken == nil || s.ClaimedAt == nil {
		return false
	}
	return now.Sub(*s.ClaimedAt) < staleAfter
}

// SettingsUpdate carries the operator-editable settings fields. Nil fields are
// left unchanged.
type SettingsUpdate struct {
	Enabled         *bool `json:"enabled,omitempty"`
	IntervalMinutes *int  `json:"interval_minutes,omitempty"`
	MaxRetries      *int  `json:"max_retries,omitempty"`
}

// SuccessStats carries the bookkeeping advanced by a successful run in one
// atomic transition.
type SuccessStats struct {
	CompletedAt time.Time
	NextRun     time.Time
	PostID      string
	PublisherID uuid.UUID
}
