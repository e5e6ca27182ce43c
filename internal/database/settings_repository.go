package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// DefaultClaimStaleAfter is how old a claim may grow before another run is
// allowed to take it over. Covers a process that crashed while holding the
// claim; a healthy run finishes well inside this window.
const DefaultClaimStaleAfter = 10 * time.Minute

// settingsColumns is the column list for SELECT/RETURNING on
// automation_settings (single source for schema changes).
const settingsColumns = `enabled, interval_minutes, last_run, next_run,
		current_retry_count, max_retries, retry_scheduled_for,
		last_retry_reason, last_failure_reason, last_failure_time,
		last_success_time, total_posts, last_post_id,
		claim_token, claimed_at, updated_at`

// SettingsRepository manages the automation settings singleton. Every
// transition write is guarded by the claim token, so a run whose claim was
// taken over cannot apply its outcome.
type SettingsRepository struct {
	db         *sqlx.DB
	staleAfter time.Duration
}

// NewSettingsRepository creates a new repository. staleAfter bounds claim
// takeover; zero applies DefaultClaimStaleAfter.
func NewSettingsRepository(db *sqlx.DB, staleAfter time.Duration) *SettingsRepository {
	if staleAfter <= 0 {
		staleAfter = DefaultClaimStaleAfter
	}
	return &SettingsRepository{db: db, staleAfter: staleAfter}
}

// Get returns the settings singleton.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM automation_settings WHERE id = 1`

	var s domain.Settings
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{}, domain.ErrNoSettings
		}
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// Claim stamps token on the settings row unless a younger claim is present.
// A claim older than staleAfter is treated as abandoned and taken over.
func (r *SettingsRepository) Claim(ctx context.Context, token uuid.UUID, now time.Time) error {
	query := `
		UPDATE automation_settings
		SET claim_token = $1, claimed_at = $2
		WHERE id = 1
		  AND (claim_token IS NULL OR claimed_at IS NULL OR claimed_at < $3)`

	result, err := r.db.ExecContext(ctx, query, token, now, now.Add(-r.staleAfter))
	if err != nil {
		return fmt.Errorf("failed to claim settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing updated: either the row is missing or a live claim blocks us.
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM automation_settings WHERE id = 1)`); err != nil {
		return fmt.Errorf("failed to check settings existence: %w", err)
	}
	if !exists {
		return domain.ErrNoSettings
	}
	return domain.ErrRunInProgress
}

// ReleaseClaim clears the claim if token still holds it. A claim already
// taken over by another run is left alone.
func (r *SettingsRepository) ReleaseClaim(ctx context.Context, token uuid.UUID) error {
	query := `
		UPDATE automation_settings
		SET claim_token = NULL, claimed_at = NULL
		WHERE id = 1 AND claim_token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to release claim: %w", err)
	}
	return nil
}

// RecordSuccess applies the success transition and bumps the publisher's post
// counter in one transaction. Rejected when token no longer holds the claim.
func (r *SettingsRepository) RecordSuccess(ctx context.Context, token uuid.UUID, stats domain.SuccessStats) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin success transaction: %w", err)
	}
	defer tx.Rollback()

	settingsQuery := `
		UPDATE automation_settings
		SET last_run = $1,
		    next_run = $2,
		    total_posts = total_posts + 1,
		    last_post_id = $3,
		    current_retry_count = 0,
		    retry_scheduled_for = NULL,
		    last_retry_reason = NULL,
		    last_success_time = $1,
		    claim_token = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = 1 AND claim_token = $4`

	result, err := tx.ExecContext(ctx, settingsQuery, stats.CompletedAt, stats.NextRun, stats.PostID, token)
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("success transition rejected: %w", domain.ErrRunInProgress)
	}

	publisherQuery := `UPDATE publishers SET post_count = post_count + 1 WHERE id = $1`
	result, err = tx.ExecContext(ctx, publisherQuery, stats.PublisherID)
	if err != nil {
		return fmt.Errorf("failed to bump publisher post count: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("publisher %s: %w", stats.PublisherID, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit success transaction: %w", err)
	}
	return nil
}

// ScheduleRetry applies the retry transition in one guarded write.
func (r *SettingsRepository) ScheduleRetry(ctx context.Context, token uuid.UUID, attempt int, reason string, retryAt, failedAt time.Time) error {
	query := `
		UPDATE automation_settings
		SET current_retry_count = $1,
		    retry_scheduled_for = $2,
		    last_retry_reason = $3,
		    last_failure_reason = $3,
		    last_failure_time = $4,
		    claim_token = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = 1 AND claim_token = $5`

	result, err := r.db.ExecContext(ctx, query, attempt, retryAt, reason, failedAt, token)
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("retry transition rejected: %w", domain.ErrRunInProgress)
	}
	return nil
}

// RecordTerminalFailure applies the give-up transition in one guarded write:
// retry state cleared, diagnostics recorded, claim released.
func (r *SettingsRepository) RecordTerminalFailure(ctx context.Context, token uuid.UUID, reason string, failedAt time.Time) error {
	query := `
		UPDATE automation_settings
		SET current_retry_count = 0,
		    retry_scheduled_for = NULL,
		    last_retry_reason = NULL,
		    last_failure_reason = $1,
		    last_failure_time = $2,
		    claim_token = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = 1 AND claim_token = $3`

	result, err := r.db.ExecContext(ctx, query, reason, failedAt, token)
	if err != nil {
		return fmt.Errorf("failed to record terminal failure: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failure transition rejected: %w", domain.ErrRunInProgress)
	}
	return nil
}

// Upsert creates the settings singleton if missing and applies the operator's
// partial update. Nil fields keep their current value; on first creation they
// take the defaults (disabled, standard cadence and budget).
func (r *SettingsRepository) Upsert(ctx context.Context, update domain.SettingsUpdate) (domain.Settings, error) {
	query := fmt.Sprintf(`
		INSERT INTO automation_settings (id, enabled, interval_minutes, max_retries, last_run, next_run)
		VALUES (1, COALESCE($1, FALSE), COALESCE($2, %d), COALESCE($3, %d), 'epoch', 'epoch')
		ON CONFLICT (id) DO UPDATE SET
		    enabled = COALESCE($1, automation_settings.enabled),
		    interval_minutes = COALESCE($2, automation_settings.interval_minutes),
		    max_retries = COALESCE($3, automation_settings.max_retries),
		    updated_at = NOW()
		RETURNING `+settingsColumns,
		domain.DefaultIntervalMinutes, domain.DefaultMaxRetries)

	var s domain.Settings
	row := r.db.QueryRowxContext(ctx, query, update.Enabled, update.IntervalMinutes, update.MaxRetries)
	if err := row.StructScan(&s); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to upsert settings: %w", err)
	}
	return s, nil
}
