package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaDDL creates every table the automation service owns. Statements are
// idempotent so EnsureSchema can run on every startup.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS automation_settings (
    id                  INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    enabled             BOOLEAN NOT NULL DEFAULT FALSE,
    interval_minutes    INTEGER NOT NULL DEFAULT 15 CHECK (interval_minutes > 0),
    last_run            TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    next_run            TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    current_retry_count INTEGER NOT NULL DEFAULT 0 CHECK (current_retry_count >= 0),
    max_retries         INTEGER NOT NULL DEFAULT 3 CHECK (max_retries >= 0),
    retry_scheduled_for TIMESTAMPTZ,
    last_retry_reason   TEXT,
    last_failure_reason TEXT,
    last_failure_time   TIMESTAMPTZ,
    last_success_time   TIMESTAMPTZ,
    total_posts         BIGINT NOT NULL DEFAULT 0,
    last_post_id        TEXT NOT NULL DEFAULT '',
    claim_token         UUID,
    claimed_at          TIMESTAMPTZ,
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS publishers (
    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    display_name TEXT NOT NULL UNIQUE,
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    post_count   BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cards (
    id                UUID PRIMARY KEY,
    slug              TEXT NOT NULL UNIQUE,
    statement         TEXT NOT NULL,
    hints             TEXT NOT NULL,
    proof             TEXT NOT NULL,
    tags              TEXT[] NOT NULL DEFAULT '{}',
    publisher_id      UUID NOT NULL REFERENCES publishers(id),
    source_ref        TEXT NOT NULL DEFAULT '',
    endorsement_count INTEGER NOT NULL DEFAULT 0,
    fallback_used     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS card_endorsements (
    card_id      UUID NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    publisher_id UUID NOT NULL REFERENCES publishers(id),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (card_id, publisher_id)
);

CREATE TABLE IF NOT EXISTS automation_run_events (
    id         BIGSERIAL PRIMARY KEY,
    run_id     UUID NOT NULL,
    status     TEXT NOT NULL,
    message    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_run_events_run ON automation_run_events (run_id, id);
CREATE INDEX IF NOT EXISTS idx_run_events_created ON automation_run_events (created_at DESC);

CREATE TABLE IF NOT EXISTS automation_step_results (
    id         BIGSERIAL PRIMARY KEY,
    run_id     UUID NOT NULL,
    step_name  TEXT NOT NULL,
    outcome    TEXT NOT NULL,
    message    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_step_results_run ON automation_step_results (run_id, id);
`

// EnsureSchema creates the automation tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
