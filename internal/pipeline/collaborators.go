package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// SettingsStore persists the automation settings singleton. Claim and the
// transition writes implement the compare-and-swap guard that keeps runs from
// overlapping: Claim stamps a token, and every transition write is accepted
// only while that token is still the one on the row.
type SettingsStore interface {
	// Get returns the current settings snapshot, or domain.ErrNoSettings
	// when the singleton row has never been created.
	Get(ctx context.Context) (domain.Settings, error)

	// Claim stamps token on the settings row if no live claim is present.
	// Returns domain.ErrRunInProgress when another run holds a fresh claim
	// and domain.ErrNoSettings when the row is missing.
	Claim(ctx context.Context, token uuid.UUID, now time.Time) error

	// ReleaseClaim clears the claim without recording any outcome. Used when
	// a claimed run ends without touching settings, such as a gate refusal.
	ReleaseClaim(ctx context.Context, token uuid.UUID) error

	// RecordSuccess applies the success transition in one write: advances
	// lastRun/nextRun/totalPosts/lastPostId, increments the publisher's post
	// counter, resets the retry fields, sets lastSuccessTime, and releases
	// the claim. Guarded by token.
	RecordSuccess(ctx context.Context, token uuid.UUID, stats domain.SuccessStats) error

	// ScheduleRetry applies the retry transition in one write: sets
	// currentRetryCount to attempt, books retryScheduledFor, records
	// lastRetryReason and the failure diagnostics, and releases the claim.
	// Guarded by token.
	ScheduleRetry(ctx context.Context, token uuid.UUID, attempt int, reason string, retryAt, failedAt time.Time) error

	// RecordTerminalFailure applies the give-up transition in one write:
	// resets currentRetryCount to zero, clears the retry fields, records the
	// failure diagnostics, and releases the claim. Guarded by token.
	RecordTerminalFailure(ctx context.Context, token uuid.UUID, reason string, failedAt time.Time) error
}

// BotDirectory lists the publisher identities content can be attributed to.
type BotDirectory interface {
	ListActive(ctx context.Context) ([]domain.PublisherIdentity, error)
}

// ContentSource finds one candidate problem matching the quality criteria.
// Implementations return domain.ErrNoCandidate when nothing matches; a nil
// candidate with a nil error is treated the same way.
type ContentSource interface {
	FetchCandidate(ctx context.Context, criteria domain.FetchCriteria) (*domain.Candidate, error)
}

// Transformer converts a raw candidate into a structured card draft.
// Implementations wrap schema violations in domain.ErrMalformedDraft so the
// orchestrator can tell a bad draft from a failed call.
type Transformer interface {
	Transform(ctx context.Context, candidate *domain.Candidate) (*domain.CardDraft, error)
}

// PublishSink creates published cards and records endorsements.
type PublishSink interface {
	Exists(ctx context.Context, slug string) (bool, error)
	Publish(ctx context.Context, card *domain.Card) error
	// Endorse records the publisher's endorsement of the card and bumps its
	// engagement counter in one write.
	Endorse(ctx context.Context, cardID, publisherID uuid.UUID) error
}

// Recorder appends run and step events to the audit trail. Appends are
// fire-and-forget from the orchestrator's point of view; the recorder deals
// with its own sink failures.
type Recorder interface {
	RecordRun(ctx context.Context, runID uuid.UUID, status domain.RunStatus, message string)
	RecordStep(ctx context.Context, runID uuid.UUID, step domain.StepName, outcome domain.StepOutcome, message string)
}
