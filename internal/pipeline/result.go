package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// Trigger identifies how a run was started.
type Trigger string

const (
	// TriggerScheduled marks runs started by the interval daemon.
	TriggerScheduled Trigger = "scheduled"
	// TriggerManual marks operator-initiated runs, which bypass the gate.
	TriggerManual Trigger = "manual"
)

// RunResult is the outcome of one pipeline invocation. The manual trigger
// returns it to the caller; the daemon only logs it.
type RunResult struct {
	RunID      uuid.UUID          `json:"run_id"`
	Trigger    Trigger            `json:"trigger"`
	Status     domain.RunStatus   `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	FailedStep domain.StepName    `json:"failed_step,omitempty"`
	Kind       domain.FailureKind `json:"failure_kind,omitempty"`
	Retryable  bool               `json:"retryable,omitempty"`
	RetryAt    *time.Time         `json:"retry_at,omitempty"`

	Publisher    *domain.PublisherIdentity `json:"publisher,omitempty"`
	Card         *domain.Card              `json:"card,omitempty"`
	SourceRef    string                    `json:"source_ref,omitempty"`
	FallbackUsed bool                      `json:"fallback_used,omitempty"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"-"`

	// Err carries the terminal cause for failed and skipped runs. Not
	// serialized; Reason holds the caller-facing text.
	Err error `json:"-"`
}

// Succeeded reports whether the run published a card.
func (r RunResult) Succeeded() bool {
	return r.Status == domain.RunStatusSuccess
}
