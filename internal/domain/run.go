package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents a run lifecycle event kind. Run events are append-only:
// a run emits started, then step events, then exactly one terminal event.
type RunStatus string

const (
	RunStatusStarted        RunStatus = "started"
	RunStatusStepSuccess    RunStatus = "step_success"
	RunStatusStepFailed     RunStatus = "step_failed"
	RunStatusSuccess        RunStatus = "success"
	RunStatusFailed         RunStatus = "failed"
	RunStatusSkipped        RunStatus = "skipped"
	RunStatusRetryScheduled RunStatus = "retry_scheduled"
	RunStatusRetrying       RunStatus = "retrying"
)

// Terminal returns true for statuses that end a run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailed, RunStatusSkipped, RunStatusRetryScheduled:
		return true
	}
	return false
}

// StepName identifies one unit of work within a run.
type StepName string

const (
	StepLoadSettings     StepName = "load_settings"
	StepTimingCheck      StepName = "timing_check"
	StepLoadPublishers   StepName = "load_publishers"
	StepSelectPublisher  StepName = "select_publisher"
	StepFetchContent     StepName = "fetch_content"
	StepTransformContent StepName = "transform_content"
	StepPublishContent   StepName = "publish_content"
	StepSelfEndorse      StepName = "self_endorse"
	StepUpdateStats      StepName = "update_stats"
)

// PipelineSteps lists every step in execution order.
var PipelineSteps = []StepName{
	StepLoadSettings,
	StepTimingCheck,
	StepLoadPublishers,
	StepSelectPublisher,
	StepFetchContent,
	StepTransformContent,
	StepPublishContent,
	StepSelfEndorse,
	StepUpdateStats,
}

// StepOutcome is the result of a single step.
type StepOutcome string

const (
	StepOutcomeSuccess StepOutcome = "success"
	StepOutcomeFailure StepOutcome = "failure"
)

// RunAttempt is one append-only run lifecycle event. The runId is unique per
// invocation; a retry is a brand-new run with its own runId, linked to the
// failure that scheduled it through the retrying event's message.
type RunAttempt struct {
	ID        int64     `db:"id"         json:"id"`
	RunID     uuid.UUID `db:"run_id"     json:"run_id"`
	Status    RunStatus `db:"status"     json:"status"`
	Message   string    `db:"message"    json:"message"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}

// StepResult is one append-only step record. Never mutated after creation.
type StepResult struct {
	ID        int64       `db:"id"         json:"id"`
	RunID     uuid.UUID   `db:"run_id"     json:"run_id"`
	StepName  StepName    `db:"step_name"  json:"step_name"`
	Outcome   StepOutcome `db:"outcome"    json:"outcome"`
	Message   string      `db:"message"    json:"message"`
	Timestamp time.Time   `db:"created_at" json:"timestamp"`
}

// RunSummary aggregates one run for the history API: its latest event plus
// the recorded steps.
type RunSummary struct {
	RunID      uuid.UUID    `db:"run_id"      json:"run_id"`
	Status     RunStatus    `db:"status"      json:"status"`
	Message    string       `db:"message"     json:"message"`
	StartedAt  time.Time    `db:"started_at"  json:"started_at"`
	FinishedAt time.Time    `db:"finished_at" json:"finished_at"`
	Steps      []StepResult `db:"-"           json:"steps,omitempty"`
}
