// Package runlog appends the automation audit trail. Every run and step
// event is written to the database and fanned out to structured logs, the
// Redis event stream, and Prometheus counters. Appends never fail the run:
// sink errors are logged and the pipeline moves on.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/events"
	"github.com/amirb101/three-sided-sub001/internal/logger"
	"github.com/amirb101/three-sided-sub001/internal/metrics"
)

// Store is the append-only database sink for the audit trail.
type Store interface {
	AppendRunEvent(ctx context.Context, event domain.RunAttempt) error
	AppendStepResult(ctx context.Context, result domain.StepResult) error
}

// Recorder fans audit events out to every configured sink.
type Recorder struct {
	store   Store
	events  *events.Publisher
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder. The event publisher and metrics may be nil
// when those sinks are disabled; the store and logger are required.
func NewRecorder(store Store, pub *events.Publisher, m *metrics.Metrics, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{
		store:   store,
		events:  pub,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// RecordRun appends one run lifecycle event.
func (r *Recorder) RecordRun(ctx context.Context, runID uuid.UUID, status domain.RunStatus, message string) {
	ts := r.now().UTC()

	event := domain.RunAttempt{
		RunID:     runID,
		Status:    status,
		Message:   message,
		Timestamp: ts,
	}
	if err := r.store.AppendRunEvent(ctx, event); err != nil {
		r.log.Error("failed to append run event",
			logger.String("run_id", runID.String()),
			logger.String("status", string(status)),
			logger.Error(err),
		)
	}

	r.events.PublishAsync(events.RunEvent(runID, string(status), message))
	if r.metrics != nil {
		r.metrics.RecordRunEvent(string(status))
	}

	r.log.Debug("run event recorded",
		logger.String("run_id", runID.String()),
		logger.String("status", string(status)),
		logger.String("message", message),
	)
}

// RecordStep appends one step result. The step also lands on the run trail
// as a step_success or step_failed event so the run history reads as a
// single ordered sequence.
func (r *Recorder) RecordStep(ctx context.Context, runID uuid.UUID, step domain.StepName, outcome domain.StepOutcome, message string) {
	ts := r.now().UTC()

	result := domain.StepResult{
		RunID:     runID,
		StepName:  step,
		Outcome:   outcome,
		Message:   message,
		Timestamp: ts,
	}
	if err := r.store.AppendStepResult(ctx, result); err != nil {
		r.log.Error("failed to append step result",
			logger.String("run_id", runID.String()),
			logger.String("step", string(step)),
			logger.Error(err),
		)
	}

	status := domain.RunStatusStepSuccess
	if outcome == domain.StepOutcomeFailure {
		status = domain.RunStatusStepFailed
	}
	event := domain.RunAttempt{
		RunID:     runID,
		Status:    status,
		Message:   fmt.Sprintf("%s: %s", step, message),
		Timestamp: ts,
	}
	if err := r.store.AppendRunEvent(ctx, event); err != nil {
		r.log.Error("failed to append step run event",
			logger.String("run_id", runID.String()),
			logger.String("step", string(step)),
			logger.Error(err),
		)
	}

	r.events.PublishAsync(events.StepEvent(runID, string(step), string(outcome), message))
	if r.metrics != nil {
		r.metrics.RecordStep(string(step), string(outcome))
	}

	r.log.Debug("step recorded",
		logger.String("run_id", runID.String()),
		logger.String("step", string(step)),
		logger.String("outcome", string(outcome)),
	)
}
