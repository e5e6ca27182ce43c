package runlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/logger"
	"github.com/amirb101/three-sided-sub001/internal/metrics"
)

type fakeStore struct {
	runEvents []domain.RunAttempt
	steps     []domain.StepResult
	runErr    error
	stepErr   error
}

func (f *fakeStore) AppendRunEvent(_ context.Context, event domain.RunAttempt) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runEvents = append(f.runEvents, event)
	return nil
}

func (f *fakeStore) AppendStepResult(_ context.Context, result domain.StepResult) error {
	if f.stepErr != nil {
		return f.stepErr
	}
	f.steps = append(f.steps, result)
	return nil
}

func TestRecordRun(t *testing.T) {
	store := &fakeStore{}
	m := metrics.New(prometheus.NewRegistry())
	rec := NewRecorder(store, nil, m, logger.NewNop())
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return now }

	runID := uuid.New()
	rec.RecordRun(context.Background(), runID, domain.RunStatusStarted, "trigger=scheduled")

	require.Len(t, store.runEvents, 1)
	got := store.runEvents[0]
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, domain.RunStatusStarted, got.Status)
	assert.Equal(t, "trigger=scheduled", got.Message)
	assert.Equal(t, now, got.Timestamp)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunEventsTotal.WithLabelValues("started")))
}

func TestRecordStepWritesBothTrails(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, nil, metrics.New(prometheus.NewRegistry()), logger.NewNop())

	runID := uuid.New()
	rec.RecordStep(context.Background(), runID, domain.StepLoadPublishers, domain.StepOutcomeSuccess, "3 active publishers")

	require.Len(t, store.steps, 1)
	step := store.steps[0]
	assert.Equal(t, runID, step.RunID)
	assert.Equal(t, domain.StepLoadPublishers, step.StepName)
	assert.Equal(t, domain.StepOutcomeSuccess, step.Outcome)
	assert.Equal(t, "3 active publishers", step.Message)

	// The step also lands on the run trail with a step_success status and a
	// step-prefixed message.
	require.Len(t, store.runEvents, 1)
	event := store.runEvents[0]
	assert.Equal(t, domain.RunStatusStepSuccess, event.Status)
	assert.Equal(t, "load_publishers: 3 active publishers", event.Message)
	assert.Equal(t, step.Timestamp, event.Timestamp)
}

func TestRecordStepFailureStatus(t *testing.T) {
	store := &fakeStore{}
	m := metrics.New(prometheus.NewRegistry())
	rec := NewRecorder(store, nil, m, logger.NewNop())

	rec.RecordStep(context.Background(), uuid.New(), domain.StepFetchContent, domain.StepOutcomeFailure, "connection timeout")

	require.Len(t, store.runEvents, 1)
	assert.Equal(t, domain.RunStatusStepFailed, store.runEvents[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("fetch_content", "failure")))
}

func TestRecordSurvivesSinkErrors(t *testing.T) {
	store := &fakeStore{
		runErr:  errors.New("pq: connection refused"),
		stepErr: errors.New("pq: connection refused"),
	}
	rec := NewRecorder(store, nil, nil, logger.NewNop())

	assert.NotPanics(t, func() {
		rec.RecordRun(context.Background(), uuid.New(), domain.RunStatusStarted, "")
		rec.RecordStep(context.Background(), uuid.New(), domain.StepLoadSettings, domain.StepOutcomeSuccess, "")
	})
}
