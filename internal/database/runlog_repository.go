package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// defaultRunHistoryLimit caps the run history listing when the caller does
// not bound it.
const defaultRunHistoryLimit = 50

// RunlogRepository appends and reads the automation audit trail. Rows are
// never updated or deleted here.
type RunlogRepository struct {
	db *sqlx.DB
}

// NewRunlogRepository creates a new repository.
func NewRunlogRepository(db *sqlx.DB) *RunlogRepository {
	return &RunlogRepository{db: db}
}

// AppendRunEvent appends one run lifecycle event.
func (r *RunlogRepository) AppendRunEvent(ctx context.Context, event domain.RunAttempt) error {
	query := `
		INSERT INTO automation_run_events (run_id, status, message, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, event.RunID, event.Status, event.Message, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append run event: %w", err)
	}
	return nil
}

// AppendStepResult appends one step result.
func (r *RunlogRepository) AppendStepResult(ctx context.Context, result domain.StepResult) error {
	query := `
		INSERT INTO automation_step_results (run_id, step_name, outcome, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, result.RunID, result.StepName, result.Outcome, result.Message, result.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append step result: %w", err)
	}
	return nil
}

// RecentRuns summarizes the newest runs: each run's latest event carries its
// effective status, which is terminal for finished runs and a step status for
// one still in flight or cut short by a crash.
func (r *RunlogRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = defaultRunHistoryLimit
	}

	query := `
		SELECT e.run_id, e.status, e.message, b.started_at, b.finished_at
		FROM automation_run_events e
		JOIN (
			SELECT run_id,
			       MAX(id) AS last_id,
			       MIN(created_at) AS started_at,
			       MAX(created_at) AS finished_at
			FROM automation_run_events
			GROUP BY run_id
		) b ON b.run_id = e.run_id AND e.id = b.last_id
		ORDER BY b.started_at DESC
		LIMIT $1`

	var runs []domain.RunSummary
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	return runs, nil
}

// RunEvents returns a run's full event trail in append order.
func (r *RunlogRepository) RunEvents(ctx context.Context, runID uuid.UUID) ([]domain.RunAttempt, error) {
	query := `
		SELECT id, run_id, status, message, created_at
		FROM automation_run_events
		WHERE run_id = $1
		ORDER BY id`

	var events []domain.RunAttempt
	if err := r.db.SelectContext(ctx, &events, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list run events: %w", err)
	}
	return events, nil
}

// RunSteps returns a run's step results in execution order.
func (r *RunlogRepository) RunSteps(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT id, run_id, step_name, outcome, message, created_at
		FROM automation_step_results
		WHERE run_id = $1
		ORDER BY id`

	var steps []domain.StepResult
	if err := r.db.SelectContext(ctx, &steps, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	return steps, nil
}
