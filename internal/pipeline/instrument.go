package pipeline

import (
	"context"
	"errors"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/metrics"
)

// Runner executes one automation run.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) RunResult
}

// WithMetrics wraps a runner so every invocation lands on the run counters.
// Claim-lost runs leave no audit events, so this wrapper is the only place
// they are counted.
func WithMetrics(runner Runner, m *metrics.Metrics) Runner {
	if m == nil {
		return runner
	}
	return &measuredRunner{runner: runner, metrics: m}
}

type measuredRunner struct {
	runner  Runner
	metrics *metrics.Metrics
}

func (r *measuredRunner) Run(ctx context.Context, trigger Trigger) RunResult {
	result := r.runner.Run(ctx, trigger)

	r.metrics.RecordRun(string(trigger), string(result.Status), result.Duration.Seconds())
	if result.Err != nil && errors.Is(result.Err, domain.ErrRunInProgress) {
		r.metrics.RecordClaimConflict()
	}

	return result
}
