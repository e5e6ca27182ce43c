// Package scheduler drives the automation cadence. A fixed tick evaluates
// the scheduling gate against the persisted settings and starts a pipeline
// run whenever the gate authorizes one. The run itself claims the settings
// row, so overlapping daemons and concurrent manual triggers stay safe.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/logger"
	"github.com/amirb101/three-sided-sub001/internal/metrics"
	"github.com/amirb101/three-sided-sub001/internal/pipeline"
	"github.com/amirb101/three-sided-sub001/internal/schedule"
)

const defaultTickInterval = time.Minute

// SettingsReader loads the settings snapshot the gate evaluates.
type SettingsReader interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// Daemon is the automation tick loop.
type Daemon struct {
	settings SettingsReader
	runner   pipeline.Runner
	metrics  *metrics.Metrics
	log      logger.Logger

	tickInterval time.Duration
	now          func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewDaemon creates a daemon. Metrics may be nil when the metrics sink is
// disabled; settings, runner, and logger are required.
func NewDaemon(settings SettingsReader, runner pipeline.Runner, m *metrics.Metrics, tickInterval time.Duration, log logger.Logger) *Daemon {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Daemon{
		settings:     settings,
		runner:       runner,
		metrics:      m,
		log:          log,
		tickInterval: tickInterval,
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the tick loop.
func (d *Daemon) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	d.log.Info("automation daemon started",
		logger.Duration("tick_interval", d.tickInterval))
}

// Stop gracefully stops the daemon. A run already in flight finishes; its
// claim release does not depend on the daemon loop.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()
	d.log.Info("automation daemon stopped")
}

// IsRunning returns whether the daemon loop is active.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	// Evaluate immediately on start
	d.tickOnce(ctx)

	for {
		select {
		case <-ticker.C:
			d.tickOnce(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tickOnce evaluates the gate once and runs the pipeline when authorized.
func (d *Daemon) tickOnce(ctx context.Context) {
	now := d.now().UTC()

	settings, err := d.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSettings) {
			d.log.Warn("automation settings row missing, tick skipped")
		} else {
			d.log.Error("failed to load automation settings", logger.Error(err))
		}
		return
	}

	if d.metrics != nil {
		d.metrics.SetSettingsState(settings.Enabled, settings.CurrentRetryCount, settings.TotalPosts)
	}

	decision := schedule.Decide(settings, now)
	if d.metrics != nil {
		d.metrics.RecordGateDecision(decision.Reason)
	}

	if !decision.ShouldRun {
		d.log.Debug("gate refused tick", logger.String("decision", decision.Describe()))
		return
	}

	d.log.Info("gate authorized run", logger.String("reason", decision.Reason))

	result := d.runner.Run(ctx, pipeline.TriggerScheduled)
	d.reportResult(result)
}

func (d *Daemon) reportResult(result pipeline.RunResult) {
	fields := []logger.Field{
		logger.String("run_id", result.RunID.String()),
		logger.Duration("duration", result.Duration),
	}

	switch {
	case result.Err != nil && errors.Is(result.Err, domain.ErrRunInProgress):
		d.log.Warn("scheduled run skipped, another run holds the claim")
	case result.Succeeded():
		if result.Card != nil {
			fields = append(fields, logger.String("card_slug", result.Card.Slug))
		}
		if result.Publisher != nil {
			fields = append(fields, logger.String("publisher", result.Publisher.DisplayName))
		}
		d.log.Info("scheduled run published a card", fields...)
	case result.Status == domain.RunStatusRetryScheduled:
		fields = append(fields,
			logger.String("failed_step", string(result.FailedStep)),
			logger.String("reason", result.Reason))
		if result.RetryAt != nil {
			fields = append(fields, logger.Time("retry_at", *result.RetryAt))
		}
		d.log.Warn("scheduled run failed, retry booked", fields...)
	default:
		fields = append(fields,
			logger.String("failed_step", string(result.FailedStep)),
			logger.String("reason", result.Reason))
		d.log.Error("scheduled run failed", fields...)
	}
}
