// Package schedule decides when automation runs start and when retries land.
package schedule

import (
	"fmt"
	"time"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// Gate decision reasons.
const (
	ReasonDisabled          = "disabled"
	ReasonWaitingForRetry   = "waiting_for_retry"
	ReasonScheduledInterval = "scheduled_interval"
	ReasonTooEarly          = "too_early"
)

// RetryReason names the authorization reason for retry attempt n.
func RetryReason(attempt int) string {
	return fmt.Sprintf("retry_%d", attempt)
}

// Decision is the Gate's verdict for one point in time.
type Decision struct {
	// ShouldRun reports whether a run is authorized now.
	ShouldRun bool
	// Reason explains the verdict: disabled, retry_<n>, waiting_for_retry,
	// scheduled_interval, or too_early.
	Reason string
	// Wait is the remaining time until eligibility when the run is refused
	// for timing reasons. Zero when ShouldRun is true or automation is
	// disabled.
	Wait time.Duration
}

// Describe renders the decision for step records and logs.
func (d Decision) Describe() string {
	if d.Wait > 0 {
		return fmt.Sprintf("%s: next eligible in %s", d.Reason, d.Wait.Round(time.Second))
	}
	return d.Reason
}

// Decide is the scheduling gate: given the persisted settings and the current
// time, it reports whether a run should start now and why. Pure function, no
// side effects; both the daemon tick and the orchestrator's re-validation
// consult it, and nothing else decides run timing.
//
// A pending retry takes priority over the normal cadence: while
// currentRetryCount > 0 the run fires when retryScheduledFor passes,
// regardless of lastRun.
func Decide(s domain.Settings, now time.Time) Decision {
	if !s.Enabled {
		return Decision{Reason: ReasonDisabled}
	}

	if s.RetryPending() {
		// The retry fields invariant can only break through outside writes;
		// treat a missing schedule as due now rather than wedging retries.
		if s.RetryScheduledFor == nil || !now.Before(*s.RetryScheduledFor) {
			return Decision{ShouldRun: true, Reason: RetryReason(s.CurrentRetryCount)}
		}
		return Decision{
			Reason: ReasonWaitingForRetry,
			Wait:   s.RetryScheduledFor.Sub(now),
		}
	}

	elapsed := now.Sub(s.LastRun)
	if elapsed >= s.Interval() {
		return Decision{ShouldRun: true, Reason: ReasonScheduledInterval}
	}
	return Decision{
		Reason: ReasonTooEarly,
		Wait:   s.Interval() - elapsed,
	}
}
