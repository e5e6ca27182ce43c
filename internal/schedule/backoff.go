package schedule

import (
	"math"
	"time"
)

// MaxRetryDelay caps the exponential retry delay. Without the cap a high
// maxRetries setting would push retries out by days.
const MaxRetryDelay = time.Hour

// RetryDelay computes the backoff before retry attempt n: 2^n minutes,
// capped at MaxRetryDelay. Attempt 1 waits 2 minutes, attempt 2 waits 4,
// attempt 3 waits 8.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(math.Pow(2, float64(attempt))) * time.Minute
	if delay <= 0 || delay > MaxRetryDelay {
		return MaxRetryDelay
	}
	return delay
}

// NextRetry returns the time retry attempt n becomes eligible, counting
// from now.
func NextRetry(attempt int, now time.Time) time.Time {
	return now.Add(RetryDelay(attempt))
}
