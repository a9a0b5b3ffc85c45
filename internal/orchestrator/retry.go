package orchestrator

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds how transient repository failures are retried. It is an
// explicit value passed into the orchestrator so tests can exercise it with
// an injected sleeper instead of real delays.
type RetryPolicy struct {
	// MaxAttempts counts the first try plus retries.
	MaxAttempts int
	// BaseDelay is the sleep before the first retry; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
	// JitterFrac applies +/- jitter to each delay (0.2 = +/-20%).
	JitterFrac float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2 * time.Second
	}
	return p
}

// delay computes the backoff before retry number attempt (zero-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	sleep := p.BaseDelay
	for i := 0; i < attempt && sleep < p.MaxDelay; i++ {
		sleep *= 2
		if sleep > p.MaxDelay {
			sleep = p.MaxDelay
			break
		}
	}
	if p.JitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*p.JitterFrac
	return time.Duration(float64(sleep) * j)
}

// sleepCtx blocks for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
