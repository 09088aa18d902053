// Package retry implements bounded retries with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy describes how calls are retried: attempt budget, backoff shape, and
// which errors are worth another try. Sleep is injectable so tests never
// block on real delays.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Retryable    func(error) bool
	Sleep        func(time.Duration)
}

// Do runs fn up to p.MaxAttempts times. It stops early on success, on a
// non-retryable error, or when ctx is done. The delay doubles after each
// failed attempt, capped at p.MaxDelay.
func Do(ctx context.Context, p Policy, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.InitialDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sleep(delay)
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
