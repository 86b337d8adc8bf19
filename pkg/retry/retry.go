// Package retry provides bounded retry with a pluggable failure classifier,
// shared by every collaborator call that needs backoff semantics.
package retry

import (
	"context"
	"time"
)

// Decision tells Do what to make of a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Classifier inspects the error of the given attempt (1-based) and decides
// whether another attempt should run and after how long. Classifiers may be
// stateful closures.
type Classifier func(attempt int, err error) Decision

// Sleeper is injectable so tests can observe delays without waiting.
type Sleeper func(time.Duration)

// Do runs fn up to maxAttempts times. After each failure the classifier is
// consulted; a non-retry decision or exhausted attempts surface the last
// error. Context cancellation stops the loop between attempts.
func Do(ctx context.Context, maxAttempts int, classify Classifier, sleep Sleeper, fn func(attempt int) error) error {
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		decision := classify(attempt, lastErr)
		if !decision.Retry {
			break
		}
		if decision.Delay > 0 {
			sleep(decision.Delay)
		}
	}

	return lastErr
}
