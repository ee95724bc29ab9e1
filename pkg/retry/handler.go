package retry

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

// Retry executes fn until it succeeds, returns a non-retryable error, the
// attempt budget is spent, or ctx is cancelled during a backoff wait.
//
// The loop is bounded by MaxAttempts: fn runs at most MaxAttempts times and
// the waits between runs follow timeutil.ExponentialBackoffDelay.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
) Result[T] {
	var result Result[T]

	if retryParam.MaxAttempts < 1 {
		result.err = &RetryError{
			Message:   "max attempt cannot be 0",
			Cause:     ErrZeroAttempt,
			Retryable: false,
		}
		return result
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))
	sleep := retryParam.sleeper()

	var lastErr failure.ClassifiedError
	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		result.attempts = attempt

		value, err := fn()
		if err == nil {
			result.value = value
			result.err = nil
			return result
		}
		lastErr = err

		if !isErrorRetryable(err) {
			result.err = err
			return result
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			*rng,
			retryParam.BackoffParam,
		)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			result.err = &RetryError{
				Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, sleepErr),
				Cause:     ErrCancelled,
				Retryable: false,
				Attempts:  attempt,
				Last:      sleepErr,
			}
			return result
		}
		result.waited += delay
	}

	result.err = &RetryError{
		Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
		Cause:     ErrExhaustedAttempts,
		Retryable: true,
		Attempts:  retryParam.MaxAttempts,
		Last:      lastErr,
	}
	return result
}

// isErrorRetryable reports whether err asks to be retried.
// Errors that do not say are retried.
func isErrorRetryable(err failure.ClassifiedError) bool {
	if r, ok := err.(failure.Retryable); ok {
		return r.IsRetryable()
	}
	return true
}
