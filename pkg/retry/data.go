package retry

import (
	"time"

	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
type RetryParam struct {
	Jitter       time.Duration
	RandomSeed   int64
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
	Sleeper      timeutil.Sleeper
}

// NewRetryParam creates a new RetryParam with the given settings.
// The wait after the zero-based attempt n is
// BackoffParam.InitialDuration * BackoffParam.Multiplier^n (+ jitter).
func NewRetryParam(
	jitter time.Duration,
	randomSeed int64,
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		Jitter:       jitter,
		RandomSeed:   randomSeed,
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}

// WithSleeper returns a copy of the param that waits through s.
func (r RetryParam) WithSleeper(s timeutil.Sleeper) RetryParam {
	r.Sleeper = s
	return r
}

func (r RetryParam) sleeper() timeutil.Sleeper {
	if r.Sleeper != nil {
		return r.Sleeper
	}
	return timeutil.SleepContext
}

// Result is the outcome of a retried operation.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
	waited   time.Duration
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() failure.ClassifiedError {
	return r.err
}

// Attempts is the number of times the operation was invoked.
func (r Result[T]) Attempts() int {
	return r.attempts
}

// Waited is the total backoff slept between attempts.
func (r Result[T]) Waited() time.Duration {
	return r.waited
}

func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}
