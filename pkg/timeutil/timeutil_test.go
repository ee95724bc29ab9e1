package timeutil

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestMaxDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		want      time.Duration
	}{
		{
			name:      "multiple values returns maximum",
			durations: []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 200 * time.Millisecond},
			want:      500 * time.Millisecond,
		},
		{
			name:      "empty slice returns zero",
			durations: []time.Duration{},
			want:      0,
		},
		{
			name:      "all negative returns least negative",
			durations: []time.Duration{-100 * time.Millisecond, -50 * time.Millisecond},
			want:      -50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDuration(tt.durations); got != tt.want {
				t.Errorf("MaxDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	if got := ComputeJitter(0, *rng); got != 0 {
		t.Errorf("ComputeJitter(0) = %v, want 0", got)
	}
	if got := ComputeJitter(-time.Second, *rng); got != 0 {
		t.Errorf("ComputeJitter(-1s) = %v, want 0", got)
	}
	for i := 0; i < 100; i++ {
		got := ComputeJitter(time.Second, *rng)
		if got < 0 || got >= time.Second {
			t.Fatalf("ComputeJitter() = %v, want within [0, 1s)", got)
		}
	}
}

// The retry loop relies on count n producing initial * 2^(n-1) so that the
// n-th wait (zero-based attempt n-1) equals base * 2^attempt.
func TestExponentialBackoffDelay(t *testing.T) {
	tests := []struct {
		name         string
		backoffCount int
		backoffParam BackoffParam
		want         time.Duration
	}{
		{
			name:         "first backoff is the base delay",
			backoffCount: 1,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
			want:         1 * time.Second,
		},
		{
			name:         "second backoff doubles",
			backoffCount: 2,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
			want:         2 * time.Second,
		},
		{
			name:         "third backoff quadruples",
			backoffCount: 3,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
			want:         4 * time.Second,
		},
		{
			name:         "cap applies",
			backoffCount: 10,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 10*time.Second),
			want:         10 * time.Second,
		},
		{
			name:         "zero max means uncapped",
			backoffCount: 6,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 0),
			want:         32 * time.Second,
		},
		{
			name:         "count below one is clamped",
			backoffCount: -3,
			backoffParam: NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
			want:         1 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			got := ExponentialBackoffDelay(tt.backoffCount, 0, *rng, tt.backoffParam)
			if got != tt.want {
				t.Errorf("ExponentialBackoffDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExponentialBackoffDelay_JitterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	param := NewBackoffParam(1*time.Second, 2.0, 30*time.Second)

	for i := 0; i < 100; i++ {
		got := ExponentialBackoffDelay(2, 100*time.Millisecond, *rng, param)
		if got < 2*time.Second || got >= 2*time.Second+100*time.Millisecond {
			t.Fatalf("ExponentialBackoffDelay() = %v, want within [2s, 2.1s)", got)
		}
	}
}

func TestSleepContext_Elapses(t *testing.T) {
	start := time.Now()
	if err := SleepContext(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("SleepContext returned before the duration elapsed")
	}
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepContext(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepContext_ZeroDuration(t *testing.T) {
	if err := SleepContext(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
