package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/cfcli/pkg/limiter"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newLimiter(clock *fakeClock) *limiter.ConcurrentRateLimiter {
	rl := limiter.NewConcurrentRateLimiter().WithClock(clock.Now)
	rl.SetRandomSeed(42)
	return rl
}

func TestNewConcurrentRateLimiter(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter()
	rl.SetBaseDelay(2 * time.Second)
	rl.SetJitter(100 * time.Millisecond)

	if rl.BaseDelay() != 2*time.Second {
		t.Errorf("baseDelay = %v, want %v", rl.BaseDelay(), 2*time.Second)
	}
	if rl.Jitter() != 100*time.Millisecond {
		t.Errorf("jitter = %v, want %v", rl.Jitter(), 100*time.Millisecond)
	}
	if rl.KeyTimings() == nil {
		t.Error("keyTimings map not initialized")
	}
}

func TestRateLimiter_ResolveDelay_UnknownKey(t *testing.T) {
	rl := newLimiter(&fakeClock{t: time.Unix(1000, 0)})
	rl.SetBaseDelay(2 * time.Second)

	if d := rl.ResolveDelay("api"); d != 0 {
		t.Errorf("ResolveDelay = %v, want 0", d)
	}
}

func TestRateLimiter_ResolveDelay_BaseDelayOnly(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := newLimiter(clock)
	rl.SetBaseDelay(2 * time.Second)

	rl.MarkLastCallAsNow("api")
	clock.Advance(500 * time.Millisecond)

	if d := rl.ResolveDelay("api"); d != 1500*time.Millisecond {
		t.Errorf("ResolveDelay = %v, want 1.5s", d)
	}

	clock.Advance(2 * time.Second)
	if d := rl.ResolveDelay("api"); d != 0 {
		t.Errorf("ResolveDelay = %v, want 0", d)
	}
}

func TestRateLimiter_KeyDelayOverridesBase(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := newLimiter(clock)
	rl.SetBaseDelay(time.Second)
	rl.SetKeyDelay("web", 3*time.Second)

	rl.MarkLastCallAsNow("web")
	if d := rl.ResolveDelay("web"); d != 3*time.Second {
		t.Errorf("ResolveDelay = %v, want 3s", d)
	}

	timing := rl.KeyTimings()["web"]
	if timing.MinDelay() != 3*time.Second {
		t.Errorf("minDelay = %v, want 3s", timing.MinDelay())
	}
	if timing.Calls() != 1 {
		t.Errorf("calls = %d, want 1", timing.Calls())
	}
}

func TestRateLimiter_KeyDelayWithoutCallsDoesNotDelay(t *testing.T) {
	rl := newLimiter(&fakeClock{t: time.Unix(1000, 0)})
	rl.SetKeyDelay("web", 3*time.Second)

	if d := rl.ResolveDelay("web"); d != 0 {
		t.Errorf("ResolveDelay = %v, want 0", d)
	}
}

func TestRateLimiter_JitterBounds(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := newLimiter(clock)
	rl.SetBaseDelay(time.Second)
	rl.SetJitter(200 * time.Millisecond)
	rl.MarkLastCallAsNow("api")

	for i := 0; i < 50; i++ {
		d := rl.ResolveDelay("api")
		if d < time.Second || d >= 1200*time.Millisecond {
			t.Fatalf("ResolveDelay = %v, want in [1s, 1.2s)", d)
		}
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var slept []time.Duration
	rl := newLimiter(clock).WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock.Advance(d)
		return nil
	})
	rl.SetBaseDelay(2 * time.Second)

	if err := rl.Wait(context.Background(), "api"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	clock.Advance(500 * time.Millisecond)
	if err := rl.Wait(context.Background(), "api"); err != nil {
		t.Fatalf("second Wait: %v", err)
	}

	if len(slept) != 1 || slept[0] != 1500*time.Millisecond {
		t.Fatalf("slept = %v, want [1.5s]", slept)
	}
	timing := rl.KeyTimings()["api"]
	if timing.Calls() != 2 {
		t.Errorf("calls = %d, want 2", timing.Calls())
	}
	if !timing.LastCallAt().Equal(clock.Now()) {
		t.Errorf("lastCallAt = %v, want %v", timing.LastCallAt(), clock.Now())
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := newLimiter(clock)
	rl.SetBaseDelay(time.Hour)
	rl.MarkLastCallAsNow("api")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx, "api"); err != context.Canceled {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}
	timing := rl.KeyTimings()["api"]
	if calls := timing.Calls(); calls != 1 {
		t.Errorf("cancelled wait must not record a call, calls = %d", calls)
	}
}
