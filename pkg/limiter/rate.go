package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

// RateLimiter
// Keeps outgoing calls to a remote endpoint at least a minimum interval apart.
// Responsibilities:
// - Bookkeep each key's last call timestamp
// - Compute the remaining delay for a key given the base and per-key delays
// - Block a caller until the key may be called again
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetKeyDelay(key string, delay time.Duration)
	MarkLastCallAsNow(key string)
	ResolveDelay(key string) time.Duration
	Wait(ctx context.Context, key string) error
}

type ConcurrentRateLimiter struct {
	mu         sync.RWMutex
	rngMu      sync.Mutex
	baseDelay  time.Duration
	jitter     time.Duration
	keyTimings map[string]keyTiming
	rng        *rand.Rand
	now        timeutil.Clock
	sleep      timeutil.Sleeper
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		keyTimings: make(map[string]keyTiming),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
		sleep:      timeutil.SleepContext,
	}
}

// WithClock replaces the time source. Intended for tests.
func (r *ConcurrentRateLimiter) WithClock(now timeutil.Clock) *ConcurrentRateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// WithSleeper replaces how Wait blocks. Intended for tests.
func (r *ConcurrentRateLimiter) WithSleeper(sleep timeutil.Sleeper) *ConcurrentRateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleep = sleep
	return r
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetKeyDelay sets a minimum interval for one key, separate from the base delay.
func (r *ConcurrentRateLimiter) SetKeyDelay(key string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.keyTimings[key]
	timing.minDelay = delay
	r.keyTimings[key] = timing
}

func (r *ConcurrentRateLimiter) MarkLastCallAsNow(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.keyTimings[key]
	timing.lastCallAt = r.now()
	timing.calls++
	r.keyTimings[key] = timing
}

// computeJitter returns a pseudo-random duration in [0, max).
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return time.Duration(r.rng.Int63n(int64(max)))
}

// ResolveDelay computes how long a caller must still wait before calling key.
// FinalDelay = max(BaseDelay, keyDelay) + Jitter, minus the time already
// elapsed since the last call. Keys never called resolve to zero.
func (r *ConcurrentRateLimiter) ResolveDelay(key string) time.Duration {
	// copy needed state under read lock, then compute without holding r.mu
	r.mu.RLock()
	timing, exists := r.keyTimings[key]
	base := r.baseDelay
	jitter := r.jitter
	now := r.now
	r.mu.RUnlock()

	if !exists || timing.calls == 0 {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.minDelay})
	finalDelay += r.computeJitter(jitter)

	elapsed := now().Sub(timing.lastCallAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until key may be called, then records the call.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, key string) error {
	if delay := r.ResolveDelay(key); delay > 0 {
		r.mu.RLock()
		sleep := r.sleep
		r.mu.RUnlock()
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	r.MarkLastCallAsNow(key)
	return nil
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

func (r *ConcurrentRateLimiter) KeyTimings() map[string]keyTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// return a shallow copy to avoid exposing internal map for mutation
	copyMap := make(map[string]keyTiming, len(r.keyTimings))
	for k, v := range r.keyTimings {
		copyMap[k] = v
	}
	return copyMap
}
