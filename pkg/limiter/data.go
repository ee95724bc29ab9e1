package limiter

import "time"

// timing-related data used to pace calls made under one key
type keyTiming struct {
	lastCallAt time.Time
	minDelay   time.Duration
	calls      int
}

func (k *keyTiming) MinDelay() time.Duration {
	return k.minDelay
}

func (k *keyTiming) LastCallAt() time.Time {
	return k.lastCallAt
}

func (k *keyTiming) Calls() int {
	return k.calls
}
