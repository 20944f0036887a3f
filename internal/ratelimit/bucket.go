package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"
)

/*
TOKEN BUCKET

One Bucket instance owns one (provider, period) key. State is read from
the coordination backend, refilled, debited or denied, and written back
on every call — regardless of outcome, so that a denying call still
advances the refill clock for the next caller.

Fail-closed-but-available: a backend transport error falls back
transparently to an in-process map for this key. The fallback must never
panic and must still deny when exhausted; it does not retroactively
reconcile with the shared backend once it becomes reachable again.
*/

// Clock abstracts wall-clock time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Bucket implements the token bucket algorithm of a single (provider,
// period) pair.
type Bucket struct {
	key        string
	capacity   float64
	refillRate float64 // tokens per second; 0 means "not instantiated", never used
	backend    Backend
	clock      Clock

	mu    sync.Mutex
	local *pairState // in-process fallback mirror, created lazily
}

type pairState struct {
	available float64
	last      time.Time
}

// NewBucket builds a Bucket for capacity tokens refilling at refillRate
// tokens/second, stored under key on backend.
func NewBucket(backend Backend, key string, capacity, refillRate float64) *Bucket {
	return &Bucket{
		key:        key,
		capacity:   capacity,
		refillRate: refillRate,
		backend:    backend,
		clock:      realClock{},
	}
}

// SetClock overrides the time source; used only by tests.
func (b *Bucket) SetClock(c Clock) { b.clock = c }

// Acquire attempts to debit cost tokens from the bucket. It returns
// whether the call is allowed and, when denied, the number of seconds
// the caller should wait before retrying.
func (b *Bucket) Acquire(ctx context.Context, cost float64) (allowed bool, retryAfter float64) {
	now := b.clock.Now()

	available, last, err := b.read(ctx)
	if err != nil {
		return b.acquireLocal(now, cost)
	}

	available = refill(available, last, now, b.capacity, b.refillRate)

	if available >= cost {
		available -= cost
		allowed = true
	} else {
		retryAfter = deficitSeconds(cost-available, b.refillRate)
	}

	if werr := b.write(ctx, available, now); werr != nil {
		// Writing back failed after a successful read: fall back locally
		// for this call only, the backend is treated as unreachable.
		return b.acquireLocal(now, cost)
	}
	return allowed, retryAfter
}

func (b *Bucket) read(ctx context.Context) (available float64, last time.Time, err error) {
	raw, ok, err := b.backend.Get(ctx, b.key)
	if err != nil {
		return 0, time.Time{}, err
	}
	if !ok {
		return b.capacity, b.clock.Now(), nil
	}
	var pair [2]float64
	if jsonErr := json.Unmarshal(raw, &pair); jsonErr != nil {
		return 0, time.Time{}, jsonErr
	}
	return pair[0], time.Unix(0, int64(pair[1]*float64(time.Second))), nil
}

func (b *Bucket) write(ctx context.Context, available float64, now time.Time) error {
	pair := [2]float64{available, float64(now.UnixNano()) / float64(time.Second)}
	raw, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	return b.backend.Set(ctx, b.key, raw)
}

func (b *Bucket) acquireLocal(now time.Time, cost float64) (allowed bool, retryAfter float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.local == nil {
		b.local = &pairState{available: b.capacity, last: now}
	}

	available := refill(b.local.available, b.local.last, now, b.capacity, b.refillRate)

	if available >= cost {
		available -= cost
		allowed = true
	} else {
		retryAfter = deficitSeconds(cost-available, b.refillRate)
	}

	b.local.available = available
	b.local.last = now
	return allowed, retryAfter
}

// refill returns the post-refill token count, never granting negative
// refill for non-monotonic clocks.
func refill(available float64, last, now time.Time, capacity, refillRate float64) float64 {
	elapsed := now.Sub(last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	available += elapsed * refillRate
	if available > capacity {
		available = capacity
	}
	return available
}

// deficitSeconds computes how long to wait for `deficit` more tokens at
// refillRate tokens/second. A zero refill rate is reserved for
// "no limit at this period" and is never instantiated, so this returns
// +Inf defensively rather than dividing by zero.
func deficitSeconds(deficit, refillRate float64) float64 {
	if refillRate <= 0 {
		return math.Inf(1)
	}
	return deficit / refillRate
}
