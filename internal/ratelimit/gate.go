package ratelimit

import (
	"context"
	"math"
)

/*
RATE-LIMIT GATE

Admit composes the bucket registry and the adaptive clamp into a single
admission decision for a provider call. Every bucket registered for the
provider is queried — the gate never short-circuits on the first denial
— so that refill still happens, and state stays consistent, for buckets
that were not the limiting factor this time.
*/

// Gate composes a bucket Registry and a Clamp into admission decisions.
type Gate struct {
	registry *Registry
	clamp    *Clamp
}

func NewGate(registry *Registry, clamp *Clamp) *Gate {
	return &Gate{registry: registry, clamp: clamp}
}

// Admit decides whether a call of the given base token cost to provider
// is allowed right now. route is accepted for parity with the spec's
// acquire(provider, route, tokens) contract but this gate does not
// fairness-partition within a provider (spec.md explicitly treats
// cross-route fairness as out of scope).
func (g *Gate) Admit(ctx context.Context, provider, route string, tokens float64) (allowed bool, retryAfter float64) {
	_ = route

	clampValue := g.clamp.Get(provider)
	cost := tokens / clampValue

	buckets := g.registry.BucketsFor(provider)
	allowed = true
	var maxRetry float64

	for _, b := range buckets {
		ok, retry := b.Acquire(ctx, cost)
		if !ok {
			allowed = false
			if retry > maxRetry {
				maxRetry = retry
			}
		}
	}

	if allowed {
		return true, 0
	}
	return false, maxRetry
}

// RetryAfterHeader rounds seconds up to the nearest whole second for the
// Retry-After response header.
func RetryAfterHeader(seconds float64) int {
	if math.IsInf(seconds, 1) {
		return math.MaxInt32
	}
	return int(math.Ceil(seconds))
}
