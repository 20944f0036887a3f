package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestGateQueriesEveryBucketEvenOnDenial(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	backend := NewMemBackend()
	registry := NewRegistry()
	registry.Init(backend, map[string]ProviderBudget{
		"coingecko": {PerSec: ptr(1), PerMin: ptr(1000)},
	})
	for _, b := range registry.BucketsFor("coingecko") {
		b.SetClock(clk)
	}
	clamp := NewClamp()
	clamp.SetClock(clk)
	gate := NewGate(registry, clamp)
	ctx := context.Background()

	allowed, _ := gate.Admit(ctx, "coingecko", "candles", 1)
	if !allowed {
		t.Fatalf("expected first admit to succeed")
	}

	// per_sec bucket is now exhausted; per_min bucket still has headroom.
	// The gate must deny overall but both buckets must have been
	// refreshed (no short-circuit).
	allowed, retry := gate.Admit(ctx, "coingecko", "candles", 1)
	if allowed {
		t.Fatalf("expected second admit to be denied by the per-second bucket")
	}
	if retry <= 0 {
		t.Fatalf("expected a positive retry_after")
	}

	clk.advance(time.Second)
	allowed, _ = gate.Admit(ctx, "coingecko", "candles", 1)
	if !allowed {
		t.Fatalf("expected admit to succeed again after waiting retry_after")
	}
}

func TestGateAppliesClampToCost(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	backend := NewMemBackend()
	registry := NewRegistry()
	registry.Init(backend, map[string]ProviderBudget{
		"etherscan": {PerSec: ptr(1)},
	})
	for _, b := range registry.BucketsFor("etherscan") {
		b.SetClock(clk)
	}
	clamp := NewClamp()
	clamp.SetClock(clk)

	// Drive clamp to 0.5 so the effective cost of a 1-token call doubles.
	for i := 0; i < 5; i++ {
		clk.advance(clampCooldown)
		clamp.Adjust("etherscan", false)
	}
	if got := clamp.Get("etherscan"); got != 0.5 {
		t.Fatalf("expected clamp at 0.5, got %v", got)
	}

	gate := NewGate(registry, clamp)
	ctx := context.Background()
	allowed, _ := gate.Admit(ctx, "etherscan", "gas", 1)
	if allowed {
		t.Fatalf("expected admit to be denied: clamped cost (2.0) exceeds capacity (1.0)")
	}
}

func TestRetryAfterHeaderRoundsUp(t *testing.T) {
	if got := RetryAfterHeader(0.2); got != 1 {
		t.Fatalf("expected ceil(0.2)=1, got %d", got)
	}
	if got := RetryAfterHeader(2.0); got != 2 {
		t.Fatalf("expected ceil(2.0)=2, got %d", got)
	}
}
