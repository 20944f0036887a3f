package ratelimit

import (
	"testing"
	"time"
)

func TestClampHysteresis(t *testing.T) {
	// S2 — Clamp hysteresis: fail drops to 0.9; a success immediately
	// after is absorbed by cooldown (no change); after the cooldown
	// elapses a further success restores to 1.0.
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewClamp()
	c.SetClock(clk)

	got := c.Adjust("coingecko", false)
	if got != 0.9 {
		t.Fatalf("expected clamp 0.9 after first failure, got %v", got)
	}

	got = c.Adjust("coingecko", true)
	if got != 0.9 {
		t.Fatalf("expected clamp unchanged within cooldown, got %v", got)
	}

	clk.advance(60 * time.Second)
	got = c.Adjust("coingecko", true)
	if got != 1.0 {
		t.Fatalf("expected clamp restored to 1.0 after cooldown, got %v", got)
	}
}

func TestClampMonotonicDriftToMinAndBackToMax(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewClamp()
	c.SetClock(clk)

	// Each failure is worth -2; hysteresis is 2, so one failure per
	// cooldown window steps the clamp down by 0.1.
	steps := int((clampMax - clampMin) / clampStep)
	for i := 0; i < steps; i++ {
		clk.advance(clampCooldown)
		c.Adjust("etherscan", false)
	}
	if got := c.Get("etherscan"); got != clampMin {
		t.Fatalf("expected clamp to settle at MIN, got %v", got)
	}

	// Two successes per cooldown window are required to offset one
	// failure; restoring requires 2x the steps.
	for i := 0; i < steps; i++ {
		clk.advance(clampCooldown)
		c.Adjust("etherscan", true)
		clk.advance(clampCooldown)
		c.Adjust("etherscan", true)
	}
	if got := c.Get("etherscan"); got != clampMax {
		t.Fatalf("expected clamp restored to MAX, got %v", got)
	}
}

func TestClampStaysWithinBounds(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewClamp()
	c.SetClock(clk)

	for i := 0; i < 50; i++ {
		clk.advance(clampCooldown)
		got := c.Adjust("mempool_space", false)
		if got < clampMin || got > clampMax {
			t.Fatalf("clamp %v out of bounds", got)
		}
	}
}
