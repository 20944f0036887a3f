package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cryptobff-gateway/internal/breaker"
	"cryptobff-gateway/internal/ratelimit"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func TestCallerRetriesUpToLimit(t *testing.T) {
	b := breaker.New(10, time.Second, zerolog.Nop())
	clamp := ratelimit.NewClamp()
	c := NewCaller("coingecko", b, clamp)
	c.Retries = 3

	var attempts int
	err := c.Call(context.Background(), "", func(context.Context) error {
		attempts++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestCallerStopsRetryingOn403(t *testing.T) {
	b := breaker.New(10, time.Second, zerolog.Nop())
	clamp := ratelimit.NewClamp()
	c := NewCaller("etherscan", b, clamp)
	c.Retries = 5

	var attempts int
	err := c.Call(context.Background(), "", func(context.Context) error {
		attempts++
		return newStatusError("http://x", 403)
	})
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	if attempts != 1 {
		t.Fatalf("expected a 403 to short-circuit retries, got %d attempts", attempts)
	}
	if !b.Frozen() {
		t.Fatalf("expected breaker to freeze on 403")
	}
}

func TestCallerDoesNotRunOpWhileBreakerOpen(t *testing.T) {
	b := breaker.New(1, time.Hour, zerolog.Nop())
	clamp := ratelimit.NewClamp()
	c := NewCaller("mempool_space", b, clamp)

	_ = c.Call(context.Background(), "", func(context.Context) error {
		return errors.New("boom")
	})
	if b.State() != breaker.Open {
		t.Fatalf("expected breaker to open after the first failure")
	}

	ran := false
	err := c.Call(context.Background(), "", func(context.Context) error {
		ran = true
		return nil
	})
	if ran {
		t.Fatalf("op must not run while the breaker is open")
	}
	if !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestCallerFeedsClampOncePerOuterInvocation(t *testing.T) {
	b := breaker.New(10, time.Second, zerolog.Nop())
	clk := &stepClock{t: time.Unix(0, 0)}
	clamp := ratelimit.NewClamp()
	clamp.SetClock(clk)
	c := NewCaller("fx", b, clamp)
	c.Retries = 3

	_ = c.Call(context.Background(), "", func(context.Context) error {
		return errors.New("transient")
	})

	// A single outer call that retried 3 times should register as one
	// failure to the clamp, not three. That first failure is not
	// cooldown-gated: it steps the clamp from MAX to 0.9 and resets the
	// counter. One cooldown later a success leaves the counter at +1, so
	// the clamp stays at 0.9. Had all three attempts been recorded, the
	// counter would be -3 and this adjustment would step down to 0.8.
	clk.t = clk.t.Add(time.Minute)
	got := clamp.Adjust("fx", true)
	if got != 0.9 {
		t.Fatalf("expected clamp to stay at 0.9 after one recorded failure, got %v", got)
	}
}
