// Package providers models the outbound third-party clients (CoinGecko,
// Etherscan, mempool.space) and the breaker-guarded call wrapper that
// fronts them.
package providers

import (
	"context"
	"runtime"
	"time"

	"cryptobff-gateway/internal/breaker"
	"cryptobff-gateway/internal/ratelimit"
)

/*
PROVIDER CALL WRAPPER

Each outbound operation is expressed as an Op and invoked through
Breaker.Call. Inside the op: a per-call timeout is applied, and
transport/HTTP/shape failures are retried up to `retries` times with a
cooperative yield between attempts so the scheduler stays responsive.
Retries never run while the breaker is open: the breaker short-circuits
before Op is invoked at all.

The clamp feedback signal (success = !raised) is recorded once per
outer invocation, not per retry attempt.
*/

const (
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 3
)

// Op is one attempt at an outbound provider operation.
type Op func(ctx context.Context) error

// Retryable is implemented by errors that are worth retrying (transport
// failures, non-2xx HTTP status, or a response missing expected
// fields). Errors that don't implement it are still retried by default;
// this interface exists so a provider client can opt OUT of retrying a
// given failure (e.g. a 403, which the breaker treats specially and
// retrying would only delay the freeze).
type Retryable interface {
	error
	Retryable() bool
}

// Caller composes the breaker and adaptive clamp around outbound calls
// for one provider.
type Caller struct {
	Provider string
	Breaker  *breaker.Breaker
	Clamp    *ratelimit.Clamp
	Timeout  time.Duration
	Retries  int
}

func NewCaller(provider string, b *breaker.Breaker, clamp *ratelimit.Clamp) *Caller {
	return &Caller{
		Provider: provider,
		Breaker:  b,
		Clamp:    clamp,
		Timeout:  DefaultTimeout,
		Retries:  DefaultRetries,
	}
}

// Call executes op through the breaker with a bounded per-attempt
// timeout and retry budget, then feeds the outcome to the adaptive
// clamp.
func (c *Caller) Call(ctx context.Context, traceID string, op Op) error {
	err := c.Breaker.Call(ctx, func(ctx context.Context) error {
		return c.callWithRetries(ctx, op)
	}, traceID)

	if c.Clamp != nil {
		c.Clamp.Adjust(c.Provider, err == nil)
	}
	return err
}

func (c *Caller) callWithRetries(ctx context.Context, op Op) error {
	retries := c.Retries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		err := op(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if r, ok := err.(Retryable); ok && !r.Retryable() {
			return err
		}

		if attempt < retries-1 {
			// Cooperative yield so retrying does not starve the scheduler.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				runtime.Gosched()
			}
		}
	}
	return lastErr
}
