package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"
)

/*
FX CLIENT

The FX provider is a deterministic stub (spec.md §1): instead of calling
a live service, it derives a stable pseudo-rate from a SHA-256 hash of
the currency pair, in the range [0.5, 1.5), so the same pair always
produces the same rate across restarts and test runs.

FXClient also carries its own legacy consecutive-failure counter and
threshold (failures, openedAt) predating the shared breaker registry,
per spec.md §4.6 and §9: "the wrapper's internal counter is an
acceptable implementation shortcut only when a breaker is not
registered." In this gateway a breaker IS always registered for "fx" by
app.New, and the /fx handler calls DeterministicRate directly through
that breaker rather than through an FXClient, so this internal
bookkeeping is reachable only
through FXClient's own unit tests constructing one standalone, not
through the HTTP surface — it exists for compatibility, not as the
active breaker for production traffic.
*/

type FXClient struct {
	ReconcileWith time.Duration // legacy reset_timeout

	mu       sync.Mutex
	failures int
	openedAt time.Time
	hasOpen  bool

	threshold int
	clock     func() time.Time
}

func NewFXClient() *FXClient {
	return &FXClient{
		ReconcileWith: 60 * time.Second,
		threshold:     5,
		clock:         time.Now,
	}
}

// DeterministicRate returns a stable pseudo exchange rate for base/quote,
// derived from a SHA-256 hash of the pair, in [0.5, 1.5).
func DeterministicRate(base, quote string) float64 {
	sum := sha256.Sum256([]byte(base + ":" + quote))
	value := binary.BigEndian.Uint64(sum[:8])
	return 0.5 + float64(value%1000)/1000.0
}

// legacyBreakerOpen reports whether the FX client's own (non-authoritative)
// breaker bookkeeping currently blocks calls.
func (c *FXClient) legacyBreakerOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasOpen {
		return false
	}
	if c.clock().Sub(c.openedAt) > c.ReconcileWith {
		c.failures = 0
		c.hasOpen = false
		return false
	}
	return true
}

func (c *FXClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.hasOpen = false
}

func (c *FXClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openedAt = c.clock()
		c.hasOpen = true
	}
}

// GetRate returns the deterministic rate for base/quote, honoring the
// legacy internal breaker when this client is used standalone (no
// shared breaker registered).
func (c *FXClient) GetRate(_ context.Context, base, quote string) (float64, error) {
	if c.legacyBreakerOpen() {
		return 0, ErrLegacyBreakerOpen
	}
	rate := DeterministicRate(base, quote)
	c.recordSuccess()
	return rate, nil
}

// ErrLegacyBreakerOpen mirrors the FX client's pre-registry
// CircuitBreakerOpen exception.
var ErrLegacyBreakerOpen = legacyBreakerOpenError{}

type legacyBreakerOpenError struct{}

func (legacyBreakerOpenError) Error() string { return "circuit breaker open" }
