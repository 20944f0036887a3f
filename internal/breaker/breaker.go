// Package breaker implements the provider-call circuit breaker state
// machine: closed / open / half-open, plus a sticky frozen sub-state
// entered on an upstream 403 and cleared only by an operator reset.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the breaker is
// open (or half-open and already probing).
var ErrOpen = errors.New("circuit breaker open")

// HTTPStatusError is implemented by provider errors that carry an
// upstream HTTP status code; the breaker inspects it to detect 403s.
type HTTPStatusError interface {
	error
	StatusCode() int
}

// Breaker is one provider's circuit breaker.
type Breaker struct {
	failureThreshold int
	probeInterval    time.Duration
	clock            func() time.Time // monotonic, injectable for tests
	log              zerolog.Logger

	onOpen func() // optional hook invoked on every transition into Open

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	hasOpen  bool
	frozen   bool
}

// New builds a Breaker that opens after failureThreshold consecutive
// failures and allows a probe once probeInterval has elapsed since
// opening.
func New(failureThreshold int, probeInterval time.Duration, log zerolog.Logger) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		probeInterval:    probeInterval,
		clock:            time.Now,
		log:              log,
		state:            Closed,
	}
}

// SetClock overrides the (monotonic) time source; used only by tests.
func (b *Breaker) SetClock(f func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = f
}

// SetOnOpen registers fn to be called, without the breaker's lock held,
// every time the breaker transitions into the Open state.
func (b *Breaker) SetOnOpen(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onOpen = fn
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Frozen reports whether the breaker is latched open by a 403.
func (b *Breaker) Frozen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frozen
}

// Call executes op respecting the current breaker state. If the breaker
// is open and not eligible for a probe, op is never invoked and ErrOpen
// is returned. Any non-nil error from op counts as a failure; an
// HTTPStatusError with StatusCode() == 403 latches the breaker open with
// frozen = true.
func (b *Breaker) Call(ctx context.Context, op func(ctx context.Context) error, traceID string) error {
	probing, err := b.preCall()
	if err != nil {
		return err
	}

	callErr := op(ctx)
	b.postCall(callErr, probing, traceID)
	return callErr
}

func (b *Breaker) preCall() (probing bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		// A probe is already in flight; only that single call is admitted.
		return false, ErrOpen
	}
	if b.state != Open {
		return false, nil
	}

	now := b.clock()
	if !b.frozen && b.hasOpen && now.Sub(b.openedAt) >= b.probeInterval {
		b.state = HalfOpen
		return true, nil
	}
	return false, ErrOpen
}

func (b *Breaker) postCall(callErr error, wasProbe bool, traceID string) {
	b.mu.Lock()

	now := b.clock()

	if callErr == nil {
		b.failures = 0
		b.state = Closed
		b.hasOpen = false
		b.mu.Unlock()
		return
	}

	b.failures++

	if statusErr, ok := callErr.(HTTPStatusError); ok && statusErr.StatusCode() == 403 {
		b.state = Open
		b.openedAt = now
		b.hasOpen = true
		b.frozen = true
		onOpen := b.onOpen
		b.log.Info().Str("trace_id", traceID).Msg("breaker frozen")
		b.mu.Unlock()
		if onOpen != nil {
			onOpen()
		}
		return
	}

	opened := wasProbe || b.failures >= b.failureThreshold
	if opened {
		b.state = Open
		b.openedAt = now
		b.hasOpen = true
	}
	onOpen := b.onOpen
	b.mu.Unlock()
	if opened && onOpen != nil {
		onOpen()
	}
}

// ForceOpen is the operator's manual override: opens the breaker
// unconditionally and clears any freeze.
func (b *Breaker) ForceOpen() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = b.clock()
	b.hasOpen = true
	b.frozen = false
	onOpen := b.onOpen
	b.mu.Unlock()
	if onOpen != nil {
		onOpen()
	}
}

// Reset is the operator's manual override: closes the breaker and clears
// the freeze. This is the only way to clear a frozen breaker.
func (b *Breaker) Reset(traceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.hasOpen = false
	b.frozen = false
	b.log.Info().Str("trace_id", traceID).Msg("breaker reset")
}
