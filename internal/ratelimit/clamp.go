package ratelimit

import (
	"sync"
	"time"
)

/*
ADAPTIVE CLAMP

Derates the usable fraction of a provider's budget when it is unhealthy
and restores it gradually when it recovers. Failures are weighted twice
as heavily as successes, so two consecutive successes (after cooldown)
are required to offset a single failure — a deliberately asymmetric
control loop: providers lose headroom fast and earn it back slowly.
*/

const (
	clampMin        = 0.5
	clampMax        = 1.0
	clampStep       = 0.1
	clampCooldown   = 60 * time.Second
	clampHysteresis = 2
)

type clampState struct {
	clamp      float64
	lastAdjust time.Time
	counter    int
}

// Clamp tracks one adaptive clamp state per provider.
type Clamp struct {
	mu     sync.Mutex
	states map[string]*clampState
	clock  Clock
}

func NewClamp() *Clamp {
	return &Clamp{states: make(map[string]*clampState), clock: realClock{}}
}

func (c *Clamp) SetClock(clk Clock) { c.clock = clk }

// Adjust records a success/failure outcome for provider and returns the
// (possibly unchanged) clamp value.
func (c *Clamp) Adjust(provider string, success bool) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	state, ok := c.states[provider]
	if !ok {
		state = &clampState{clamp: clampMax, lastAdjust: now.Add(-clampCooldown)}
		c.states[provider] = state
	}

	if success {
		state.counter++
	} else {
		state.counter -= 2
	}

	if now.Sub(state.lastAdjust) < clampCooldown {
		return state.clamp
	}

	switch {
	case state.counter <= -clampHysteresis:
		state.clamp = snapToStep(maxFloat(clampMin, state.clamp-clampStep))
		state.counter = 0
		state.lastAdjust = now
	case state.counter >= clampHysteresis:
		state.clamp = snapToStep(minFloat(clampMax, state.clamp+clampStep))
		state.counter = 0
		state.lastAdjust = now
	}

	return state.clamp
}

// Get returns the current clamp for provider without recording an
// outcome, lazily initializing it to clampMax if unseen.
func (c *Clamp) Get(provider string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.states[provider]
	if !ok {
		return clampMax
	}
	return state.clamp
}

// snapToStep rounds to the nearest multiple of clampStep to avoid binary
// floating point drift accumulating across many adjustments.
func snapToStep(v float64) float64 {
	return float64(int(v/clampStep+0.5)) * clampStep
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
