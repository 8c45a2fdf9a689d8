// Package breaker provides a per-service-class circuit breaker.
//
// The breaker isolates an unhealthy service: after a configured number of
// consecutive failures it opens and fast-fails callers without attempting
// the call. Once a recovery timeout elapses it admits exactly one probe in
// the half-open state; the probe's outcome decides whether the breaker
// closes again or re-opens with a fresh timer.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/finchly/parley/internal/errors"
)

// State identifies the breaker's position in its lifecycle.
type State string

const (
	// StateClosed admits all calls.
	StateClosed State = "closed"
	// StateOpen fast-fails all calls until the recovery timeout elapses.
	StateOpen State = "open"
	// StateHalfOpen admits a single probe call.
	StateHalfOpen State = "half_open"
)

// Config holds breaker thresholds.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. Must be >= 1.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before admitting a
	// half-open probe.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns sensible breaker defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Breaker tracks the health of one service class.
// It is safe for concurrent use. The lock guards only state transitions; it
// is never held for the duration of a call.
type Breaker struct {
	mu                  sync.Mutex
	config              Config
	state               State
	consecutiveFailures int
	openedAt            time.Time
	now                 func() time.Time

	// probe is the half-open admission token. Claimed by compare-and-swap so
	// concurrent callers during half-open race for exactly one slot.
	probe atomic.Bool

	// OnStateChange, if set, is invoked after each transition, outside the
	// lock. Must not block.
	OnStateChange func(from, to State)
}

// New creates a closed breaker with the given config.
func New(config Config) *Breaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 1
	}
	return &Breaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. It returns ErrCircuitOpen when
// the breaker is open and the recovery timeout has not elapsed, and when a
// half-open probe slot is already taken.
func (b *Breaker) Allow() error {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return nil

	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.RecoveryTimeout {
			b.mu.Unlock()
			return errors.ErrCircuitOpen
		}
		from := b.state
		b.state = StateHalfOpen
		b.probe.Store(false)
		b.mu.Unlock()
		b.notify(from, StateHalfOpen)
		// Fall through to claim the probe slot.

	case StateHalfOpen:
		b.mu.Unlock()
	}

	if b.probe.CompareAndSwap(false, true) {
		return nil
	}
	return errors.ErrCircuitOpen
}

// CancelProbe returns an admitted half-open probe slot without recording an
// outcome. Callers that abandon a call after Allow but before invoking the
// service (a failed quota reservation, for example) must cancel, or the
// probe slot stays claimed and the breaker wedges in half-open.
func (b *Breaker) CancelProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.probe.Store(false)
	}
}

// RecordSuccess resets the failure count and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	b.consecutiveFailures = 0
	b.state = StateClosed
	b.probe.Store(false)
	b.mu.Unlock()

	if from != StateClosed {
		b.notify(from, StateClosed)
	}
}

// RecordFailure increments the consecutive failure count. A failed half-open
// probe re-opens the breaker with a fresh timer; crossing the threshold in
// the closed state opens it.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from := b.state
	b.consecutiveFailures++

	var opened bool
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
		b.probe.Store(false)
		opened = true
	case StateClosed:
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			opened = true
		}
	}
	b.mu.Unlock()

	if opened {
		b.notify(from, StateOpen)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current consecutive failure count.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

func (b *Breaker) notify(from, to State) {
	if b.OnStateChange != nil && from != to {
		b.OnStateChange(from, to)
	}
}
