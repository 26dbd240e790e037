// Package circuitbreaker guards the upstream model backend. After a run of
// consecutive failures the breaker opens and translation calls are rejected
// immediately until a cooldown passes, then a limited number of probe calls
// decide whether to close again.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when a call is rejected while the breaker is open.
var ErrOpen = errors.New("upstream circuit open")

// State is the breaker's current mode.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker tracks upstream health for a single backend.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int

	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	openUntil        time.Time
}

// New creates a Breaker. Zero or negative arguments take the defaults:
// 5 consecutive failures to open, 1 probe success to close, 30s cooldown.
func New(failureThreshold, successThreshold int, cooldown time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
	}
}

// Do runs fn if the breaker permits it, recording the outcome. When the
// breaker is open, fn is not called and ErrOpen is returned.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// State reports the current state, applying the open-to-half-open transition
// when the cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolve()
}

// resolve must be called with b.mu held.
func (b *Breaker) resolve() State {
	if b.state == StateOpen && time.Now().After(b.openUntil) {
		b.state = StateHalfOpen
		b.successes = 0
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolve() != StateOpen
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.resolve() {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.resolve() {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip must be called with b.mu held.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openUntil = time.Now().Add(b.cooldown)
	b.failures = 0
	b.successes = 0
}
