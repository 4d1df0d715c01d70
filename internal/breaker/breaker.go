// Package breaker implements a per-source circuit breaker.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// State is the breaker position.
type State string

// Breaker states.
const (
	Closed   State = "CLOSED"
	Open     State = "OPEN"
	HalfOpen State = "HALF_OPEN"
)

// Fetch is the wrapped single-source operation.
type Fetch func(ctx context.Context) ([]rfp.Opportunity, error)

// Breaker guards one source. After failureThreshold consecutive failures the
// circuit opens and calls are rejected with rfp.ErrCircuitOpen until the
// recovery timeout elapses; then a single trial call is permitted. The
// breaker never logs or persists anything; that is the orchestrator's job.
type Breaker struct {
	mu            sync.Mutex
	threshold     int
	recovery      time.Duration
	clock         rfp.Clock
	failureCount  int
	lastFailureAt time.Time
	state         State
}

// New creates a closed Breaker. Zero or negative parameters fall back to the
// defaults of 5 failures and 60 seconds.
func New(failureThreshold int, recoveryTimeout time.Duration, clock rfp.Clock) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 60 * time.Second
	}
	return &Breaker{
		threshold: failureThreshold,
		recovery:  recoveryTimeout,
		clock:     clock,
		state:     Closed,
	}
}

// Do invokes fn through the breaker. While open and inside the recovery
// window the call is rejected immediately without invoking fn.
func (b *Breaker) Do(ctx context.Context, fn Fetch) ([]rfp.Opportunity, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	opps, err := fn(ctx)
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	b.reset()
	return opps, nil
}

// State reports the current breaker position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return nil
	}
	if b.clock.Now().Sub(b.lastFailureAt) >= b.recovery {
		b.state = HalfOpen
		return nil
	}
	return rfp.ErrCircuitOpen
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.lastFailureAt = b.clock.Now()
	if b.state == HalfOpen || b.failureCount >= b.threshold {
		b.state = Open
	}
}

func (b *Breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.state = Closed
}
