package reconcile

import (
	"errors"
	"sync"
)

// ErrBreakerTripped aborts the remaining writes of a run once repeated
// permission failures make it clear the API token lacks write access.
var ErrBreakerTripped = errors.New("aborting writes after repeated permission failures")

const defaultBreakerThreshold = 3

// Breaker trips after a number of consecutive permission failures. Any
// successful write resets the count; transient and validation errors do
// not count, only 403s do.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	consecutive int
	tripped     bool
}

func NewBreaker() *Breaker {
	return &Breaker{threshold: defaultBreakerThreshold}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tripped {
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.tripped = true
	}
}

func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}
