// Package breaker provides a small circuit breaker used to guard
// docker-exec calls against the chiabox container: once a handful of
// calls have failed in a row, further calls are rejected immediately
// instead of waiting out another exec timeout.
package breaker

import (
	"fmt"
	"sync/atomic"
	"time"
)

type state int32

const (
	closed state = iota
	open
	halfOpen
)

// Breaker is safe for concurrent use.
type Breaker struct {
	name         string
	maxFailures  int32
	resetTimeout time.Duration

	failures     atomic.Int32
	lastFailUnix atomic.Int64
	st           atomic.Int32
}

// New creates a breaker that opens after maxFailures consecutive failures
// and allows one test call again after resetTimeout.
func New(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		name:         name,
		maxFailures:  int32(maxFailures),
		resetTimeout: resetTimeout,
	}
}

// Call runs fn if the breaker allows it, recording the outcome. It returns
// an error without calling fn when the breaker is open.
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return fmt.Errorf("breaker %s: open, rejecting call", b.name)
	}
	err := fn()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	switch state(b.st.Load()) {
	case closed:
		return true
	case open:
		last := b.lastFailUnix.Load()
		if time.Since(time.Unix(0, last)) > b.resetTimeout {
			// Only the caller that moves the breaker to half-open gets
			// the single test call.
			return b.st.CompareAndSwap(int32(open), int32(halfOpen))
		}
		return false
	case halfOpen:
		return false
	default:
		return false
	}
}

func (b *Breaker) recordSuccess() {
	switch state(b.st.Load()) {
	case halfOpen:
		b.st.CompareAndSwap(int32(halfOpen), int32(closed))
		b.failures.Store(0)
	case closed:
		b.failures.Store(0)
	}
}

func (b *Breaker) recordFailure() {
	b.lastFailUnix.Store(time.Now().UnixNano())
	switch state(b.st.Load()) {
	case closed:
		if b.failures.Add(1) >= b.maxFailures {
			b.st.Store(int32(open))
		}
	case halfOpen:
		b.st.Store(int32(open))
		b.failures.Store(b.maxFailures)
	}
}

// State returns a human-readable breaker state, for diagnostics.
func (b *Breaker) State() string {
	switch state(b.st.Load()) {
	case closed:
		return "closed"
	case open:
		return "open"
	case halfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
