package session

// limiter.go bounds how many uploaded files are decoded at once.
//
// Decoding a workbook holds the whole file plus its parsed grid in memory, so
// parallel uploads are limited with a semaphore. When all slots are occupied,
// new requests wait up to maxWait before failing with ErrTooManyParses.
// WaitForDrain supports graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyParses is returned when all parse slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyParses = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentParses is the default limit for parallel file decoding.
const DefaultMaxConcurrentParses = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 15 * time.Second

// ParseLimiter controls concurrent file decoding using a semaphore.
type ParseLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewParseLimiter creates a limiter that allows at most maxConcurrent
// simultaneous parses. Requests that cannot acquire a slot within maxWait
// receive ErrTooManyParses.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ParseLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire a parse slot.
// The caller MUST call Release() when parsing completes (use defer).
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyParses
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *ParseLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *ParseLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of parses in progress.
func (l *ParseLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all active parses complete or ctx is cancelled.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ParseLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
