package core

// dispatch_limiter.go bounds concurrent country module runs.
//
// Handlers run synchronously on the request goroutine and some (wave
// detection, regional aggregation) scan the whole unified table. The
// limiter caps how many run at once; when every slot is busy a request
// waits up to maxWait and then fails with ErrTooManyDispatches.
//
// WaitForDrain lets shutdown wait for running handlers.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyDispatches is returned when no dispatch slot frees up in time.
var ErrTooManyDispatches = errors.New("too many concurrent dispatches")

const (
	// DefaultMaxConcurrentDispatches is the default number of parallel handler runs.
	DefaultMaxConcurrentDispatches = 4

	// DefaultDispatchWait is how long to wait for a slot before rejecting.
	DefaultDispatchWait = 10 * time.Second
)

// DispatchLimiter is a counting semaphore over handler runs.
type DispatchLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewDispatchLimiter allows at most maxConcurrent simultaneous runs.
// Non-positive arguments select the defaults.
func NewDispatchLimiter(maxConcurrent int, maxWait time.Duration) *DispatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentDispatches
	}
	if maxWait <= 0 {
		maxWait = DefaultDispatchWait
	}
	return &DispatchLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *DispatchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyDispatches
	}
}

// Release frees a slot taken by Acquire.
func (l *DispatchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// ActiveCount returns the number of running handlers.
func (l *DispatchLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no handler is running or ctx is done.
func (l *DispatchLimiter) WaitForDrain(ctx context.Context) error {
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

// DispatchLimiterStatus is the limiter state reported by health checks.
type DispatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *DispatchLimiter) Status() DispatchLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return DispatchLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
