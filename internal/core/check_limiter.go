package core

// check_limiter.go implements concurrency control for check runs.
//
// The limiter uses a semaphore to restrict parallel checks to a configurable
// maximum. When all slots are occupied, new requests wait up to maxWait before
// failing with ErrTooManyChecks.
//
// Checks of the same dataset are additionally serialized through a keyed
// mutex, since each run rewrites the dataset's message record and flags.
//
// WaitForDrain blocks until all active checks complete and is used during
// graceful shutdown.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentChecks is the default limit for parallel checks.
const DefaultMaxConcurrentChecks = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// CheckLimiter controls concurrent check processing.
type CheckLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int

	keysMu sync.Mutex
	keys   map[string]*datasetLock
}

type datasetLock struct {
	ch   chan struct{}
	refs int
}

// NewCheckLimiter creates a limiter that allows at most maxConcurrent simultaneous checks.
// Requests that cannot acquire a slot within maxWait will receive ErrTooManyChecks.
func NewCheckLimiter(maxConcurrent int, maxWait time.Duration) *CheckLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentChecks
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &CheckLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		keys:      make(map[string]*datasetLock),
	}
}

// Acquire attempts to acquire a check slot.
// The caller MUST call Release() when the check completes.
func (l *CheckLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyChecks
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *CheckLimiter) TryAcquire() bool {
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
func (l *CheckLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// LockDataset blocks until no other check of datasetID is running and returns
// the function that releases the dataset. The wait is bounded by maxWait.
func (l *CheckLimiter) LockDataset(ctx context.Context, datasetID string) (func(), error) {
	l.keysMu.Lock()
	dl, ok := l.keys[datasetID]
	if !ok {
		dl = &datasetLock{ch: make(chan struct{}, 1)}
		l.keys[datasetID] = dl
	}
	dl.refs++
	l.keysMu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case dl.ch <- struct{}{}:
		return func() {
			<-dl.ch
			l.unref(datasetID, dl)
		}, nil
	case <-waitCtx.Done():
		l.unref(datasetID, dl)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyChecks
	}
}

func (l *CheckLimiter) unref(datasetID string, dl *datasetLock) {
	l.keysMu.Lock()
	defer l.keysMu.Unlock()
	dl.refs--
	if dl.refs == 0 {
		delete(l.keys, datasetID)
	}
}

// ActiveCount returns the number of currently active checks.
func (l *CheckLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent checks.
func (l *CheckLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of available slots.
func (l *CheckLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active checks complete or ctx is cancelled.
func (l *CheckLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
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

// CheckLimiterStatus is a snapshot of the limiter's state.
type CheckLimiterStatus struct {
	Active         int `json:"active"`
	Available      int `json:"available"`
	MaxConcurrent  int `json:"max_concurrent"`
	LockedDatasets int `json:"locked_datasets"`
}

// Status returns the current limiter state for monitoring.
func (l *CheckLimiter) Status() CheckLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	l.keysMu.Lock()
	locked := len(l.keys)
	l.keysMu.Unlock()

	return CheckLimiterStatus{
		Active:         active,
		Available:      cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent:  cap(l.semaphore),
		LockedDatasets: locked,
	}
}
