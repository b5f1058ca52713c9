package core

// limiter.go bounds how many fill jobs run at once.
//
// Every fill job unpacks two uploads into its own workspace and writes one
// document per row, so unbounded parallel requests translate directly into
// disk and memory pressure. RequestLimiter hands out a fixed number of slots;
// a request that cannot get one within maxWait fails with ErrTooManyRequests.
//
// WaitForDrain supports graceful shutdown by blocking until every slot is free.

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentRequests is the default limit for parallel fill jobs.
const DefaultMaxConcurrentRequests = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// RequestLimiter controls concurrent fill jobs with a weighted semaphore.
type RequestLimiter struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewRequestLimiter creates a limiter that allows at most maxConcurrent jobs.
// Non-positive arguments fall back to the defaults.
func NewRequestLimiter(maxConcurrent int, maxWait time.Duration) *RequestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRequests
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RequestLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ctx.Err() if ctx ends first and
// ErrTooManyRequests if maxWait expires. The caller MUST call Release after a
// successful Acquire.
func (l *RequestLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRequests
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking and reports whether it succeeded.
func (l *RequestLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release returns a slot. Call exactly once per successful Acquire/TryAcquire.
func (l *RequestLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of running jobs.
func (l *RequestLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *RequestLimiter) MaxConcurrent() int {
	return int(l.max)
}

// Available returns the number of free slots.
func (l *RequestLimiter) Available() int {
	return int(l.max - l.active.Load())
}

// WaitForDrain blocks until all running jobs finish or ctx ends. New jobs
// queue behind the drain, so call it only during shutdown.
func (l *RequestLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.max); err != nil {
		return err
	}
	l.sem.Release(l.max)
	return nil
}

// RequestLimiterStatus is a snapshot of the limiter state.
type RequestLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health checks.
func (l *RequestLimiter) Status() RequestLimiterStatus {
	active := int(l.active.Load())
	return RequestLimiterStatus{
		Active:        active,
		Available:     int(l.max) - active,
		MaxConcurrent: int(l.max),
	}
}
