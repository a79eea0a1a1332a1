// Package ratelimit gates live-mode backend calls to a minimum interval.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
)

// Store holds the timestamp of the last admitted call.
type Store interface {
	// Acquire admits the call and records now when at least interval has
	// passed since the last admitted call, or when interval is not
	// positive. Otherwise it returns the remaining wait and records nothing.
	Acquire(ctx context.Context, now time.Time, interval time.Duration) (wait time.Duration, err error)
	Close() error
}

// Limiter serializes live-mode calls to at least a minimum interval apart.
// The check and the update happen under one lock so two concurrent callers
// cannot both pass.
type Limiter struct {
	mu    sync.Mutex
	store Store
}

// New returns a limiter backed by store. A nil store selects an in-process
// MemoryStore.
func New(store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{store: store}
}

// CheckAndRecord admits a call at now or returns a rate limit
// *core.EngineError carrying the remaining wait. A non-positive
// minInterval admits every call; the call is still recorded so a later
// caller with a positive interval measures from it.
func (l *Limiter) CheckAndRecord(now time.Time, minInterval time.Duration) error {
	return l.CheckAndRecordContext(context.Background(), now, minInterval)
}

// CheckAndRecordContext is CheckAndRecord with a context for stores that
// perform I/O.
func (l *Limiter) CheckAndRecordContext(ctx context.Context, now time.Time, minInterval time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	wait, err := l.store.Acquire(ctx, now, minInterval)
	if err != nil {
		return core.NewBackendError("ratelimit", 0, fmt.Sprintf("rate limit store unavailable: %v", err), err)
	}
	if wait > 0 {
		return core.NewRateLimitError(wait)
	}
	return nil
}

// Close releases the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}

// MemoryStore keeps the last call time in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	lastCallAt time.Time
}

// NewMemoryStore returns an empty store; the first call is always admitted.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Acquire implements Store.
func (s *MemoryStore) Acquire(_ context.Context, now time.Time, interval time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval > 0 && !s.lastCallAt.IsZero() {
		elapsed := now.Sub(s.lastCallAt)
		if elapsed < interval {
			return min(interval-elapsed, interval), nil
		}
	}
	s.lastCallAt = now
	return 0, nil
}

// LastCallAt returns the time of the last admitted call.
func (s *MemoryStore) LastCallAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCallAt
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
