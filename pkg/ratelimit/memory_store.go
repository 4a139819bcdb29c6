package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps per-key timestamp windows in process memory. A
// background loop drops empty windows; Close stops it.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

// NewMemoryStore creates an in-memory store with periodic cleanup.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string][]time.Time),
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) RecordIfAllowed(ctx context.Context, key string, ts time.Time, window time.Duration, limit int) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := pruneBefore(s.windows[key], ts.Add(-window))

	if len(valid) >= limit {
		s.windows[key] = valid
		return false, int64(len(valid)), nil
	}

	valid = append(valid, ts)
	s.windows[key] = valid
	return true, int64(len(valid)), nil
}

func (s *MemoryStore) CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := pruneBefore(s.windows[key], time.Now().Add(-window))
	s.windows[key] = valid
	return int64(len(valid)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// Close stops the cleanup goroutine. Safe for repeated calls.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() { close(s.stopCleanup) })
	return nil
}

func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, window := range s.windows {
				if len(window) == 0 {
					delete(s.windows, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCleanup:
			return
		}
	}
}
