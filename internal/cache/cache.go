// Package cache provides the read-through cache used for expenses.
package cache

import (
	"context"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores a value in the cache
	Set(ctx context.Context, key string, data T) error

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string) error
}

// Nop is a cache that never stores anything.
type Nop[T any] struct{}

func (Nop[T]) Get(context.Context, string) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (Nop[T]) Set(context.Context, string, T) error { return nil }

func (Nop[T]) Delete(context.Context, string) error { return nil }

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
// onClean, if set, receives the number of entries removed by each pass.
func (m *Manager) StartCleanup(interval time.Duration, onClean func(int)) {
	go m.cleanup(interval, onClean)
}

func (m *Manager) cleanup(interval time.Duration, onClean func(int)) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range m.caches {
				total += c.CleanExpired()
			}
			if onClean != nil && total > 0 {
				onClean(total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup routine started by StartCleanup and waits for it.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
