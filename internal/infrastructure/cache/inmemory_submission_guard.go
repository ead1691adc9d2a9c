package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
)

// InMemorySubmissionGuard implements SubmissionGuard using an in-memory map.
// Keys are not shared across instances, so it only fits single-instance
// deployments and tests.
type InMemorySubmissionGuard struct {
	mu        sync.Mutex
	keys      map[string]time.Time // key -> expiry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySubmissionGuard creates a new in-memory guard and starts a
// background goroutine sweeping expired keys every sweepInterval.
func NewInMemorySubmissionGuard(sweepInterval time.Duration) *InMemorySubmissionGuard {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	g := &InMemorySubmissionGuard{
		keys:     make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	g.wg.Add(1)
	go g.sweepLoop(sweepInterval)

	return g
}

// Claim records key for ttl. An expired key can be claimed again.
func (g *InMemorySubmissionGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiresAt, ok := g.keys[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	g.keys[key] = now.Add(ttl)
	return true, nil
}

// Release forgets key
func (g *InMemorySubmissionGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (g *InMemorySubmissionGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// Size returns the number of tracked keys, expired ones included
func (g *InMemorySubmissionGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.keys)
}

func (g *InMemorySubmissionGuard) sweepLoop(interval time.Duration) {
	defer g.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *InMemorySubmissionGuard) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, expiresAt := range g.keys {
		if !now.Before(expiresAt) {
			delete(g.keys, key)
		}
	}
}

// Ensure InMemorySubmissionGuard implements SubmissionGuard
var _ shared.SubmissionGuard = (*InMemorySubmissionGuard)(nil)
