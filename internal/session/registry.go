package session

import (
	"sync"
	"time"

	"github.com/justyntemme/bookscout/internal/recommend"
)

// Registry hands out one recommendation controller per session owner and
// drops controllers nobody has touched for a while.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*registryEntry
	factory   func(ownerID string) *recommend.Controller
	idleTTL   time.Duration
	stopClean chan struct{}
}

// registryEntry wraps a controller with last access time
type registryEntry struct {
	controller *recommend.Controller
	lastAccess time.Time
}

// NewRegistry creates a registry. factory builds the controller for an owner
// seen for the first time.
func NewRegistry(factory func(ownerID string) *recommend.Controller, idleTTL time.Duration) *Registry {
	return &Registry{
		entries:   make(map[string]*registryEntry),
		factory:   factory,
		idleTTL:   idleTTL,
		stopClean: make(chan struct{}),
	}
}

// Get returns the owner's controller, creating it on first access.
func (r *Registry) Get(ownerID string) *recommend.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[ownerID]
	if !exists {
		entry = &registryEntry{
			controller: r.factory(ownerID),
		}
		r.entries[ownerID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.controller
}

// Len returns how many live controllers the registry holds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StartCleanup periodically evicts idle controllers until Stop is called.
func (r *Registry) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stopClean:
			return
		}
	}
}

// cleanup removes controllers idle past the TTL. In-flight runs are left to
// finish; the controller just stops being reachable.
func (r *Registry) cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := now.Add(-r.idleTTL)
	evicted := 0
	for ownerID, entry := range r.entries {
		if entry.lastAccess.Before(threshold) {
			delete(r.entries, ownerID)
			evicted++
		}
	}
	return evicted
}

// Stop stops the cleanup goroutine.
func (r *Registry) Stop() {
	close(r.stopClean)
}

// Wait blocks until every controller's in-flight runs settle. Used during
// shutdown.
func (r *Registry) Wait() {
	r.mu.Lock()
	controllers := make([]*recommend.Controller, 0, len(r.entries))
	for _, entry := range r.entries {
		controllers = append(controllers, entry.controller)
	}
	r.mu.Unlock()

	for _, controller := range controllers {
		controller.Wait()
	}
}
