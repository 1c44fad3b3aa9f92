package engine

import (
	"sync"

	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

// Aggregate holds the last-known per-provider review counts. The
// orchestrator is the only writer; the HTTP query path reads snapshots and
// must never wait on a network call, so reads take only the lock.
type Aggregate struct {
	mu     sync.RWMutex
	counts map[provider.ProviderID]int
}

// NewAggregate seeds a count of zero for every given provider so the key
// set is stable from process start.
func NewAggregate(ids ...provider.ProviderID) *Aggregate {
	counts := make(map[provider.ProviderID]int, len(ids))
	for _, id := range ids {
		counts[id] = 0
	}
	return &Aggregate{counts: counts}
}

// Set stores the count for a single provider. Each call is atomic: readers
// see either the previous or the new value, never a partial write.
func (a *Aggregate) Set(id provider.ProviderID, count int) {
	a.mu.Lock()
	a.counts[id] = count
	a.mu.Unlock()
}

// Get returns the current count for one provider.
func (a *Aggregate) Get(id provider.ProviderID) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts[id]
}

// Snapshot returns a copy of the current per-provider counts.
func (a *Aggregate) Snapshot() map[provider.ProviderID]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	counts := make(map[provider.ProviderID]int, len(a.counts))
	for id, count := range a.counts {
		counts[id] = count
	}
	return counts
}

// Total returns the sum of all provider counts.
func (a *Aggregate) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, count := range a.counts {
		total += count
	}
	return total
}
