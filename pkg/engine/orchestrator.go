package engine

import (
	"context"
	"log"
	"sync"

	"github.com/reviewbadge/reviewbadge/pkg/badge"
	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

// Orchestrator runs update cycles: check every registered provider, merge
// the results into the aggregate, publish the total to the badge.
type Orchestrator struct {
	agg   *Aggregate
	badge badge.Badge

	mu        sync.RWMutex
	providers []provider.Provider

	// cycleMu serializes cycles; trigger coalesces overlapping requests
	// into at most one queued run.
	cycleMu sync.Mutex
	trigger chan struct{}
}

// NewOrchestrator creates an orchestrator publishing to the given badge.
func NewOrchestrator(agg *Aggregate, b badge.Badge) *Orchestrator {
	return &Orchestrator{
		agg:     agg,
		badge:   b,
		trigger: make(chan struct{}, 1),
	}
}

// Register adds a provider to the cycle.
func (o *Orchestrator) Register(prov provider.Provider) {
	o.mu.Lock()
	o.providers = append(o.providers, prov)
	o.mu.Unlock()
}

// Trigger requests a cycle. Non-blocking: if a trigger is already pending
// the request coalesces into it.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Start consumes triggers until the context is canceled. Timer fires and
// credential changes both land here, so cycles never overlap.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("Orchestrator started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Orchestrator stopping due to context cancellation")
			return
		case <-o.trigger:
			o.RunCycle(ctx)
		}
	}
}

// RunCycle checks all providers concurrently, waits for both to settle,
// merges the results and renders the badge. It returns the new total.
//
// Failure policy: a provider that errors keeps its previous count in the
// aggregate. Stale-but-valid beats flashing zero on a transient failure;
// since the aggregate starts at zero, a provider that has never succeeded
// contributes nothing.
func (o *Orchestrator) RunCycle(ctx context.Context) int {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	o.mu.RLock()
	providers := make([]provider.Provider, len(o.providers))
	copy(providers, o.providers)
	o.mu.RUnlock()

	results := make([]provider.CheckResult, len(providers))
	var wg sync.WaitGroup
	for i, prov := range providers {
		wg.Add(1)
		go func(i int, prov provider.Provider) {
			defer wg.Done()
			results[i] = prov.Check(ctx)
		}(i, prov)
	}
	wg.Wait()

	for _, result := range results {
		switch result.Status {
		case provider.StatusSuccess:
			o.agg.Set(result.ProviderID, result.Count)
			PendingReviews.WithLabelValues(string(result.ProviderID)).Set(float64(result.Count))
		case provider.StatusSkipped:
			// Not configured contributes a real zero, distinct from a
			// failure which preserves the last good value.
			o.agg.Set(result.ProviderID, 0)
			PendingReviews.WithLabelValues(string(result.ProviderID)).Set(0)
		case provider.StatusError:
			log.Printf("Check failed for provider %s (%s): %v", result.ProviderID, result.Kind, result.Err)
			ProviderErrors.WithLabelValues(string(result.ProviderID), string(result.Kind)).Inc()
		}
	}

	total := o.agg.Total()
	BadgeTotal.Set(float64(total))
	CycleTotal.WithLabelValues(cycleStatus(results)).Inc()

	o.badge.SetText(badge.Text(total))
	return total
}

func cycleStatus(results []provider.CheckResult) string {
	for _, r := range results {
		if r.Status == provider.StatusError {
			return "partial"
		}
	}
	return "ok"
}
