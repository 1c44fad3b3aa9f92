package engine

import (
	"sync"
	"testing"

	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

func TestAggregate_SeedsZeros(t *testing.T) {
	agg := NewAggregate(provider.Phabricator, provider.Bugzilla)

	snapshot := agg.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(snapshot))
	}
	for id, count := range snapshot {
		if count != 0 {
			t.Errorf("Expected %s to start at 0, got %d", id, count)
		}
	}
	if agg.Total() != 0 {
		t.Errorf("Expected total 0, got %d", agg.Total())
	}
}

func TestAggregate_SetAndTotal(t *testing.T) {
	agg := NewAggregate(provider.Phabricator, provider.Bugzilla)

	agg.Set(provider.Phabricator, 3)
	agg.Set(provider.Bugzilla, 2)

	if got := agg.Get(provider.Phabricator); got != 3 {
		t.Errorf("Expected phabricator 3, got %d", got)
	}
	if agg.Total() != 5 {
		t.Errorf("Expected total 5, got %d", agg.Total())
	}
}

func TestAggregate_SnapshotIsCopy(t *testing.T) {
	agg := NewAggregate(provider.Phabricator)
	agg.Set(provider.Phabricator, 1)

	snapshot := agg.Snapshot()
	snapshot[provider.Phabricator] = 99

	if got := agg.Get(provider.Phabricator); got != 1 {
		t.Errorf("Snapshot mutation leaked into aggregate: got %d", got)
	}
}

func TestAggregate_ConcurrentReaders(t *testing.T) {
	agg := NewAggregate(provider.Phabricator, provider.Bugzilla)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = agg.Snapshot()
				_ = agg.Total()
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		agg.Set(provider.Phabricator, i)
		agg.Set(provider.Bugzilla, i)
	}
	wg.Wait()
}
