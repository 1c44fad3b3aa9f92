package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

type fakeBadge struct {
	mu    sync.Mutex
	texts []string
}

func (b *fakeBadge) SetText(text string) {
	b.mu.Lock()
	b.texts = append(b.texts, text)
	b.mu.Unlock()
}

func (b *fakeBadge) last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.texts) == 0 {
		return "<never set>"
	}
	return b.texts[len(b.texts)-1]
}

func newTestOrchestrator(providers ...provider.Provider) (*Orchestrator, *Aggregate, *fakeBadge) {
	agg := NewAggregate(provider.Phabricator, provider.Bugzilla)
	b := &fakeBadge{}
	orch := NewOrchestrator(agg, b)
	for _, p := range providers {
		orch.Register(p)
	}
	return orch, agg, b
}

func TestRunCycle_SumsProviders(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator, provider.Success(provider.Phabricator, 3))
	bugz := provider.NewMockProvider(provider.Bugzilla, provider.Success(provider.Bugzilla, 2))
	orch, agg, b := newTestOrchestrator(phab, bugz)

	total := orch.RunCycle(context.Background())
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if got := agg.Get(provider.Phabricator); got != 3 {
		t.Errorf("Expected phabricator 3, got %d", got)
	}
	if got := agg.Get(provider.Bugzilla); got != 2 {
		t.Errorf("Expected bugzilla 2, got %d", got)
	}
	if b.last() != "5" {
		t.Errorf("Expected badge \"5\", got %q", b.last())
	}
}

func TestRunCycle_ZeroTotalClearsBadge(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator, provider.Success(provider.Phabricator, 0))
	bugz := provider.NewMockProvider(provider.Bugzilla, provider.Skipped(provider.Bugzilla))
	orch, _, b := newTestOrchestrator(phab, bugz)

	total := orch.RunCycle(context.Background())
	if total != 0 {
		t.Errorf("Expected total 0, got %d", total)
	}
	if b.last() != "" {
		t.Errorf("Expected cleared badge, got %q", b.last())
	}
}

func TestRunCycle_ErrorPreservesPriorCount(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator,
		provider.Success(provider.Phabricator, 3),
		provider.Failed(provider.Phabricator, provider.KindTransportFailure, errors.New("connection refused")),
	)
	bugz := provider.NewMockProvider(provider.Bugzilla,
		provider.Success(provider.Bugzilla, 2),
	)
	orch, agg, b := newTestOrchestrator(phab, bugz)

	if total := orch.RunCycle(context.Background()); total != 5 {
		t.Fatalf("Expected first cycle total 5, got %d", total)
	}

	// Phabricator fails this cycle; its last good value must survive.
	if total := orch.RunCycle(context.Background()); total != 5 {
		t.Errorf("Expected second cycle total 5, got %d", total)
	}
	if got := agg.Get(provider.Phabricator); got != 3 {
		t.Errorf("Expected stale phabricator count 3 after failure, got %d", got)
	}
	if b.last() != "5" {
		t.Errorf("Expected badge \"5\" after failure, got %q", b.last())
	}
}

func TestRunCycle_RemovedCredentialZeroesSlot(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator,
		provider.Success(provider.Phabricator, 3),
		provider.Skipped(provider.Phabricator),
	)
	bugz := provider.NewMockProvider(provider.Bugzilla, provider.Success(provider.Bugzilla, 2))
	orch, agg, _ := newTestOrchestrator(phab, bugz)

	orch.RunCycle(context.Background())
	total := orch.RunCycle(context.Background())

	// Not-configured is a real zero, unlike a failure.
	if got := agg.Get(provider.Phabricator); got != 0 {
		t.Errorf("Expected phabricator 0 after credential removal, got %d", got)
	}
	if total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
}

func TestSnapshotDuringCycleSeesPriorCounts(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator,
		provider.Success(provider.Phabricator, 3),
		provider.Success(provider.Phabricator, 7),
	)
	orch, agg, _ := newTestOrchestrator(phab)

	orch.RunCycle(context.Background())

	phab.Block()
	done := make(chan struct{})
	go func() {
		orch.RunCycle(context.Background())
		close(done)
	}()

	// The second cycle is in flight; a concurrent query must see the
	// previously committed snapshot, not a partial one.
	time.Sleep(20 * time.Millisecond)
	if got := agg.Get(provider.Phabricator); got != 3 {
		t.Errorf("Expected pre-cycle count 3 while in flight, got %d", got)
	}

	phab.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cycle did not complete after release")
	}

	if got := agg.Get(provider.Phabricator); got != 7 {
		t.Errorf("Expected post-cycle count 7, got %d", got)
	}
}

func TestTrigger_CoalescesPendingRequests(t *testing.T) {
	phab := provider.NewMockProvider(provider.Phabricator, provider.Success(provider.Phabricator, 1))
	orch, _, _ := newTestOrchestrator(phab)

	// Multiple triggers before the loop starts collapse into one cycle.
	orch.Trigger()
	orch.Trigger()
	orch.Trigger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	deadline := time.After(time.Second)
	for phab.Calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("No cycle ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	time.Sleep(50 * time.Millisecond)
	if calls := phab.Calls(); calls != 1 {
		t.Errorf("Expected exactly 1 coalesced cycle, got %d", calls)
	}
}
