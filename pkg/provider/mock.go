package provider

import (
	"context"
	"sync"
)

// MockProvider returns scripted results for engine tests
type MockProvider struct {
	id ProviderID

	mu      sync.Mutex
	results []CheckResult
	calls   int
	delay   chan struct{} // when set, Check blocks until released or ctx is done
}

// NewMockProvider creates a mock provider that replays the given results in
// order. The last result repeats once the script is exhausted.
func NewMockProvider(id ProviderID, results ...CheckResult) *MockProvider {
	return &MockProvider{id: id, results: results}
}

func (p *MockProvider) ID() ProviderID {
	return p.id
}

// Calls returns how many times Check has been invoked.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Block makes subsequent Check calls wait until Release is called.
func (p *MockProvider) Block() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = make(chan struct{})
}

// Release unblocks any Check call waiting in Block mode.
func (p *MockProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delay != nil {
		close(p.delay)
		p.delay = nil
	}
}

func (p *MockProvider) Check(ctx context.Context) CheckResult {
	p.mu.Lock()
	p.calls++
	idx := p.calls - 1
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	var result CheckResult
	if idx >= 0 {
		result = p.results[idx]
	} else {
		result = Success(p.id, 0)
	}
	delay := p.delay
	p.mu.Unlock()

	if delay != nil {
		select {
		case <-delay:
		case <-ctx.Done():
			return Failed(p.id, KindTransportFailure, ctx.Err())
		}
	}

	result.ProviderID = p.id
	return result
}
