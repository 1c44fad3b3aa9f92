package engine

import (
	"sync"
	"time"
)

// Scheduler manages named recurring timers. Creating an alarm under an
// existing name replaces it, so an interval change is a Clear+Create pair
// with no window where two timers fire.
type Scheduler struct {
	mu     sync.Mutex
	alarms map[string]*alarm
}

type alarm struct {
	ticker *time.Ticker
	done   chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{alarms: make(map[string]*alarm)}
}

// Create registers an alarm that invokes fire every period, the first time
// one full period from now. An existing alarm with the same name is
// replaced.
func (s *Scheduler) Create(name string, period time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(name)

	a := &alarm{
		ticker: time.NewTicker(period),
		done:   make(chan struct{}),
	}
	s.alarms[name] = a

	go func() {
		for {
			select {
			case <-a.done:
				return
			case <-a.ticker.C:
				fire()
			}
		}
	}()
}

// Clear cancels the named alarm. Clearing an absent alarm is not an error;
// the return value reports whether one existed.
func (s *Scheduler) Clear(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(name)
}

func (s *Scheduler) clearLocked(name string) bool {
	a, ok := s.alarms[name]
	if !ok {
		return false
	}
	a.ticker.Stop()
	close(a.done)
	delete(s.alarms, name)
	return true
}

// Stop cancels every alarm. Called on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.alarms {
		s.clearLocked(name)
	}
}
