package engine

import (
	"testing"
	"time"
)

func TestScheduler_ClearAbsentIsNotAnError(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if s.Clear("missing") {
		t.Error("Expected Clear of absent alarm to return false")
	}
}

func TestScheduler_FirstFireAfterFullPeriod(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	fired := make(chan struct{}, 16)
	s.Create("update", 60*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("Alarm fired before one full period elapsed")
	case <-time.After(25 * time.Millisecond):
	}

	select {
	case <-fired:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("Alarm did not fire within expected window")
	}
}

func TestScheduler_ClearStopsFiring(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	fired := make(chan struct{}, 16)
	s.Create("update", 30*time.Millisecond, func() { fired <- struct{}{} })

	if !s.Clear("update") {
		t.Fatal("Expected Clear of existing alarm to return true")
	}

	select {
	case <-fired:
		t.Error("Alarm fired after Clear")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduler_CreateReplacesExisting(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	firstFired := make(chan struct{}, 16)
	s.Create("update", 30*time.Millisecond, func() { firstFired <- struct{}{} })

	// Replace before the first alarm ever fires.
	secondFired := make(chan struct{}, 16)
	s.Create("update", 40*time.Millisecond, func() { secondFired <- struct{}{} })

	select {
	case <-secondFired:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("Replacement alarm did not fire")
	}

	select {
	case <-firstFired:
		t.Error("Replaced alarm still fired")
	default:
	}
}
