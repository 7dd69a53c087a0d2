package wizard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        State
		to          State
		shouldAllow bool
	}{
		{"welcome to furniture type", StateWelcome, StateFurnitureType, true},
		{"furniture type to new", StateFurnitureType, StateNewFurniture, true},
		{"furniture type to used", StateFurnitureType, StateUsedFurniture, true},
		{"new to budget", StateNewFurniture, StateBudgetDisplay, true},
		{"used to budget", StateUsedFurniture, StateBudgetDisplay, true},
		{"budget to scheduling", StateBudgetDisplay, StateScheduling, true},
		{"scheduling to confirmation", StateScheduling, StateConfirmation, true},
		{"confirmation resets to welcome", StateConfirmation, StateWelcome, true},
		// Back edges
		{"new back to furniture type", StateNewFurniture, StateFurnitureType, true},
		{"budget back to new", StateBudgetDisplay, StateNewFurniture, true},
		{"budget redo from furniture type", StateBudgetDisplay, StateFurnitureType, true},
		{"scheduling back to budget", StateScheduling, StateBudgetDisplay, true},
		// Invalid jumps
		{"welcome straight to scheduling", StateWelcome, StateScheduling, false},
		{"furniture type straight to budget", StateFurnitureType, StateBudgetDisplay, false},
		{"new to used", StateNewFurniture, StateUsedFurniture, false},
		{"confirmation back to scheduling", StateConfirmation, StateScheduling, false},
		{"unknown state", State("payment"), StateWelcome, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := fsm.CanTransition(tt.from, tt.to)
			if allowed != tt.shouldAllow {
				t.Errorf("transition %s -> %s: expected allowed=%v, got %v",
					tt.from, tt.to, tt.shouldAllow, allowed)
			}
		})
	}
}

func TestFSMTransitionUpdatesSession(t *testing.T) {
	fsm := NewFSM()
	session := NewSession()

	if !fsm.Transition(session, StateFurnitureType) {
		t.Fatal("expected welcome -> furniture_type to be allowed")
	}
	if session.GetState() != StateFurnitureType {
		t.Errorf("state = %s, want %s", session.GetState(), StateFurnitureType)
	}

	if fsm.Transition(session, StateConfirmation) {
		t.Error("expected furniture_type -> confirmation to be rejected")
	}
	if session.GetState() != StateFurnitureType {
		t.Errorf("rejected transition changed state to %s", session.GetState())
	}
}

func TestSessionTransitionToCommitsOnlyOnSuccess(t *testing.T) {
	fsm := NewFSM()
	session := NewSession()

	ok := session.TransitionTo(fsm, StateFurnitureType, func(d *FormData) {
		d.Name = "Ana Ferreira"
	})
	if !ok {
		t.Fatal("expected welcome -> furniture_type to be allowed")
	}
	if got := session.Snapshot().Name; got != "Ana Ferreira" {
		t.Errorf("name = %q, want committed answer", got)
	}

	ok = session.TransitionTo(fsm, StateConfirmation, func(d *FormData) {
		d.Name = "changed"
	})
	if ok {
		t.Fatal("expected furniture_type -> confirmation to be rejected")
	}
	if got := session.Snapshot().Name; got != "Ana Ferreira" {
		t.Errorf("rejected transition changed name to %q", got)
	}
	if session.GetState() != StateFurnitureType {
		t.Errorf("rejected transition changed state to %s", session.GetState())
	}
}

func TestSessionTransitionToSerializesConcurrentAdvances(t *testing.T) {
	fsm := NewFSM()
	session := NewSession()

	// furniture_type is not reachable from itself, so of N racing
	// advances out of welcome exactly one may win.
	const workers = 16
	var (
		wg        sync.WaitGroup
		successes int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if session.TransitionTo(fsm, StateFurnitureType, nil) {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful transitions = %d, want exactly 1", successes)
	}
	if session.GetState() != StateFurnitureType {
		t.Errorf("state = %s, want %s", session.GetState(), StateFurnitureType)
	}
}

func TestSelectDateClearsTime(t *testing.T) {
	session := NewSession()
	session.Update(func(d *FormData) {
		d.Date = "2025-05-20"
		d.Time = "09:00"
	})

	session.SelectDate("2025-05-21")

	data := session.Snapshot()
	if data.Date != "2025-05-21" {
		t.Errorf("date = %s, want 2025-05-21", data.Date)
	}
	if data.Time != "" {
		t.Errorf("time = %q, want cleared", data.Time)
	}

	// Re-selecting the same date also clears: no carry-over, period.
	session.Update(func(d *FormData) { d.Time = "10:00" })
	session.SelectDate("2025-05-21")
	if got := session.Snapshot().Time; got != "" {
		t.Errorf("time = %q, want cleared on re-selection", got)
	}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(time.Minute)

	if session := store.Get("missing"); session != nil {
		t.Error("expected nil for unknown token")
	}

	created := store.Create()
	if created.Token == "" {
		t.Fatal("expected a session token")
	}
	if created.State != StateWelcome {
		t.Errorf("initial state = %s, want %s", created.State, StateWelcome)
	}

	if got := store.Get(created.Token); got != created {
		t.Error("expected to retrieve the same session")
	}

	store.Delete(created.Token)
	if store.Get(created.Token) != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	session := store.Create()
	time.Sleep(20 * time.Millisecond)

	if store.Get(session.Token) != nil {
		t.Error("expected expired session to be unavailable")
	}

	removed := store.Cleanup()
	if removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if store.Len() != 0 {
		t.Errorf("store length = %d, want 0", store.Len())
	}
}
