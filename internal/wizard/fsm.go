// Package wizard models the quote-and-booking flow as an explicit finite
// state machine with validated transitions, replacing ad hoc step
// branching in the UI. The wizard itself performs no pricing or slot
// logic; it only records answers and gates step order.
package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"montafix/internal/pricing"
)

// State is a step of the quote wizard.
type State string

const (
	StateWelcome       State = "welcome"
	StateFurnitureType State = "furniture_type"
	StateNewFurniture  State = "new_furniture"
	StateUsedFurniture State = "used_furniture"
	StateBudgetDisplay State = "budget_display"
	StateScheduling    State = "scheduling"
	StateConfirmation  State = "confirmation"
)

// FormData holds the answers collected across wizard steps.
type FormData struct {
	FurnitureType    string       `json:"furniture_type,omitempty"` // new, used
	FurnitureValue   float64      `json:"furniture_value,omitempty"`
	HasMirror        bool         `json:"has_mirror,omitempty"`
	Size             pricing.Size `json:"size,omitempty"`
	NeedsDisassembly bool         `json:"needs_disassembly,omitempty"`
	NumberOfPieces   int          `json:"number_of_pieces,omitempty"`

	Date string `json:"date,omitempty"` // YYYY-MM-DD
	Time string `json:"time,omitempty"` // HH:MM

	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Session is one visitor's progress through the wizard.
type Session struct {
	Token     string
	State     State
	Data      FormData
	Quote     *pricing.Quote
	StartedAt time.Time
	UpdatedAt time.Time
	mu        sync.Mutex
}

// NewSession creates a session at the welcome step.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		Token:     uuid.NewString(),
		State:     StateWelcome,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetState updates the session state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
	s.UpdatedAt = time.Now()
}

// GetState returns the current state.
func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// Update applies fn to the session data under the lock.
func (s *Session) Update(fn func(*FormData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.Data)
	s.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the collected data.
func (s *Session) Snapshot() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Data
}

// SetQuote stores the computed quote for the budget display step.
func (s *Session) SetQuote(q pricing.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quote = &q
	s.UpdatedAt = time.Now()
}

// GetQuote returns the stored quote, or nil before one was computed.
func (s *Session) GetQuote() *pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quote
}

// SelectDate records the chosen date and unconditionally clears any
// previously selected time: a prior selection never carries over to a
// different date.
func (s *Session) SelectDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data.Date = date
	s.Data.Time = ""
	s.UpdatedAt = time.Now()
}

// TransitionTo validates the state change against the FSM and, if allowed,
// applies commit (when non-nil) to the session data and advances the state.
// Check and update happen under one lock acquisition, so two concurrent
// advances from the same state cannot both succeed. A rejected transition
// leaves the session untouched.
func (s *Session) TransitionTo(f *FSM, to State, commit func(*FormData)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !f.CanTransition(s.State, to) {
		return false
	}
	if commit != nil {
		commit(&s.Data)
	}
	s.State = to
	s.UpdatedAt = time.Now()
	return true
}

// IsExpired reports whether the session has been idle past timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > timeout
}

// FSM validates wizard step transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates the FSM for the quote wizard. Forward edges follow the
// flow welcome → furniture type → condition details → budget → scheduling
// → confirmation; back edges let the visitor revise earlier answers, and
// confirmation resets to welcome.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateWelcome:       {StateFurnitureType},
			StateFurnitureType: {StateNewFurniture, StateUsedFurniture, StateWelcome},
			StateNewFurniture:  {StateBudgetDisplay, StateFurnitureType},
			StateUsedFurniture: {StateBudgetDisplay, StateFurnitureType},
			StateBudgetDisplay: {StateScheduling, StateFurnitureType, StateNewFurniture, StateUsedFurniture},
			StateScheduling:    {StateConfirmation, StateBudgetDisplay},
			StateConfirmation:  {StateWelcome},
		},
	}
}

// CanTransition checks if the transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition updates the session state if the transition is allowed.
func (f *FSM) Transition(session *Session, to State) bool {
	return session.TransitionTo(f, to, nil)
}

// SessionStore manages wizard sessions by token.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
}

// NewSessionStore creates a session store with the given idle timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// Create starts a new session and registers it.
func (ss *SessionStore) Create() *Session {
	session := NewSession()
	ss.mu.Lock()
	ss.sessions[session.Token] = session
	ss.mu.Unlock()
	return session
}

// Get returns the session for a token, or nil if unknown or expired.
func (ss *SessionStore) Get(token string) *Session {
	ss.mu.RLock()
	session := ss.sessions[token]
	ss.mu.RUnlock()

	if session == nil || session.IsExpired(ss.timeout) {
		return nil
	}
	return session
}

// Delete removes a session.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for token, session := range ss.sessions {
		if session.IsExpired(ss.timeout) {
			delete(ss.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions (including not-yet-collected
// expired ones).
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
