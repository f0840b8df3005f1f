package dialog

import (
	"sync"
	"time"

	"github.com/harunnryd/deskflow/internal/concurrency"
)

// Store keeps dialog states in memory. States idle for longer than the TTL
// are dropped on the next access.
type Store struct {
	mu     sync.RWMutex
	states map[string]*State
	locks  *concurrency.KeyedMutex
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		states: make(map[string]*State),
		locks:  concurrency.NewKeyedMutex(),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Now() time.Time {
	return s.now()
}

// Lock serializes work on one session. Callers must hold it across a
// Get/Put cycle.
func (s *Store) Lock(sessionID string) func() {
	return s.locks.Lock(sessionID)
}

// Get returns a copy of the live state for sessionID.
func (s *Store) Get(sessionID string) (*State, bool) {
	s.mu.RLock()
	st, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.stale(st) {
		s.mu.Lock()
		if cur, ok := s.states[sessionID]; ok && cur == st {
			delete(s.states, sessionID)
		}
		s.mu.Unlock()
		return nil, false
	}
	return st.Clone(), true
}

// Put stores a copy of state and refreshes its activity time. Terminal
// states delete the entry instead.
func (s *Store) Put(state *State) {
	if state.Phase.Terminal() {
		s.Delete(state.SessionID)
		return
	}
	c := state.Clone()
	c.UpdatedAt = s.now()

	s.mu.Lock()
	s.states[state.SessionID] = c
	s.mu.Unlock()
}

func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
}

// Sweep drops stale states and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.states {
		if s.stale(st) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *Store) stale(st *State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}
