// Package inmemory provides an in-process StateRepository. State is lost on exit.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

// Store is a StateRepository backed by a map. It stores and returns clones so
// callers never share memory with it.
type Store struct {
	mu     sync.RWMutex
	states map[string]*ledger.State
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		states: make(map[string]*ledger.State),
	}
}

// LoadState returns a copy of the user's state, or an empty state.
func (s *Store) LoadState(ctx context.Context, userID string) (*ledger.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("LoadState: user id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[userID]
	if !ok {
		return ledger.NewState(), nil
	}
	return st.Clone(), nil
}

// SaveState replaces the user's state with a copy of state.
func (s *Store) SaveState(ctx context.Context, userID string, state *ledger.State) error {
	if userID == "" {
		return fmt.Errorf("SaveState: user id is required")
	}
	if state == nil {
		return fmt.Errorf("SaveState: state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = state.Clone()
	return nil
}

// Users returns the ids of every user with saved state.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.states))
	for id := range s.states {
		users = append(users, id)
	}
	return users
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
