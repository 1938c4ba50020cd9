package memory

import (
	"context"
	"sync"

	"github.com/cardea-project/cardea/internal/cardea/store"
)

// TransitionStore is an in-memory append-only log of lifecycle transitions.
// It is intended for use in tests and dev environments.
type TransitionStore struct {
	mu          sync.Mutex
	transitions []store.TransitionRecord
}

func NewTransitionStore() *TransitionStore {
	return &TransitionStore{}
}

func (s *TransitionStore) RecordTransition(_ context.Context, rec store.TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, rec)
	return nil
}

// Transitions returns a copy of all recorded transitions. Test-only helper.
func (s *TransitionStore) Transitions() []store.TransitionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.TransitionRecord, len(s.transitions))
	copy(out, s.transitions)
	return out
}
