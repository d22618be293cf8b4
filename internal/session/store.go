package session

import (
	"sync"

	"github.com/user/fridacode/internal/types"
)

// Store holds the argument vector of the most recent session for replay.
// It lives for one process; nothing is persisted.
type Store struct {
	mu   sync.Mutex
	last types.SessionArgs
}

func NewStore() *Store {
	return &Store{}
}

// Remember replaces the stored vector with a copy of args.
func (s *Store) Remember(args types.SessionArgs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = args.Clone()
}

// Last returns a copy of the stored vector, or nil when nothing was run yet.
func (s *Store) Last() types.SessionArgs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}
