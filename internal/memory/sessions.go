package memory

import (
	"context"
	"sync"
)

// SessionStore hands out the Memory owned by a session. Implementations must
// return the same logical transcript for the same session ID.
type SessionStore interface {
	// Get returns the session's Memory, creating it on first use.
	Get(ctx context.Context, sessionID string) (*Memory, error)
	// Put persists the session's Memory after the owning run mutated it.
	Put(ctx context.Context, sessionID string, m *Memory) error
}

// InMemorySessions keeps session transcripts in a process-local map. This is
// the default store; transcripts do not survive a restart.
type InMemorySessions struct {
	mu       sync.Mutex
	sessions map[string]*Memory
}

// NewInMemorySessions creates an empty in-process session store.
func NewInMemorySessions() *InMemorySessions {
	return &InMemorySessions{sessions: make(map[string]*Memory)}
}

// Get returns the session's Memory, creating it on first use.
func (s *InMemorySessions) Get(ctx context.Context, sessionID string) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		m = New()
		s.sessions[sessionID] = m
	}
	return m, nil
}

// Put is a no-op for the in-process store; Get hands out the live value.
func (s *InMemorySessions) Put(ctx context.Context, sessionID string, m *Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = m
	return nil
}
