package session

import (
	"context"
	"sync"
	"time"

	"github.com/dbchat/dbchat/internal/pipeline"
)

// MemoryStore keeps sessions in process memory. The dev default; state is
// lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.sessions[sessionID]
	if !ok {
		existing = &Session{ID: sessionID, CreatedAt: now}
		s.sessions[sessionID] = existing
	}
	existing.Turns = append(existing.Turns, turn)
	existing.UpdatedAt = now
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	copied := *existing
	copied.Turns = append([]TurnRecord(nil), existing.Turns...)
	return copied, nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string, limit int) ([]pipeline.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return HistoryFromTurns(existing.Turns, limit), nil
}
