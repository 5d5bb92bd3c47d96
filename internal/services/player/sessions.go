package player

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/rpsarena/internal/model"
)

// SessionStore persists sessions by token
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	// GetSession returns model.ErrInvalidSession for unknown tokens
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// MemorySessionStore keeps sessions in a map. Expired sessions linger until
// read or cleaned.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

// NewMemorySessionStore creates an empty store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]model.Session)}
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (m *MemorySessionStore) SaveSession(ctx context.Context, session *model.Session) error {
	m.mu.Lock()
	m.sessions[session.Token] = *session
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, model.ErrInvalidSession
	}
	return &session, nil
}

func (m *MemorySessionStore) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// CleanExpired removes sessions that expired before now
func (m *MemorySessionStore) CleanExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for token, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}
