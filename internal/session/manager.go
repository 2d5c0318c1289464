package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one editing session's server-side record. The heavy state (the
// modification store, targets, bindings) lives in the templatesync.Session it
// keys; this record only carries identity and lifecycle.
type Session struct {
	ID         string
	CompanyID  string
	TemplateID string
	CreatedAt  time.Time
	LastAccess time.Time
}

// Manager handles editing-session lifecycle for the editor server.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
}

// NewManager creates a session manager. Sessions idle longer than ttl are
// removed by CleanupExpired.
func NewManager(ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session scoped to a tenant and template.
func (m *Manager) Create(companyID, templateID string) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		TemplateID: templateID,
		CreatedAt:  now,
		LastAccess: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get returns the session and refreshes its last-access time.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastAccess = time.Now()
	return s, true
}

// Delete removes a session. Removing an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle past the TTL and returns the IDs that
// were dropped, so the caller can release whatever resources it keyed on them.
func (m *Manager) CleanupExpired() []string {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, s := range m.sessions {
		if s.LastAccess.Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}
