package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/google/uuid"
)

// Manager maintains the set of active sessions keyed by id.
type Manager struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager constructs a manager that creates sessions using the config.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (m *Manager) Create() (*Session, error) {
	id := uuid.NewString()

	s, err := New(id, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.changed(s.Snapshot())

	return s, nil
}

// Retrieve returns the session for the id.
func (m *Manager) Retrieve(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session %q: %w", id, explainer.ErrNotFound)
	}

	return s, nil
}

// Delete ends the session and stops any mining it has in progress.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %q: %w", id, explainer.ErrNotFound)
	}

	s.Close()
	return nil
}

// Prune ends every session that has not been used within the idle duration
// and returns the ids that were removed.
func (m *Manager) Prune(idle time.Duration) []string {
	cutoff := m.cfg.Now().Add(-idle)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, len(expired))
	for i, s := range expired {
		s.Close()
		ids[i] = s.ID()
	}

	if len(ids) > 0 {
		m.cfg.EvHandler("session: Prune: removed[%d]", len(ids))
	}

	return ids
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Shutdown ends every session.
func (m *Manager) Shutdown() {
	m.cfg.EvHandler("session: Shutdown: started")
	defer m.cfg.EvHandler("session: Shutdown: completed")

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Digest computes the digest of arbitrary input for the hashing demo.
func (m *Manager) Digest(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("input is required: %w", explainer.ErrInvalidInput)
	}

	return m.cfg.Digester.Digest(input)
}

// Algorithm returns the name of the digest algorithm in use.
func (m *Manager) Algorithm() string {
	return m.cfg.Digester.Algorithm()
}
