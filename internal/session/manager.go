package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/navarasa/internal/assess"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Manager keeps the live sessions of a process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rules    assess.Rules
	sink     StatusSink
	log      *zap.Logger
}

// NewManager creates a manager whose sessions share sink and logger.
// Either may be nil.
func NewManager(sink StatusSink, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		rules:    assess.DefaultRules,
		sink:     sink,
		log:      logger,
	}
}

// Create starts a new session with the given advisory locale.
func (m *Manager) Create(locale string) (*Session, error) {
	rules := m.rules
	s, err := New(Options{
		Locale: locale,
		Rules:  &rules,
		Logger: m.log,
		Sink:   m.sink,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.log.Info("session created", zap.String("session", s.ID()), zap.String("locale", s.Locale()))
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns the live sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Delete closes and removes the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	m.log.Info("session ended", zap.String("session", id))
	return nil
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
