package checkout

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// SessionFactory builds the per-visitor dependencies a new session
// needs. The manager fills in VisitorID and shared collaborators.
type SessionFactory func(visitorID string) Deps

// Manager tracks one live session per visitor identifier.
type Manager struct {
	mu       sync.Mutex
	log      zerolog.Logger
	factory  SessionFactory
	sessions map[string]*Session
}

// NewManager creates a session manager backed by the given factory.
func NewManager(factory SessionFactory, baseLogger *zerolog.Logger) *Manager {
	return &Manager{
		log:      baseLogger.With().Str("component", "checkout_manager").Logger(),
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the live session for visitorID, creating it on
// first sight.
func (m *Manager) GetOrCreate(ctx context.Context, visitorID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[visitorID]; ok {
		return s, nil
	}

	deps := m.factory(visitorID)
	deps.VisitorID = visitorID
	s, err := NewSession(ctx, deps)
	if err != nil {
		return nil, err
	}
	m.sessions[visitorID] = s
	m.log.Info().Str("visitor_id", visitorID).Int("active", len(m.sessions)).Msg("Session created")
	return s, nil
}

// Get returns the session for visitorID if one is live.
func (m *Manager) Get(visitorID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[visitorID]
	return s, ok
}

// Release closes and forgets the session for visitorID.
func (m *Manager) Release(ctx context.Context, visitorID string) {
	m.mu.Lock()
	s, ok := m.sessions[visitorID]
	delete(m.sessions, visitorID)
	m.mu.Unlock()
	if ok {
		s.Close(ctx)
	}
}

// Close shuts every live session down.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close(ctx)
	}
}
