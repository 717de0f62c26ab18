package session

import (
	"sync"

	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/logger"
)

// Manager holds the single active session. Starting a session tears down
// the previous one first.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	current *Session
	log     *logger.Logger
}

func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{cfg: cfg, log: cfg.Logger.WithPrefix("session-manager")}
}

// Bus is shared by every session the manager starts.
func (m *Manager) Bus() *events.Bus { return m.cfg.Bus }

// MinHours is the shortest session Start accepts.
func (m *Manager) MinHours() float64 { return m.cfg.MinHours }

// Start validates the input and replaces any current session. On a
// validation error the current session is left running.
func (m *Manager) Start(hours float64, rawText string) (*Session, error) {
	store, err := prepare(hours, rawText, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.log.Info("replacing session %s", m.current.ID())
		m.current.Stop()
		m.current = nil
	}
	m.current = build(hours, store, m.cfg)
	return m.current, nil
}

func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Stop ends and forgets the current session.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}
	m.current.Stop()
	m.current = nil
	return nil
}
