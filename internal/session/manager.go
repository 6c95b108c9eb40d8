package session

// manager.go keeps live import sessions in memory and expires idle ones.
//
// Sessions hold the parsed sheet until they are confirmed or discarded, so
// abandoned sessions are swept after an idle TTL. The sweeper is long-running
// and context-aware for graceful shutdown.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// ManagerConfig configures a Manager. Zero values select defaults.
type ManagerConfig struct {
	Session       Options
	TTL           time.Duration
	MaxConcurrent int           // Parallel file decodes
	MaxWait       time.Duration // Wait for a decode slot
}

// Manager owns the live sessions.
type Manager struct {
	opts    Options
	ttl     time.Duration
	limiter *ParseLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		opts:     cfg.Session,
		ttl:      ttl,
		limiter:  NewParseLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session for the record type.
func (m *Manager) Create(rt schema.RecordType, mode Mode) (*Session, error) {
	s, err := New(uuid.NewString(), rt, mode, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Debug("import session created", "session_id", s.ID, "record_type", rt, "mode", s.Mode)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Upload decodes a file into the session, waiting for a parse slot first.
func (m *Manager) Upload(ctx context.Context, s *Session, name string, r io.Reader) error {
	if err := m.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer m.limiter.Release()

	return s.LoadFile(ctx, name, r)
}

// Discard abandons a session and forgets it. Completed sessions are
// forgotten without changing state.
func (m *Manager) Discard(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if s.Stage() != StageComplete {
		if err := s.Discard(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// List returns live sessions, newest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Limiter exposes the parse limiter for status reporting and shutdown.
func (m *Manager) Limiter() *ParseLimiter {
	return m.limiter
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.opts.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper removes idle sessions every interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 4
	}
	slog.Info("session sweeper started", "ttl", m.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired idle import sessions", "removed", n, "remaining", m.Count())
			}
		}
	}
}
