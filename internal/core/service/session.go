package service

import (
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/pkg/token"
)

// maxTokenAttempts bounds retries when a freshly generated token collides
// with a live one.
const maxTokenAttempts = 3

// SessionConfig holds session table settings.
type SessionConfig struct {
	// Capacity is the maximum number of live sessions (default: 100).
	Capacity int

	// Timeout is the idle timeout (default: 1h).
	Timeout time.Duration

	// TokenLength is the length of generated tokens (default: 32).
	TokenLength int
}

// DefaultSessionConfig returns default configuration.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Capacity:    domain.DefaultSessionCapacity,
		Timeout:     domain.DefaultSessionTimeout,
		TokenLength: token.DefaultLength,
	}
}

// SessionManager is a capacity-bounded table of bearer-token sessions with
// lazy idle expiry.
//
// Entries are keyed by token.Hash of the bearer token; the stored token is
// confirmed with token.SecureCompare before a match is accepted. One mutex
// serializes every operation so the capacity check and insert are atomic.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	capacity    int
	timeout     time.Duration
	tokenLength int

	opts options
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(config *SessionConfig, opts ...Option) *SessionManager {
	if config == nil {
		config = DefaultSessionConfig()
	}
	def := DefaultSessionConfig()
	if config.Capacity <= 0 {
		config.Capacity = def.Capacity
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.TokenLength <= 0 {
		config.TokenLength = def.TokenLength
	}

	return &SessionManager{
		sessions:    make(map[string]*domain.Session, config.Capacity),
		capacity:    config.Capacity,
		timeout:     config.Timeout,
		tokenLength: config.TokenLength,
		opts:        applyOptions(opts),
	}
}

// Create starts a session for username and returns its bearer token.
//
// Expired sessions are swept first. If every slot still holds a live
// session, Create fails with domain.ErrSessionCapacity; live sessions are
// never evicted.
func (m *SessionManager) Create(username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	m.sweepLocked(now)

	if len(m.sessions) >= m.capacity {
		m.opts.logger.Warn("session table full", "capacity", m.capacity)
		return "", domain.ErrSessionCapacity
	}

	for i := 0; i < maxTokenAttempts; i++ {
		tok := token.GenerateToken(m.tokenLength)
		key := token.Hash(tok)
		if _, taken := m.sessions[key]; !taken {
			m.sessions[key] = domain.NewSession(tok, username, now)
			return tok, nil
		}
	}
	return "", domain.ErrInternalServer.WithDetails("session token collision")
}

// Validate reports whether tok names a live session and returns its owner.
//
// A session idle for longer than the timeout is removed and reported
// invalid. A successful validation refreshes the idle timer.
func (m *SessionManager) Validate(tok string) (string, bool) {
	if tok == "" {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := token.Hash(tok)
	s, ok := m.sessions[key]
	if !ok || !token.SecureCompare(s.Token, tok) {
		return "", false
	}

	now := m.opts.now()
	if s.IdleExpired(now, m.timeout) {
		delete(m.sessions, key)
		return "", false
	}

	s.Touch(now)
	return s.Username, true
}

// Destroy removes the session with exactly this token. Unknown tokens are
// ignored.
func (m *SessionManager) Destroy(tok string) {
	if tok == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := token.Hash(tok)
	if s, ok := m.sessions[key]; ok && token.SecureCompare(s.Token, tok) {
		delete(m.sessions, key)
	}
}

// CleanupExpired removes idle-expired sessions and returns how many were
// removed.
func (m *SessionManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.opts.now())
}

// Count returns the number of sessions in the table, including expired
// ones not yet swept.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Capacity returns the configured table size.
func (m *SessionManager) Capacity() int {
	return m.capacity
}

func (m *SessionManager) sweepLocked(now time.Time) int {
	removed := 0
	for key, s := range m.sessions {
		if s.IdleExpired(now, m.timeout) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}
