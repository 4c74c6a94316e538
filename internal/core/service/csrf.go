package service

import (
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/pkg/token"
)

// CSRFConfig holds CSRF table settings.
type CSRFConfig struct {
	// Capacity is the maximum number of live tokens (default: 100).
	Capacity int

	// Timeout is the absolute token lifetime (default: 1h).
	Timeout time.Duration

	// TokenLength is the length of generated tokens (default: 32).
	TokenLength int
}

// DefaultCSRFConfig returns default configuration.
func DefaultCSRFConfig() *CSRFConfig {
	return &CSRFConfig{
		Capacity:    domain.DefaultCSRFCapacity,
		Timeout:     domain.DefaultCSRFTimeout,
		TokenLength: token.DefaultLength,
	}
}

// CSRFManager issues one-time anti-forgery tokens bound to a session token.
type CSRFManager struct {
	mu     sync.Mutex
	tokens map[string]*domain.CSRFToken

	capacity    int
	timeout     time.Duration
	tokenLength int

	opts options
}

// NewCSRFManager creates a new CSRFManager.
func NewCSRFManager(config *CSRFConfig, opts ...Option) *CSRFManager {
	if config == nil {
		config = DefaultCSRFConfig()
	}
	def := DefaultCSRFConfig()
	if config.Capacity <= 0 {
		config.Capacity = def.Capacity
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.TokenLength <= 0 {
		config.TokenLength = def.TokenLength
	}

	return &CSRFManager{
		tokens:      make(map[string]*domain.CSRFToken, config.Capacity),
		capacity:    config.Capacity,
		timeout:     config.Timeout,
		tokenLength: config.TokenLength,
		opts:        applyOptions(opts),
	}
}

// Generate issues a token bound to sessionToken.
func (m *CSRFManager) Generate(sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", domain.ErrMissingArgument.WithDetails("session token is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	m.sweepLocked(now)

	if len(m.tokens) >= m.capacity {
		m.opts.logger.Warn("csrf table full", "capacity", m.capacity)
		return "", domain.ErrCSRFCapacity
	}

	for i := 0; i < maxTokenAttempts; i++ {
		tok := token.GenerateToken(m.tokenLength)
		entry := &domain.CSRFToken{Token: tok, SessionToken: sessionToken, CreatedAt: now}
		key := token.Hash(tok)
		if _, taken := m.tokens[key]; !taken {
			m.tokens[key] = entry
			return tok, nil
		}
	}
	return "", domain.ErrInternalServer.WithDetails("csrf token collision")
}

// Validate consumes csrfToken if it is live and bound to sessionToken.
//
// An expired token is removed. A token presented with a different session
// is rejected but stays usable by its own session, so a forged request
// cannot burn a victim's token. A successful validation removes the token.
func (m *CSRFManager) Validate(csrfToken, sessionToken string) bool {
	if csrfToken == "" || sessionToken == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := token.Hash(csrfToken)
	c, ok := m.tokens[key]
	if !ok || !token.SecureCompare(c.Token, csrfToken) {
		return false
	}

	if c.Expired(m.opts.now(), m.timeout) {
		delete(m.tokens, key)
		return false
	}

	if !token.SecureCompare(c.SessionToken, sessionToken) {
		return false
	}

	delete(m.tokens, key)
	return true
}

// RevokeSession drops every token bound to sessionToken and returns how
// many were dropped.
func (m *CSRFManager) RevokeSession(sessionToken string) int {
	if sessionToken == "" {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteLocked(func(c *domain.CSRFToken) bool {
		return token.SecureCompare(c.SessionToken, sessionToken)
	})
}

// CleanupExpired removes expired tokens and returns how many were removed.
func (m *CSRFManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.opts.now())
}

// Count returns the number of tokens in the table.
func (m *CSRFManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Capacity returns the configured table size.
func (m *CSRFManager) Capacity() int {
	return m.capacity
}

func (m *CSRFManager) sweepLocked(now time.Time) int {
	return m.deleteLocked(func(c *domain.CSRFToken) bool {
		return c.Expired(now, m.timeout)
	})
}

func (m *CSRFManager) deleteLocked(match func(*domain.CSRFToken) bool) int {
	removed := 0
	for key, c := range m.tokens {
		if match(c) {
			delete(m.tokens, key)
			removed++
		}
	}
	return removed
}
