package domain

import "time"

// Security table limits and timeouts used when configuration leaves them
// unset.
const (
	DefaultSessionCapacity = 100
	DefaultSessionTimeout  = time.Hour

	DefaultCSRFCapacity = 100
	DefaultCSRFTimeout  = time.Hour

	DefaultRateLimitCapacity    = 100
	DefaultRateLimitWindow      = time.Minute
	DefaultRateLimitMaxAttempts = 5
)

// Session is an authenticated login identified by a random bearer token.
type Session struct {
	// Token is the bearer credential handed to the client.
	Token string

	// Username is the owner of the session, at most MaxUsernameLength bytes.
	Username string

	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// NewSession creates a session for username stamped at now.
func NewSession(token, username string, now time.Time) *Session {
	return &Session{
		Token:          token,
		Username:       TruncateUsername(username),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// IdleExpired reports whether the session has been idle for longer than
// timeout. An idle time exactly equal to timeout is still live.
func (s *Session) IdleExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastAccessedAt) > timeout
}

// Touch records an access at now.
func (s *Session) Touch(now time.Time) {
	s.LastAccessedAt = now
}

// CSRFToken is a one-time anti-forgery token bound to a session.
type CSRFToken struct {
	Token        string
	SessionToken string
	CreatedAt    time.Time
}

// Expired reports whether the token is older than timeout. The timeout is
// absolute and is not extended by use.
func (c *CSRFToken) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(c.CreatedAt) > timeout
}

// RateLimitEntry counts attempts from one source address in the current
// window.
type RateLimitEntry struct {
	SourceIP    string
	Attempts    int
	WindowStart time.Time
}

// WindowExpired reports whether the entry's window has closed.
func (e *RateLimitEntry) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(e.WindowStart) > window
}

// Reset starts a new window at now with one attempt recorded.
func (e *RateLimitEntry) Reset(now time.Time) {
	e.Attempts = 1
	e.WindowStart = now
}
