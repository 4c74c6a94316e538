// Package service provides the security services of tokgate.
//
// This package contains:
//
//   - SessionManager: bearer-token sessions with an idle timeout
//   - CSRFManager: one-time tokens bound to a session
//   - RateLimiter: per-address attempt windows
//   - AuthService: registration, login, logout and password changes
//   - Janitor: periodic cleanup of the tables above
//
// The tables live in process memory only and are safe for concurrent use.
// Each is guarded by its own mutex, so contention on one table never blocks
// another.
package service
