// Package domain defines the core domain models for tokgate.
//
// Domain models are plain values without IO dependencies:
//
//   - Session: bearer-token login with an idle timeout
//   - CSRFToken: one-time token bound to a session
//   - RateLimitEntry: per-address attempt window
//   - User: registered account and credential format rules
//   - Errors: DomainError values with stable codes
package domain
