// Package handler implements the tokgate HTTP endpoints.
//
//   - pages.go: embedded index and dashboard pages
//   - session.go: register, login, logout, password change
//   - token.go: CSRF token issue
//   - admin.go: user lookup and Prometheus exposition
//   - health.go: liveness with a storage ping
//
// Handlers parse the form, call the auth service and answer with the
// httpserver JSON envelope. Domain errors map to statuses through
// httpserver.WriteError.
package handler
