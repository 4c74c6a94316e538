package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/server/router"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// Header names.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderCSRFToken = "X-CSRF-Token"

	// FormCSRFToken is the form field accepted in place of HeaderCSRFToken.
	FormCSRFToken = "csrf_token"
)

// maxRequestIDLen bounds client-supplied request ids echoed back.
const maxRequestIDLen = 64

type contextKey string

const (
	ctxUsername     contextKey = "username"
	ctxSessionToken contextKey = "session_token"
	ctxClientIP     contextKey = "client_ip"
)

// RequestID returns the request id assigned by the RequestID middleware.
func RequestID(r *router.Request) string {
	return logger.RequestIDFromContext(r.Context())
}

// Username returns the user authenticated by the Auth middleware.
func Username(r *router.Request) string {
	s, _ := r.Value(ctxUsername).(string)
	return s
}

// SessionToken returns the bearer token accepted by the Auth middleware.
func SessionToken(r *router.Request) string {
	s, _ := r.Value(ctxSessionToken).(string)
	return s
}

// ClientIP returns the peer address recorded by the connection handler.
func ClientIP(r *router.Request) string {
	if s, ok := r.Value(ctxClientIP).(string); ok {
		return s
	}
	return hostOnly(r.RemoteAddr)
}

// clientIP picks the address used for rate limiting. Proxy headers are
// honoured only when the deployment says a trusted proxy sets them.
func clientIP(r *router.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header.
func BearerToken(r *router.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// RequestIDMiddleware tags each request with an id, reusing a well-formed
// client X-Request-ID and otherwise minting a ULID.
func RequestIDMiddleware() router.Middleware {
	return func(w http.ResponseWriter, r *router.Request) bool {
		id := r.Header.Get(HeaderRequestID)
		if !validRequestID(id) {
			id = ulid.Make().String()
		}
		w.Header().Set(HeaderRequestID, id)
		r.SetContext(logger.WithRequestID(r.Context(), id))
		return true
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// RateLimit rejects clients that exceeded the limiter's window with 429.
func RateLimit(limiter *service.RateLimiter, m *metric.Registry, log *slog.Logger) router.Middleware {
	retryAfter := strconv.Itoa(retryAfterSeconds(limiter.Window()))
	return func(w http.ResponseWriter, r *router.Request) bool {
		ip := ClientIP(r)
		if limiter.Check(ip) {
			return true
		}
		if m != nil {
			m.RateLimitDenied.Inc()
		}
		log.WarnContext(r.Context(), "rate limit exceeded", "client_ip", ip, "path", r.Path)
		w.Header().Set("Retry-After", retryAfter)
		WriteError(w, r, domain.ErrRateLimited)
		return false
	}
}

// Auth requires a valid bearer session and records the user and token on
// the request.
func Auth(auth *service.AuthService, m *metric.Registry) router.Middleware {
	return func(w http.ResponseWriter, r *router.Request) bool {
		tok := BearerToken(r)
		if tok == "" {
			if m != nil {
				m.AuthFailures.Inc()
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="tokgate"`)
			WriteError(w, r, domain.ErrUnauthenticated)
			return false
		}

		username, err := auth.Authenticate(tok)
		if err != nil {
			if m != nil {
				m.AuthFailures.Inc()
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="tokgate", error="invalid_token"`)
			WriteError(w, r, err)
			return false
		}

		r.SetValue(ctxUsername, username)
		r.SetValue(ctxSessionToken, tok)
		return true
	}
}

// CSRF consumes the one-time token sent in X-CSRF-Token or the csrf_token
// form field. It must run after Auth.
func CSRF(auth *service.AuthService, m *metric.Registry) router.Middleware {
	return func(w http.ResponseWriter, r *router.Request) bool {
		tok := r.Header.Get(HeaderCSRFToken)
		if tok == "" {
			tok = r.FormValue(FormCSRFToken)
		}

		if err := auth.VerifyCSRF(tok, SessionToken(r)); err != nil {
			if m != nil {
				m.CSRFRejected.Inc()
			}
			WriteError(w, r, err)
			return false
		}
		return true
	}
}

// retryAfterSeconds rounds d up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
