package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/router"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// Pinger reports whether the credential store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the endpoints.
type Deps struct {
	Auth    *service.AuthService
	Limiter *service.RateLimiter

	// Storage is pinged by /health when set.
	Storage Pinger

	Metrics *metric.Registry
	Logger  *slog.Logger
	Version string
}

// Handler serves the application endpoints.
type Handler struct {
	auth    *service.AuthService
	limiter *service.RateLimiter
	storage Pinger
	metrics *metric.Registry
	logger  *slog.Logger
	version string

	index     *page
	dashboard *page
}

// New creates a Handler.
func New(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:      deps.Auth,
		limiter:   deps.Limiter,
		storage:   deps.Storage,
		metrics:   deps.Metrics,
		logger:    logger,
		version:   deps.Version,
		index:     mustPage("static/index.html"),
		dashboard: mustPage("static/dashboard.html"),
	}
}

// Register adds every endpoint to rt.
func (h *Handler) Register(rt *router.Router) {
	auth := httpserver.Auth(h.auth, h.metrics)
	csrf := httpserver.CSRF(h.auth, h.metrics)
	limit := httpserver.RateLimit(h.limiter, h.metrics, h.logger)

	rt.Register(http.MethodGet, "/", h.handleIndex)
	rt.RegisterWithMiddleware(http.MethodGet, "/dashboard", h.handleDashboard, auth)

	rt.Register(http.MethodPost, "/register", h.handleRegister)
	rt.RegisterWithMiddleware(http.MethodPost, "/login", h.handleLogin, limit)
	rt.RegisterWithMiddleware(http.MethodPost, "/logout", h.handleLogout, auth)
	rt.RegisterWithMiddleware(http.MethodGet, "/csrf-token", h.handleCSRFToken, auth)
	rt.RegisterWithMiddleware(http.MethodPost, "/account/password", h.handleChangePassword, auth, csrf)
	rt.RegisterWithMiddleware(http.MethodGet, "/users/:username", h.handleGetUser, auth)

	h.RegisterAdmin(rt)
}

// RegisterAdmin adds the operational endpoints only. The admin socket
// serves a router built with it.
func (h *Handler) RegisterAdmin(rt *router.Router) {
	rt.Register(http.MethodGet, "/health", h.handleHealth)
	if h.metrics != nil {
		rt.Register(http.MethodGet, "/metrics", h.handleMetrics)
	}
}

// noStore marks a response as uncacheable. Every JSON answer carries
// tokens or account state.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	noStore(w)
	httpserver.WriteJSON(w, status, v)
}

// writeError logs failures that are not the client's fault and writes
// the error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *router.Request, err error) {
	noStore(w)
	if status := httpserver.StatusForCode(domain.GetErrorCode(err)); status >= 500 {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.Path,
			"error", err)
	}
	httpserver.WriteError(w, r, err)
}
