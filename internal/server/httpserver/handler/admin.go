package handler

import (
	"net/http"

	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/router"
)

// handleGetUser handles GET /users/:username.
func (h *Handler) handleGetUser(w http.ResponseWriter, r *router.Request, ps router.Params) {
	user, err := h.auth.LookupUser(r.Context(), ps.Get("username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, UserResponse{
		Response:  httpserver.OK(r, "User found"),
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}

// handleMetrics handles GET /metrics by handing a rebuilt net/http
// request to the promhttp handler.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *router.Request, _ router.Params) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, "/metrics", nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Header = r.Header.Clone()
	h.metrics.Handler().ServeHTTP(w, req)
}
