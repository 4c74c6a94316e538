package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/tokgate/internal/server/router"
)

// healthPingTimeout bounds the storage check of /health.
const healthPingTimeout = 2 * time.Second

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *router.Request, _ router.Params) {
	resp := HealthResponse{Status: "ok", Version: h.version}

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := h.storage.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "health check: storage unreachable", "error", err)
			resp.Status, resp.Storage = "degraded", "unreachable"
			h.writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Storage = "ok"
	}
	h.writeJSON(w, http.StatusOK, resp)
}
