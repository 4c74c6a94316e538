package handler

import (
	"net/http"

	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/router"
)

// handleCSRFToken handles GET /csrf-token.
//
// Each token is good for one state-changing request of the session that
// fetched it.
func (h *Handler) handleCSRFToken(w http.ResponseWriter, r *router.Request, _ router.Params) {
	tok, err := h.auth.IssueCSRF(httpserver.SessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CSRFResponse{
		Response:  httpserver.OK(r, "CSRF token issued"),
		CSRFToken: tok,
	})
}
