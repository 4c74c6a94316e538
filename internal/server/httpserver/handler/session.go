package handler

import (
	"net/http"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/router"
)

// Login outcomes recorded in tokgate_auth_logins_total.
const (
	loginSuccess  = "success"
	loginInvalid  = "invalid"
	loginRejected = "rejected"
	loginError    = "error"
)

// credentials reads the username and password form fields.
func credentials(r *router.Request) (string, string, error) {
	username, password := r.FormValue("username"), r.FormValue("password")
	if username == "" || password == "" {
		return "", "", domain.ErrMissingArgument.WithDetails("username and password are required")
	}
	return username, password, nil
}

// handleRegister handles POST /register.
func (h *Handler) handleRegister(w http.ResponseWriter, r *router.Request, _ router.Params) {
	username, password, err := credentials(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.Register(r.Context(), username, password); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, httpserver.OK(r, "User registered successfully"))
}

// handleLogin handles POST /login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *router.Request, _ router.Params) {
	username, password, err := credentials(r)
	if err != nil {
		h.countLogin(loginRejected)
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		switch {
		case domain.IsDomainError(err, domain.ErrInvalidCredentials.Code):
			h.countLogin(loginInvalid)
			h.logger.WarnContext(r.Context(), "login failed",
				"username", domain.TruncateUsername(username),
				"client_ip", httpserver.ClientIP(r))
		case httpserver.StatusForCode(domain.GetErrorCode(err)) < 500:
			h.countLogin(loginRejected)
		default:
			h.countLogin(loginError)
		}
		h.writeError(w, r, err)
		return
	}

	h.countLogin(loginSuccess)
	h.logger.InfoContext(r.Context(), "user logged in", "username", res.Username)
	h.writeJSON(w, http.StatusOK, LoginResponse{
		Response:  httpserver.OK(r, "Login successful"),
		Token:     res.Token,
		CSRFToken: res.CSRFToken,
	})
}

func (h *Handler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}

// handleLogout handles POST /logout.
func (h *Handler) handleLogout(w http.ResponseWriter, r *router.Request, _ router.Params) {
	h.auth.Logout(httpserver.SessionToken(r))
	h.logger.InfoContext(r.Context(), "user logged out", "username", httpserver.Username(r))
	h.writeJSON(w, http.StatusOK, httpserver.OK(r, "Logged out successfully"))
}

// handleChangePassword handles POST /account/password.
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *router.Request, _ router.Params) {
	oldPassword, newPassword := r.FormValue("old_password"), r.FormValue("new_password")
	if oldPassword == "" || newPassword == "" {
		h.writeError(w, r, domain.ErrMissingArgument.WithDetails("old_password and new_password are required"))
		return
	}

	if err := h.auth.ChangePassword(r.Context(), httpserver.Username(r), oldPassword, newPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, httpserver.OK(r, "Password changed successfully"))
}
