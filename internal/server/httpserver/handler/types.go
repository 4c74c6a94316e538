package handler

import (
	"time"

	"github.com/yndnr/tokgate/internal/server/httpserver"
)

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	httpserver.Response
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

// CSRFResponse is the body of GET /csrf-token.
type CSRFResponse struct {
	httpserver.Response
	CSRFToken string `json:"csrf_token"`
}

// UserResponse is the body of GET /users/:username.
type UserResponse struct {
	httpserver.Response
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Storage string `json:"storage,omitempty"`
}
