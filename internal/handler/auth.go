package handler

import (
	"errors"
	"net/http"

	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
)

// AuthHandler serves the password login endpoint.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Password string `json:"password"`
}

// Login verifies the shared access password and returns a session token.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", model.CodeValidationError)
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required", model.CodeValidationError)
		return
	}

	token, expiresIn, err := h.authSvc.Login(req.Password, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Deliberately generic: never reveal which part of the input
			// was wrong.
			writeError(w, http.StatusUnauthorized, "Invalid credentials", model.CodeInvalidPassword)
			return
		}
		writeError(w, http.StatusInternalServerError, "Authentication error", model.CodeInternalError)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		OK:        true,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}
