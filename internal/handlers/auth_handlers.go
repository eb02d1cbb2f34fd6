// File: internal/handlers/auth_handlers.go
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/iyunix/go-docchat/internal/dtos"
	"github.com/iyunix/go-docchat/internal/middleware"
	"github.com/iyunix/go-docchat/internal/services/user_services"
)

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	AuthService *user_services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *user_services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: service}
}

// Register handles new user registrations.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dtos.AuthResponse{
			Success: false, Message: "Invalid request body",
		})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, dtos.AuthResponse{
			Success: false, Message: err.Error(),
		})
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, user_services.ErrUsernameTaken) || errors.Is(err, user_services.ErrEmailTaken) {
			status = http.StatusConflict
		}
		writeJSON(w, status, dtos.AuthResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, dtos.AuthResponse{
		Success:  true,
		Message:  "Registration successful",
		UserData: dtos.UserFromDomain(user),
	})
}

// Login validates credentials and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dtos.AuthResponse{
			Success: false, Message: "Invalid request body",
		})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, dtos.AuthResponse{
			Success: false, Message: err.Error(),
		})
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Printf("[AuthHandler] Login failed: %v", err)
		writeJSON(w, http.StatusUnauthorized, dtos.AuthResponse{
			Success: false, Message: "Invalid username or password",
		})
		return
	}

	writeJSON(w, http.StatusOK, dtos.AuthResponse{
		Success:      true,
		Message:      "Login successful",
		UserData:     dtos.UserFromDomain(user),
		SessionToken: token,
	})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.AuthService.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dtos.AuthResponse{
		Success:  true,
		Message:  "OK",
		UserData: dtos.UserFromDomain(user),
	})
}

// Logout acknowledges a sign-out. Sessions are stateless tokens, so the
// client discarding its copy is what actually ends the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dtos.StatusResponse{
		Success: true,
		Message: "Logged out",
	})
}
