// File: internal/dtos/auth.go
package dtos

import (
	"regexp"
	"strings"
	"time"

	"github.com/iyunix/go-docchat/internal/domain"
)

var (
	usernameRegex     = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRegex        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	passwordMinLength = 8
)

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case !usernameRegex.MatchString(r.Username):
		return NewValidationError("username", "must be 3-20 characters, alphanumeric or underscore")
	case !emailRegex.MatchString(r.Email):
		return NewValidationError("email", "invalid email address format")
	case len(r.Password) < passwordMinLength:
		return NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return NewValidationError("credentials", "username and password are required")
	}
	return nil
}

// UserResponse exposes the non-sensitive user fields in API responses.
type UserResponse struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse is the envelope for register and login results. UserData and
// SessionToken are only present on success.
type AuthResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	UserData     *UserResponse `json:"user_data,omitempty"`
	SessionToken string        `json:"session_token,omitempty"`
}

// StatusResponse is the generic {success, message} envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserFromDomain maps a domain.User to its public representation.
func UserFromDomain(user *domain.User) *UserResponse {
	return &UserResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
