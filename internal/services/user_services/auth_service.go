// File: internal/services/user_services/auth_service.go
package user_services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/repository/user"
)

const tokenLifetime = 24 * time.Hour

type AuthService struct {
	userRepo     user.UserRepository
	jwtSecretKey string
	logger       Logger
}

func NewAuthService(userRepo user.UserRepository, jwtSecretKey string, logger Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		logger:       logger,
	}
}

// Register validates the input, checks uniqueness, and creates the user with
// a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	s.logger.Info("user registration attempt",
		"username", maskName(username),
		"email_domain", emailDomain(email))

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		s.logger.Warn("registration failed - username already exists",
			"username", maskName(username),
			"existing_user_id", existing.ID)
		return nil, ErrUsernameTaken
	}

	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		s.logger.Warn("registration failed - email already exists",
			"email_domain", emailDomain(email),
			"existing_user_id", existing.ID)
		return nil, ErrEmailTaken
	}

	u := &domain.User{
		Username: username,
		Email:    email,
	}
	if err := u.HashPassword(password); err != nil {
		s.logger.Error("password hashing failed",
			"error", err,
			"username", maskName(username))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := u.IsValid(); err != nil {
		s.logger.Warn("registration validation failed",
			"username", maskName(username),
			"error", err.Error())
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, u)
	if err != nil {
		s.logger.Error("user creation failed",
			"error", err,
			"username", maskName(username))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered successfully",
		"username", maskName(username),
		"user_id", created.ID)

	return created, nil
}

// Login authenticates a user and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	if username == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials",
			"has_username", username != "",
			"has_password", password != "")
		return nil, "", ErrInvalidCredentials
	}

	s.logger.Info("user login attempt", "username", maskName(username))

	u, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("login failed - user not found",
			"username", maskName(username))
		return nil, "", ErrInvalidCredentials
	}

	if err := u.ValidatePassword(password); err != nil {
		s.logger.Warn("login failed - invalid password",
			"username", maskName(username),
			"user_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	u.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, u); err != nil {
		// Not fatal for login; the session is still valid.
		s.logger.Warn("failed to record last login time",
			"error", err,
			"user_id", u.ID)
	}

	token, err := s.generateJWTToken(u)
	if err != nil {
		s.logger.Error("JWT token generation failed",
			"error", err,
			"user_id", u.ID)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("login successful",
		"username", maskName(username),
		"user_id", u.ID)

	return u, token, nil
}

// ValidateJWTToken validates a session token and returns the user ID.
func (s *AuthService) ValidateJWTToken(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			s.logger.Warn("JWT token with invalid signing method",
				"method", token.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		s.logger.Warn("JWT token validation failed", "error", err)
		return 0, ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			s.logger.Warn("JWT token missing user_id claim")
			return 0, ErrInvalidToken
		}
		s.logger.Debug("JWT token validated successfully", "user_id", uint(userID))
		return uint(userID), nil
	}

	s.logger.Warn("JWT token validation failed - invalid claims")
	return 0, ErrInvalidToken
}

// GetUser loads a user by ID, for the /api/auth/me handler.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("user lookup failed", "user_id", userID, "error", err)
		return nil, err
	}
	return u, nil
}

func (s *AuthService) generateJWTToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
		"exp":      now.Add(tokenLifetime).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}

func maskName(name string) string {
	return name[:min(4, len(name))] + "****"
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}
