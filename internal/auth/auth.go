// Package auth issues and validates the bearer tokens that guard the HTTP
// control surface. provdeck has a single admin account configured in the
// server section of the config file.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/provdeck-ai/provdeck/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Claims represents the JWT token claims.
type Claims struct {
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Service authenticates the configured admin account and signs session tokens.
type Service struct {
	user         string
	passwordHash string
	jwtSecret    []byte
	jwtExpiry    time.Duration
}

// NewService creates an auth service from the server config.
func NewService(cfg config.Server) *Service {
	return &Service{
		user:         cfg.AdminUser,
		passwordHash: cfg.AdminPasswordHash,
		jwtSecret:    []byte(cfg.JWTSecret),
		jwtExpiry:    cfg.JWTExpiry.Duration,
	}
}

// Login checks the credentials against the configured account and returns a
// signed JWT token.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.user {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateToken(username)
}

// ValidateToken validates a bearer token and returns the username it was
// issued for.
func (s *Service) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrUnauthorized
	}
	return claims.Username, nil
}

func (s *Service) generateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// HashPassword returns the bcrypt hash stored in the config for the admin
// account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
