package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/provdeck-ai/provdeck/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return NewService(config.Server{
		AdminUser:         "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret-at-least-32-chars-long",
		JWTExpiry:         config.Duration{Duration: 1 * time.Hour},
	})
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Login("admin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned empty token")
	}

	// Token should be a valid JWT (three dot-separated parts).
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Errorf("expected JWT with 3 parts, got %d", len(parts))
	}

	user, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if user != "admin" {
		t.Errorf("ValidateToken user: got %q, want %q", user, "admin")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login("admin", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login("mallory", "hunter2hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestService(t)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("ValidateToken(%q): expected ErrUnauthorized, got %v", tok, err)
		}
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Login("admin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	other := NewService(config.Server{
		AdminUser:         "admin",
		AdminPasswordHash: "irrelevant",
		JWTSecret:         "a-completely-different-32-char-secret",
		JWTExpiry:         config.Duration{Duration: 1 * time.Hour},
	})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign token, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	svc := NewService(config.Server{
		AdminUser:         "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret-at-least-32-chars-long",
		JWTExpiry:         config.Duration{Duration: 1 * time.Millisecond},
	})

	token, err := svc.Login("admin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}
