package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	configJSON := `{
		"storage": {
			"driver": "sqlite",
			"path": "/tmp/providers.db"
		},
		"server": {
			"addr": ":9000",
			"jwt_secret": "my-super-secret-jwt-key-at-least-32",
			"jwt_expiry": "2h",
			"admin_user": "root",
			"admin_password_hash": "$2a$10$abcdefghijklmnopqrstuv",
			"allowed_origins": ["http://localhost:3000"],
			"max_body_bytes": 4096,
			"rate_limit": {
				"requests_per_second": 20,
				"burst": 40
			}
		},
		"log": {
			"level": "debug",
			"format": "json"
		}
	}`

	path := writeTempConfig(t, configJSON)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver: got %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Storage.Path != "/tmp/providers.db" {
		t.Errorf("Storage.Path: got %q", cfg.Storage.Path)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr: got %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.Server.JWTSecret != "my-super-secret-jwt-key-at-least-32" {
		t.Errorf("Server.JWTSecret: got %q", cfg.Server.JWTSecret)
	}
	if cfg.Server.JWTExpiry.Duration != 2*time.Hour {
		t.Errorf("Server.JWTExpiry: got %v, want 2h", cfg.Server.JWTExpiry.Duration)
	}
	if cfg.Server.AdminUser != "root" {
		t.Errorf("Server.AdminUser: got %q, want %q", cfg.Server.AdminUser, "root")
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.AllowedOrigins: got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.MaxBodyBytes != 4096 {
		t.Errorf("Server.MaxBodyBytes: got %d, want 4096", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 20 {
		t.Errorf("RateLimit.RequestsPerSecond: got %f, want 20", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if cfg.Server.RateLimit.Burst != 40 {
		t.Errorf("RateLimit.Burst: got %d, want 40", cfg.Server.RateLimit.Burst)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format: got %q, want %q", cfg.Log.Format, "json")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("Storage.Driver: got %q, want %q", cfg.Storage.Driver, "file")
	}
	if cfg.Server.Addr != "127.0.0.1:8095" {
		t.Errorf("Server.Addr: got %q, want %q", cfg.Server.Addr, "127.0.0.1:8095")
	}
}

func TestApplyDefaults(t *testing.T) {
	// Minimal config, everything else should be filled in.
	path := writeTempConfig(t, `{"storage": {"driver": "file", "path": "/tmp/p.json"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8095" {
		t.Errorf("default Server.Addr: got %q", cfg.Server.Addr)
	}
	if cfg.Server.JWTExpiry.Duration != 24*time.Hour {
		t.Errorf("default JWTExpiry: got %v, want 24h", cfg.Server.JWTExpiry.Duration)
	}
	if cfg.Server.AdminUser != "admin" {
		t.Errorf("default AdminUser: got %q, want %q", cfg.Server.AdminUser, "admin")
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("default AllowedOrigins: got %v, want [*]", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.MaxBodyBytes != 1024*1024 {
		t.Errorf("default MaxBodyBytes: got %d, want %d", cfg.Server.MaxBodyBytes, 1024*1024)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 25 {
		t.Errorf("default RateLimit.RequestsPerSecond: got %f, want 25", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if cfg.Server.RateLimit.Burst != 50 {
		t.Errorf("default RateLimit.Burst: got %d, want 50", cfg.Server.RateLimit.Burst)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default Log.Level: got %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("default Log.Format: got %q, want %q", cfg.Log.Format, "text")
	}
}

func TestDefaultSQLitePath(t *testing.T) {
	path := writeTempConfig(t, `{"storage": {"driver": "sqlite"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasSuffix(cfg.Storage.Path, "providers.db") {
		t.Errorf("sqlite path: got %q, want a providers.db default", cfg.Storage.Path)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"bad driver", `{"storage": {"driver": "redis"}}`},
		{"postgres without dsn", `{"storage": {"driver": "postgres"}}`},
		{"bad log level", `{"log": {"level": "loud"}}`},
		{"bad log format", `{"log": {"format": "xml"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, tc.json)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error for missing jwt_secret, got nil")
	}

	cfg.Server.JWTSecret = "short"
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error for short jwt_secret, got nil")
	}

	cfg.Server.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error for missing admin_password_hash, got nil")
	}

	cfg.Server.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":7777"
	cfg.Server.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode: got %o, want 0600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Addr != ":7777" {
		t.Errorf("Server.Addr after round trip: got %q", loaded.Server.Addr)
	}
	if loaded.Server.JWTSecret != cfg.Server.JWTSecret {
		t.Errorf("JWTSecret after round trip: got %q", loaded.Server.JWTSecret)
	}
	if loaded.Server.JWTExpiry.Duration != 24*time.Hour {
		t.Errorf("JWTExpiry after round trip: got %v", loaded.Server.JWTExpiry.Duration)
	}
}

func TestDurationForms(t *testing.T) {
	path := writeTempConfig(t, `{"server": {"jwt_expiry": 90}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.JWTExpiry.Duration != 90*time.Second {
		t.Errorf("numeric expiry: got %v, want 90s", cfg.Server.JWTExpiry.Duration)
	}

	path = writeTempConfig(t, `{"server": {"jwt_expiry": "bogus"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bogus duration, got nil")
	}
}

func TestGenerateRandomSecret(t *testing.T) {
	a, err := GenerateRandomSecret()
	if err != nil {
		t.Fatalf("GenerateRandomSecret: %v", err)
	}
	b, err := GenerateRandomSecret()
	if err != nil {
		t.Fatalf("GenerateRandomSecret: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("secret length: got %d, want 64", len(a))
	}
	if a == b {
		t.Error("two generated secrets are identical")
	}
}
