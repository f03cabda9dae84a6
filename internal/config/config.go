// Package config loads and writes the provdeck application configuration.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// GenerateRandomSecret returns a cryptographically random 64-character hex
// string suitable for use as a JWT secret.
func GenerateRandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Config is the top-level application configuration.
type Config struct {
	Storage Storage `json:"storage"`
	Server  Server  `json:"server"`
	Log     Log     `json:"log"`
}

// Storage selects the profile store backend.
type Storage struct {
	// Driver is one of "file", "sqlite", "postgres". Default "file".
	Driver string `json:"driver"`
	// Path is the file or sqlite database location.
	Path string `json:"path,omitempty"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn,omitempty"`
}

// Server configures the optional HTTP control surface.
type Server struct {
	Addr              string    `json:"addr"`
	JWTSecret         string    `json:"jwt_secret"`
	JWTExpiry         Duration  `json:"jwt_expiry"`
	AdminUser         string    `json:"admin_user"`
	AdminPasswordHash string    `json:"admin_password_hash"`
	AllowedOrigins    []string  `json:"allowed_origins"`
	MaxBodyBytes      int64     `json:"max_body_bytes"`
	RateLimit         RateLimit `json:"rate_limit"`
}

// RateLimit bounds authenticated API request rates per user.
type RateLimit struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// Log configures logging.
type Log struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// DefaultDir returns the provdeck home directory (~/.provdeck).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".provdeck"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultConfig returns a config with every default applied. The store path
// is left empty until applyDefaults resolves it against the home directory.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a config file. A missing file yields the defaults
// so the CLI works before `provdeck init` has ever run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config with owner-only permissions, creating the directory
// if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "", "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be file, sqlite, or postgres")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for the postgres driver")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Path == "" && c.Storage.Driver != "postgres" {
		if dir, err := DefaultDir(); err == nil {
			name := "providers.json"
			if c.Storage.Driver == "sqlite" {
				name = "providers.db"
			}
			c.Storage.Path = filepath.Join(dir, name)
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8095"
	}
	if c.Server.JWTExpiry.Duration == 0 {
		c.Server.JWTExpiry.Duration = 24 * time.Hour
	}
	if c.Server.AdminUser == "" {
		c.Server.AdminUser = "admin"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1024 * 1024
	}
	if c.Server.RateLimit.RequestsPerSecond == 0 {
		c.Server.RateLimit.RequestsPerSecond = 25
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 50
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ValidateServe checks the fields `provdeck serve` needs beyond the basics.
func (c *Config) ValidateServe() error {
	if len(c.Server.JWTSecret) < 32 {
		return fmt.Errorf("server.jwt_secret must be at least 32 characters (run `provdeck init`)")
	}
	if c.Server.AdminPasswordHash == "" {
		return fmt.Errorf("server.admin_password_hash is required (run `provdeck init`)")
	}
	return nil
}

// LogLevel maps the configured level to slog.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Duration wraps time.Duration with JSON support for "30s"-style strings and
// plain second counts.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		dur, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		d.Duration = dur
	case float64:
		d.Duration = time.Duration(val) * time.Second
	default:
		return fmt.Errorf("invalid duration: %v", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
