package store

import (
	"context"
	"fmt"

	"github.com/provdeck-ai/provdeck/internal/config"
)

// Backend persists store snapshots. Load returns an empty snapshot when no
// state exists yet; Save replaces whatever is stored.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// NewBackend builds the backend selected by the storage config.
func NewBackend(cfg config.Storage) (Backend, error) {
	switch cfg.Driver {
	case "file", "":
		return NewFileBackend(cfg.Path), nil
	case "sqlite":
		return NewSQLiteBackend(cfg.Path)
	case "postgres":
		return NewPostgresBackend(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
