package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps the snapshot in a single JSON file. Writes go through a
// temp file and rename so a crash mid-write never leaves a torn file, and
// the previous contents are kept as a best-effort .backup copy.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend storing its snapshot at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the snapshot file location, for change watchers.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the snapshot file. A missing file means a fresh install and
// yields an empty snapshot.
func (b *FileBackend) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	if len(data) == 0 {
		return NewSnapshot(), nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.path, err)
	}
	return &snap, nil
}

// Save atomically replaces the snapshot file.
func (b *FileBackend) Save(_ context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Keep the previous contents around (best effort).
	if existing, err := os.ReadFile(b.path); err == nil && len(existing) > 0 {
		_ = os.WriteFile(b.path+".backup", existing, 0600)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error {
	return nil
}
