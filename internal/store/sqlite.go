package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/provdeck-ai/provdeck/internal/provider"
)

// SQLiteBackend persists the snapshot in a SQLite database, one row per
// provider plus a small table for the active pointers.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens the database and runs migrations.
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	// For in-memory databases, use shared cache so all connections in the pool
	// see the same data. Without this, each pooled connection gets a separate
	// empty database.
	if dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read/write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			app_type TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (app_type, id)
		)`,
		`CREATE TABLE IF NOT EXISTS active_providers (
			app_type TEXT PRIMARY KEY,
			provider_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_providers_position ON providers(app_type, position)`,
	}

	for _, m := range migrations {
		if _, err := b.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n  SQL: %s", err, m)
		}
	}
	return nil
}

// Load reads every provider row back into a snapshot, ordered the way they
// were written.
func (b *SQLiteBackend) Load(ctx context.Context) (*Snapshot, error) {
	snap := NewSnapshot()

	rows, err := b.db.QueryContext(ctx,
		"SELECT app_type, payload FROM providers ORDER BY app_type, position")
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var appType, payload string
		if err := rows.Scan(&appType, &payload); err != nil {
			return nil, err
		}
		var p provider.Provider
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("parse provider row: %w", err)
		}
		app := snap.Apps[appType]
		app.Providers = append(app.Providers, &p)
		snap.Apps[appType] = app
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	actives, err := b.db.QueryContext(ctx,
		"SELECT app_type, provider_id FROM active_providers")
	if err != nil {
		return nil, fmt.Errorf("query active providers: %w", err)
	}
	defer actives.Close()

	for actives.Next() {
		var appType, id string
		if err := actives.Scan(&appType, &id); err != nil {
			return nil, err
		}
		app := snap.Apps[appType]
		app.Current = id
		snap.Apps[appType] = app
	}
	return snap, actives.Err()
}

// Save replaces all rows with the snapshot's contents in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM providers"); err != nil {
		return fmt.Errorf("clear providers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM active_providers"); err != nil {
		return fmt.Errorf("clear active providers: %w", err)
	}

	for appType, app := range snap.Apps {
		for pos, p := range app.Providers {
			payload, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode provider %s: %w", p.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO providers (app_type, id, position, payload) VALUES (?, ?, ?, ?)",
				appType, p.ID, pos, string(payload),
			); err != nil {
				return fmt.Errorf("insert provider %s: %w", p.ID, err)
			}
		}
		if app.Current != "" {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO active_providers (app_type, provider_id) VALUES (?, ?)",
				appType, app.Current,
			); err != nil {
				return fmt.Errorf("insert active provider: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Close releases the database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
