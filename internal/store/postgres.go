package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/provdeck-ai/provdeck/internal/provider"
)

// PostgresBackend persists the snapshot in PostgreSQL, for deployments that
// share one provider set across machines.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend connects and runs migrations.
func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	b := &PostgresBackend{db: db}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return b, nil
}

func (b *PostgresBackend) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			app_type TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			payload JSONB NOT NULL,
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

// Load reads every provider row back into a snapshot.
func (b *PostgresBackend) Load(ctx context.Context) (*Snapshot, error) {
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
func (b *PostgresBackend) Save(ctx context.Context, snap *Snapshot) error {
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
				"INSERT INTO providers (app_type, id, position, payload) VALUES ($1, $2, $3, $4)",
				appType, p.ID, pos, string(payload),
			); err != nil {
				return fmt.Errorf("insert provider %s: %w", p.ID, err)
			}
		}
		if app.Current != "" {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO active_providers (app_type, provider_id) VALUES ($1, $2)",
				appType, app.Current,
			); err != nil {
				return fmt.Errorf("insert active provider: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Close releases the connection pool.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
