package database

import (
	"context"
	"fmt"

	"github.com/yourusername/clever-tipster/internal/config"
)

// schema creates the tables the tipster writes to. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reliability_profiles (
		source_id        TEXT PRIMARY KEY,
		weight           DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		roi              DOUBLE PRECISION NOT NULL DEFAULT 0,
		has_roi          BOOLEAN NOT NULL DEFAULT FALSE,
		drift_error_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS decision_records (
		run_id         UUID NOT NULL,
		match_id       TEXT NOT NULL,
		league         TEXT NOT NULL DEFAULT '',
		market         TEXT NOT NULL DEFAULT '',
		best_pick      TEXT NOT NULL,
		probability    DOUBLE PRECISION NOT NULL,
		correction     DOUBLE PRECISION NOT NULL,
		edge_score     DOUBLE PRECISION NOT NULL,
		value_index    DOUBLE PRECISION NOT NULL,
		ev_home        DOUBLE PRECISION NOT NULL,
		ev_draw        DOUBLE PRECISION NOT NULL,
		ev_away        DOUBLE PRECISION NOT NULL,
		odds           DOUBLE PRECISION NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL,
		risk           DOUBLE PRECISION NOT NULL,
		stake_fraction DOUBLE PRECISION NOT NULL,
		eligible       BOOLEAN NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, match_id)
	)`,
	`CREATE INDEX IF NOT EXISTS decision_records_match_idx ON decision_records (match_id, created_at DESC)`,
}

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
