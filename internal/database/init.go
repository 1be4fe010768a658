package database

import (
	"context"
	"fmt"
)

// Schema creates the tables the service needs when they do not exist.
// Production deployments run migrations separately; this covers local
// development and tests against a scratch database.
const Schema = `
CREATE TABLE IF NOT EXISTS bets (
	id UUID PRIMARY KEY,
	runner_name TEXT NOT NULL,
	race_id TEXT NOT NULL,
	plan_name TEXT NOT NULL DEFAULT '',
	odds DOUBLE PRECISION NOT NULL CHECK (odds > 1.0),
	stake DOUBLE PRECISION NOT NULL CHECK (stake > 0),
	status TEXT NOT NULL,
	placed_at TIMESTAMPTZ NOT NULL,
	settled_at TIMESTAMPTZ,
	return_amount DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bets_status ON bets (status);
CREATE INDEX IF NOT EXISTS idx_bets_race_id ON bets (race_id);
CREATE INDEX IF NOT EXISTS idx_bets_settled_at ON bets (settled_at);

CREATE TABLE IF NOT EXISTS bankroll_snapshots (
	time TIMESTAMPTZ NOT NULL,
	balance DOUBLE PRECISION NOT NULL,
	initial DOUBLE PRECISION NOT NULL,
	exposure DOUBLE PRECISION NOT NULL,
	daily_loss DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bankroll_snapshots_time ON bankroll_snapshots (time DESC);
`

// Initialize creates a database connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg Config) (*DB, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}
