package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres persistence for saved games, finished games and the
// historian's action log.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for the given URL and pings it.
func Connect(ctx context.Context, url string) (*Store, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ,
	won         BOOLEAN NOT NULL DEFAULT FALSE,
	moves       INT NOT NULL DEFAULT 0,
	layout      INT[]
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	action_index   INT NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, action_index)
);

CREATE TABLE IF NOT EXISTS saved_games (
	id         UUID PRIMARY KEY,
	rules      JSONB NOT NULL,
	deck       INT[] NOT NULL,
	moves      JSONB NOT NULL DEFAULT '[]',
	layout     INT[],
	throughs   INT NOT NULL DEFAULT 1,
	won        BOOLEAN NOT NULL DEFAULT FALSE,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
