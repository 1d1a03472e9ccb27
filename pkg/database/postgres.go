package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var Pool *pgxpool.Pool

func NewPostgresPool(databaseURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Pool = pool
	log.Info().Msg("Connected to PostgreSQL")

	return pool, nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		log.Info().Msg("Closed PostgreSQL connection pool")
	}
}

// EnsureSchema creates the console tables when they don't exist yet. The
// schema is small enough that a migration tool would be overhead.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS mod_logs (
			id BIGSERIAL PRIMARY KEY,
			target TEXT NOT NULL,
			mode TEXT NOT NULL,
			reason TEXT NOT NULL,
			group_id TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			operator TEXT NOT NULL,
			action_time TEXT NOT NULL,
			images JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mod_logs_target ON mod_logs (target)`,
		`CREATE TABLE IF NOT EXISTS operator_credentials (
			operator_id TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			totp_secret TEXT,
			totp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Transaction helper that handles commit/rollback automatically
func WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
