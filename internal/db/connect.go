package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"puzzle_sync/internal/logger"
)

// Connect opens a pgx pool and verifies it with a ping. The database
// is optional for the relay, so failures are returned, not fatal.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database connected")
	return pool, nil
}
