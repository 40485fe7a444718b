// Package postgres backs the watch-list with a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pingTimeout bounds the connectivity check at startup so a wrong DSN
// fails fast instead of hanging the boot sequence.
const pingTimeout = 5 * time.Second

// Pool is the shared connection pool handed to the stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to the database at dsn and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}
