package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"fresh-wallet-scout/internal/storage"
)

// Postgres raises 23505 (unique_violation) when the case-insensitive
// index on LOWER(symbol) rejects an insert.
const uniqueViolationCode = "23505"

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Symbols returns all watched symbols sorted alphabetically.
func (s *WatchlistStore) Symbols(ctx context.Context) ([]string, error) {
	query := `SELECT symbol FROM watchlist ORDER BY symbol`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}
	return symbols, nil
}

// Add inserts a new symbol. Returns ErrDuplicateKey if the symbol is
// already watched, comparing case-insensitively via a unique index on
// LOWER(symbol).
func (s *WatchlistStore) Add(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO watchlist (symbol, added_at) VALUES ($1, $2)`

	_, err := s.pool.Exec(ctx, query, symbol, time.Now().UnixMilli())
	if err != nil {
		if duplicateKey(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert watchlist symbol: %w", err)
	}
	return nil
}

func duplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Remove deletes a symbol. Returns ErrNotFound if it is not watched.
func (s *WatchlistStore) Remove(ctx context.Context, symbol string) error {
	query := `DELETE FROM watchlist WHERE LOWER(symbol) = LOWER($1)`

	tag, err := s.pool.Exec(ctx, query, strings.TrimSpace(symbol))
	if err != nil {
		return fmt.Errorf("delete watchlist symbol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
