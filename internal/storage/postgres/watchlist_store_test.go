package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fresh-wallet-scout/internal/storage"
	pgstore "fresh-wallet-scout/internal/storage/postgres"
)

func TestWatchlistStore_AddAndSymbols(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewWatchlistStore(pool)
	ctx := context.Background()

	for _, symbol := range []string{"PEPE", "wif", "Bonk"} {
		require.NoError(t, store.Add(ctx, symbol))
	}

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonk", "PEPE", "wif"}, symbols)
}

func TestWatchlistStore_AddDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewWatchlistStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "PEPE"))

	// Same spelling.
	err := store.Add(ctx, "PEPE")
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Different case hits the LOWER(symbol) unique index.
	err = store.Add(ctx, "pepe")
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"PEPE"}, symbols)
}

func TestWatchlistStore_AddEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewWatchlistStore(pool)

	err := store.Add(context.Background(), "  ")
	require.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestWatchlistStore_Remove(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewWatchlistStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "PEPE"))

	// Removal is case-insensitive as well.
	require.NoError(t, store.Remove(ctx, "pepe"))

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	err = store.Remove(ctx, "PEPE")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
