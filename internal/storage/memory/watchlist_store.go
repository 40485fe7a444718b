// Package memory provides in-memory storage implementations, used when no
// database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fresh-wallet-scout/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore with an in-memory map.
type WatchlistStore struct {
	mu sync.RWMutex
	// Keyed by lowercased symbol, value keeps the original spelling.
	symbols map[string]string
}

// NewWatchlistStore creates an empty in-memory watchlist.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{symbols: make(map[string]string)}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Symbols returns all watched symbols sorted alphabetically.
func (s *WatchlistStore) Symbols(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.symbols))
	for _, original := range s.symbols {
		out = append(out, original)
	}
	sort.Strings(out)
	return out, nil
}

// Add inserts a new symbol. Returns ErrDuplicateKey if the symbol is
// already watched, comparing case-insensitively.
func (s *WatchlistStore) Add(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(symbol)
	if _, exists := s.symbols[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.symbols[key] = symbol
	return nil
}

// Remove deletes a symbol. Returns ErrNotFound if it is not watched.
func (s *WatchlistStore) Remove(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(symbol))
	if _, exists := s.symbols[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.symbols, key)
	return nil
}
