package storage

import "context"

// WatchlistStore provides access to the tracked token symbols.
//
// Symbols are matched case-insensitively: "PEPE" and "pepe" are the same
// entry. Stores keep the spelling the symbol was first added with.
type WatchlistStore interface {
	// Symbols returns all watched symbols sorted alphabetically.
	Symbols(ctx context.Context) ([]string, error)

	// Add inserts a new symbol. Returns ErrDuplicateKey if the symbol is
	// already watched and ErrInvalidInput if it is empty.
	Add(ctx context.Context, symbol string) error

	// Remove deletes a symbol. Returns ErrNotFound if it is not watched.
	Remove(ctx context.Context, symbol string) error
}
