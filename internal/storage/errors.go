// Package storage defines the persistence interfaces of the watch-list
// and the error values every backend returns.
package storage

import "errors"

var (
	// ErrNotFound reports that the requested entry is not stored.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports an insert that collides with an existing
	// entry under the store's uniqueness rule, for the watch-list a
	// case-insensitive match on the symbol.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput reports input a store refuses to persist, such as
	// an empty symbol.
	ErrInvalidInput = errors.New("invalid input")
)
