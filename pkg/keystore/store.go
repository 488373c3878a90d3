// Package keystore contains the public persistence contract for private key
// records. It is deliberately format-agnostic: records cross the boundary as
// serialized bytes so that implementations (in-memory, Firestore, etc.) need
// no knowledge of the record schema.
package keystore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no record exists for the identifier.
	ErrNotFound = errors.New("key record not found")

	// ErrAlreadyExists is returned by Create when a record already exists for
	// the identifier. The stored record is left unchanged.
	ErrAlreadyExists = errors.New("key record already exists")
)

// Store defines the interface for private key record persistence.
// Identifiers are unique within one store instance, and a stored record is
// immutable: Create never overwrites, and no update or delete exists.
type Store interface {
	// Create inserts a record under the identifier only if the identifier is
	// not already present. It returns ErrAlreadyExists otherwise.
	Create(ctx context.Context, keyID string, record []byte) error

	// Get retrieves the record stored under the identifier, or ErrNotFound.
	Get(ctx context.Context, keyID string) ([]byte, error)
}
