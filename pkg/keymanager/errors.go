package keymanager

import "errors"

var (
	// ErrKeyNotFound signals that a lookup by key identifier failed.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnsupportedKeyType signals that the requested algorithm/curve
	// combination cannot be generated or signed with.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrSigningFailure signals that the engine could not produce a
	// signature for an otherwise-found key.
	ErrSigningFailure = errors.New("signing failure")
)
