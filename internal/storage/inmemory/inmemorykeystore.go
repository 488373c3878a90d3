// Package inmemory provides a thread-safe in-memory key record store.
// All access is serialized behind a lock, so one store (and therefore one
// key manager) may be shared across goroutines.
package inmemory

import (
	"context"
	"sync"

	"github.com/tinywideclouds/go-key-manager/pkg/keystore"
)

// Store is a concrete, thread-safe in-memory implementation of the
// keystore.Store interface. Records live exactly as long as the store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New creates a new in-memory key record store.
func New() *Store {
	return &Store{records: make(map[string][]byte)}
}

// Create inserts a record if and only if the identifier is not yet present.
func (s *Store) Create(_ context.Context, keyID string, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[keyID]; ok {
		return keystore.ErrAlreadyExists
	}
	// Copy so later caller-side mutation cannot reach stored state.
	s.records[keyID] = append([]byte(nil), record...)
	return nil
}

// Get retrieves a record from the in-memory map.
func (s *Store) Get(_ context.Context, keyID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[keyID]
	if !ok {
		return nil, keystore.ErrNotFound
	}
	return append([]byte(nil), record...), nil
}
