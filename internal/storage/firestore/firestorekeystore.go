// Package firestore provides a key record store implementation using Google
// Cloud Firestore. It backs the "remote vault" form of the key manager: the
// record bytes are stored opaquely, one document per key identifier.
package firestore

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-key-manager/pkg/keystore"
)

// keyDocument is the structure stored in a Firestore document. The record is
// the serialized private key record; Firestore never sees its schema.
type keyDocument struct {
	Record []byte `firestore:"record"`
}

// Store is a concrete implementation of the keystore.Store interface using
// Firestore. Immutability is enforced with document Create, which fails on
// an existing document instead of overwriting it.
type Store struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
	logger     *slog.Logger
}

// NewFirestoreStore creates a new Firestore-backed key record store.
func NewFirestoreStore(client *firestore.Client, collectionName string, logger *slog.Logger) *Store {
	return &Store{
		client:     client,
		collection: client.Collection(collectionName),
		logger:     logger.With("component", "firestore_keystore", "collection", collectionName),
	}
}

// Create inserts a record document if and only if the identifier is unused.
func (s *Store) Create(ctx context.Context, keyID string, record []byte) error {
	doc := s.collection.Doc(keyID)
	s.logger.Debug("Creating key record", "key_id", keyID)

	_, err := doc.Create(ctx, keyDocument{Record: record})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			s.logger.Debug("Key record already exists", "key_id", keyID)
			return keystore.ErrAlreadyExists
		}
		s.logger.Error("Failed to create key record", "key_id", keyID, "err", err)
		return fmt.Errorf("failed to create record for key %s: %w", keyID, err)
	}
	s.logger.Debug("Successfully created key record", "key_id", keyID)
	return nil
}

// Get retrieves a record document by key identifier.
func (s *Store) Get(ctx context.Context, keyID string) ([]byte, error) {
	s.logger.Debug("Getting key record", "key_id", keyID)

	doc, err := s.collection.Doc(keyID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			s.logger.Debug("Key record not found", "key_id", keyID)
			return nil, keystore.ErrNotFound
		}
		s.logger.Warn("Failed to get key record document", "key_id", keyID, "err", err)
		return nil, fmt.Errorf("failed to get record for key %s: %w", keyID, err)
	}

	var kd keyDocument
	if err := doc.DataTo(&kd); err != nil {
		s.logger.Error("Failed to parse key record document", "key_id", keyID, "err", err)
		return nil, fmt.Errorf("failed to parse record document for key %s: %w", keyID, err)
	}

	s.logger.Debug("Successfully retrieved key record", "key_id", keyID)
	return kd.Record, nil
}
