package keymanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-key-manager/internal/storage/inmemory"
	"github.com/tinywideclouds/go-key-manager/pkg/keystore"
)

// Manager is the concrete KeyManager gluing a keystore.Store to an Engine.
// Each Manager exclusively owns its store; keys live exactly as long as the
// store does. A Manager is safe for concurrent use provided the underlying
// store is (every store in this module is).
type Manager struct {
	store  keystore.Store
	engine Engine
}

// Manager satisfies the public contract.
var _ KeyManager = (*Manager)(nil)

// New creates a Manager over an arbitrary store implementation.
func New(store keystore.Store, engine Engine) *Manager {
	return &Manager{store: store, engine: engine}
}

// NewInMemory creates a Manager over a fresh, private in-memory store. This
// is the reference form: key material lives in volatile memory and is
// discarded with the Manager. Multiple in-memory managers never interfere.
func NewInMemory(engine Engine) *Manager {
	return New(inmemory.New(), engine)
}

// GeneratePrivateKey delegates key generation to the engine, assigns a fresh
// identifier, and inserts the private record into the store.
func (m *Manager) GeneratePrivateKey(ctx context.Context, algorithm Algorithm, curve Curve, opts ...GenerateOption) (string, error) {
	record, err := m.engine.Generate(algorithm, curve)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s key: %w", algorithm, err)
	}

	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.use != "" {
		record.Use = cfg.use
	}

	// A fresh UUID cannot collide with an identifier already in the store.
	record.ID = uuid.NewString()
	if err := m.insert(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store generated key %s: %w", record.ID, err)
	}
	return record.ID, nil
}

// GetPublicKey resolves a key identifier to a derived public record. The
// store is never mutated and private material never leaves the Manager.
func (m *Manager) GetPublicKey(ctx context.Context, keyID string) (*KeyRecord, error) {
	record, err := m.load(ctx, keyID)
	if err != nil {
		return nil, err
	}
	public, err := m.engine.DerivePublicKey(record)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key for %s: %w", keyID, err)
	}
	public.ID = keyID
	return public, nil
}

// Sign signs the payload with the key addressed by keyID and wraps the
// result in an envelope. The header algorithm is derived from the stored
// key's type and curve, so an Ed25519 key yields an EdDSA header and a
// secp256k1 key an ES256K header.
func (m *Manager) Sign(ctx context.Context, keyID string, payload []byte) (*SignatureEnvelope, error) {
	record, err := m.load(ctx, keyID)
	if err != nil {
		return nil, err
	}

	algorithm, err := AlgorithmForKey(record)
	if err != nil {
		return nil, fmt.Errorf("cannot sign with key %s: %w", keyID, err)
	}

	signature, err := m.engine.SignPayload(record, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with key %s: %w", keyID, err)
	}

	return &SignatureEnvelope{
		Header:    Header{Algorithm: algorithm, KeyID: keyID},
		Payload:   payload,
		Signature: signature,
	}, nil
}

// Import inserts a caller-supplied private record. Records without an
// identifier receive a fresh one; a record whose identifier already exists
// in the store is left untouched and its identifier returned without error.
func (m *Manager) Import(ctx context.Context, record *KeyRecord) (string, error) {
	if record == nil {
		return "", errors.New("cannot import a nil key record")
	}
	// Validation happens before any store access, so a failed import leaves
	// the store unchanged.
	if _, err := AlgorithmForKey(record); err != nil {
		return "", fmt.Errorf("cannot import record: %w", err)
	}
	if !record.IsPrivate() {
		return "", errors.New("cannot import record: no private key material")
	}

	imported := record.Clone()
	if imported.ID == "" {
		imported.ID = uuid.NewString()
	}

	err := m.insert(ctx, imported)
	if errors.Is(err, keystore.ErrAlreadyExists) {
		// Idempotent: the existing material is retained unchanged.
		return imported.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to import key %s: %w", imported.ID, err)
	}
	return imported.ID, nil
}

func (m *Manager) insert(ctx context.Context, record *KeyRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize key record: %w", err)
	}
	return m.store.Create(ctx, record.ID, data)
}

func (m *Manager) load(ctx context.Context, keyID string) (*KeyRecord, error) {
	data, err := m.store.Get(ctx, keyID)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, fmt.Errorf("key %s: %w", keyID, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", keyID, err)
	}

	var record KeyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse stored record for key %s: %w", keyID, err)
	}
	return &record, nil
}
