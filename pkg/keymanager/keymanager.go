// Package keymanager contains the public domain models, interfaces, and
// errors for asymmetric signing-key management. It defines the public
// contract: callers address keys by an opaque identifier and never see
// private key material except through Sign.
package keymanager

import "context"

// KeyManager is the capability contract for producing, holding, and using
// asymmetric signing keys. Any implementation (in-memory, Firestore-backed,
// HSM, remote vault) must satisfy these four operations.
type KeyManager interface {
	// GeneratePrivateKey materializes new private key material for the given
	// algorithm/curve pair, stores it, and returns its fresh identifier.
	// The returned identifier is guaranteed to be previously unused within
	// the manager's store.
	GeneratePrivateKey(ctx context.Context, algorithm Algorithm, curve Curve, opts ...GenerateOption) (string, error)

	// GetPublicKey resolves a key identifier to the public counterpart of
	// the stored private record. The store is never mutated.
	GetPublicKey(ctx context.Context, keyID string) (*KeyRecord, error)

	// Sign produces a signature envelope over an arbitrary payload using the
	// private key addressed by keyID. The envelope's header algorithm is
	// derived from the stored key's type and curve.
	Sign(ctx context.Context, keyID string, payload []byte) (*SignatureEnvelope, error)

	// Import inserts a caller-supplied private key record. A record without
	// an identifier is assigned a fresh one. Importing a record whose
	// identifier already exists is a no-op: the stored material is retained
	// unchanged and the existing identifier is returned without error.
	Import(ctx context.Context, record *KeyRecord) (string, error)
}

// Engine is the cryptographic collaborator a KeyManager delegates to for key
// generation, public-key derivation, and raw signing. All operations are
// fast, synchronous computations; none block on I/O, so no context is taken.
type Engine interface {
	// Generate produces a new private key record (without an identifier) for
	// the algorithm/curve pair. Combinations the engine cannot produce fail
	// with ErrUnsupportedKeyType.
	Generate(algorithm Algorithm, curve Curve) (*KeyRecord, error)

	// DerivePublicKey returns the public counterpart of a private record.
	// The input record is never modified.
	DerivePublicKey(record *KeyRecord) (*KeyRecord, error)

	// SignPayload signs the payload with the private record's key. Records
	// the engine cannot sign with fail with ErrSigningFailure.
	SignPayload(record *KeyRecord, payload []byte) ([]byte, error)

	// VerifySignature reports whether the signature is valid for the payload
	// under the (public or private) record's key.
	VerifySignature(record *KeyRecord, payload, signature []byte) (bool, error)
}

// GenerateOption carries optional, algorithm-independent generation
// parameters for GeneratePrivateKey.
type GenerateOption func(*generateConfig)

type generateConfig struct {
	use string
}

// WithUse tags the generated key record with an intended-use hint
// (e.g. "sig"). The manager stores it verbatim.
func WithUse(use string) GenerateOption {
	return func(c *generateConfig) { c.use = use }
}
