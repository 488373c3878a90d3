// Package crypto provides the reference Engine implementation for the key
// manager: elliptic-curve key generation, public-key derivation, and raw
// signature computation for the EdDSA, ES256, ES384, and ES256K algorithms.
//
// All operations are fast, synchronous computations with no I/O, so the
// Engine is stateless and safe for concurrent use.
package crypto

import (
	"fmt"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

// Engine is the default keymanager.Engine. Key records of different
// type/curve combinations form a closed set of variants; anything outside
// that set fails with keymanager.ErrUnsupportedKeyType.
type Engine struct{}

var _ keymanager.Engine = (*Engine)(nil)

// NewEngine creates the reference engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Generate produces a new private key record for the algorithm/curve pair.
// The record carries no identifier; assigning one is the key manager's job.
func (e *Engine) Generate(algorithm keymanager.Algorithm, curve keymanager.Curve) (*keymanager.KeyRecord, error) {
	resolved, err := keymanager.ResolveCurve(algorithm, curve)
	if err != nil {
		return nil, err
	}

	switch resolved {
	case keymanager.CurveEd25519:
		return generateEd25519()
	case keymanager.CurveP256, keymanager.CurveP384:
		return generateNIST(resolved)
	case keymanager.CurveSecp256k1:
		return generateSecp256k1()
	}
	return nil, fmt.Errorf("curve %q: %w", resolved, keymanager.ErrUnsupportedKeyType)
}

// DerivePublicKey returns the public counterpart of a private record. The
// public coordinates are recomputed from the private scalar when the record
// does not carry them, so a minimal imported record still derives cleanly.
func (e *Engine) DerivePublicKey(record *keymanager.KeyRecord) (*keymanager.KeyRecord, error) {
	algorithm, err := keymanager.AlgorithmForKey(record)
	if err != nil {
		return nil, err
	}
	if !record.IsPrivate() {
		// Already public. Hand back a copy so stored state stays immutable.
		return record.Clone(), nil
	}

	var material keymanager.Material
	switch algorithm {
	case keymanager.AlgorithmEdDSA:
		material, err = deriveEd25519(record)
	case keymanager.AlgorithmES256, keymanager.AlgorithmES384:
		material, err = deriveNIST(record)
	case keymanager.AlgorithmES256K:
		material, err = deriveSecp256k1(record)
	}
	if err != nil {
		return nil, err
	}

	public := record.Clone()
	public.Material = material
	return public, nil
}

// SignPayload signs an arbitrary byte payload with the private record's key.
// Malformed or non-private key material fails with ErrSigningFailure.
func (e *Engine) SignPayload(record *keymanager.KeyRecord, payload []byte) ([]byte, error) {
	algorithm, err := keymanager.AlgorithmForKey(record)
	if err != nil {
		return nil, err
	}
	if !record.IsPrivate() {
		return nil, fmt.Errorf("record carries no private material: %w", keymanager.ErrSigningFailure)
	}

	switch algorithm {
	case keymanager.AlgorithmEdDSA:
		return signEd25519(record, payload)
	case keymanager.AlgorithmES256, keymanager.AlgorithmES384:
		return signNIST(record, payload)
	case keymanager.AlgorithmES256K:
		return signSecp256k1(record, payload)
	}
	return nil, fmt.Errorf("algorithm %q: %w", algorithm, keymanager.ErrUnsupportedKeyType)
}

// VerifySignature reports whether the signature is valid for the payload
// under the record's key. Private records are accepted; their public
// counterpart is derived first.
func (e *Engine) VerifySignature(record *keymanager.KeyRecord, payload, signature []byte) (bool, error) {
	public := record
	if record.IsPrivate() {
		derived, err := e.DerivePublicKey(record)
		if err != nil {
			return false, err
		}
		public = derived
	}

	algorithm, err := keymanager.AlgorithmForKey(public)
	if err != nil {
		return false, err
	}

	switch algorithm {
	case keymanager.AlgorithmEdDSA:
		return verifyEd25519(public, payload, signature)
	case keymanager.AlgorithmES256, keymanager.AlgorithmES384:
		return verifyNIST(public, payload, signature)
	case keymanager.AlgorithmES256K:
		return verifySecp256k1(public, payload, signature)
	}
	return false, fmt.Errorf("algorithm %q: %w", algorithm, keymanager.ErrUnsupportedKeyType)
}
