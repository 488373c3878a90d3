package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

// Ed25519 records store the 32-byte seed as D and the public key as X.

func generateEd25519() (*keymanager.KeyRecord, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ed25519 key generation failed: %w", err)
	}
	return &keymanager.KeyRecord{
		KeyType: keymanager.KeyTypeOKP,
		Curve:   keymanager.CurveEd25519,
		Material: keymanager.Material{
			X: keymanager.EncodeField(public),
			D: keymanager.EncodeField(private.Seed()),
		},
	}, nil
}

func ed25519PrivateKey(record *keymanager.KeyRecord) (ed25519.PrivateKey, error) {
	seed, err := record.Material.DecodeD()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, keymanager.ErrSigningFailure)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d: %w",
			ed25519.SeedSize, len(seed), keymanager.ErrSigningFailure)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func deriveEd25519(record *keymanager.KeyRecord) (keymanager.Material, error) {
	private, err := ed25519PrivateKey(record)
	if err != nil {
		return keymanager.Material{}, err
	}
	public := private.Public().(ed25519.PublicKey)
	return keymanager.Material{X: keymanager.EncodeField(public)}, nil
}

func signEd25519(record *keymanager.KeyRecord, payload []byte) ([]byte, error) {
	private, err := ed25519PrivateKey(record)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(private, payload), nil
}

func verifyEd25519(record *keymanager.KeyRecord, payload, signature []byte) (bool, error) {
	public, err := record.Material.DecodeX()
	if err != nil {
		return false, err
	}
	if len(public) != ed25519.PublicKeySize {
		return false, fmt.Errorf("ed25519 public key must be %d bytes, got %d",
			ed25519.PublicKeySize, len(public))
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(public), payload, signature), nil
}
