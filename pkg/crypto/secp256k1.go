package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

// secp256k1 records store 32-byte affine coordinates as X/Y and the private
// scalar as D. ES256K signatures are the 64-byte fixed-width r||s over a
// SHA-256 digest, with signing nonces per RFC 6979.

const secpFieldLen = 32

func generateSecp256k1() (*keymanager.KeyRecord, error) {
	private, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("secp256k1 key generation failed: %w", err)
	}

	x, y := secpCoordinates(private.PubKey())
	return &keymanager.KeyRecord{
		KeyType: keymanager.KeyTypeEC,
		Curve:   keymanager.CurveSecp256k1,
		Material: keymanager.Material{
			X: keymanager.EncodeField(x),
			Y: keymanager.EncodeField(y),
			D: keymanager.EncodeField(private.Serialize()),
		},
	}, nil
}

// secpCoordinates splits an uncompressed public key (0x04 || X || Y) into
// its fixed-width coordinates.
func secpCoordinates(public *secp256k1.PublicKey) (x, y []byte) {
	uncompressed := public.SerializeUncompressed()
	return uncompressed[1 : 1+secpFieldLen], uncompressed[1+secpFieldLen:]
}

func secpPrivateKey(record *keymanager.KeyRecord) (*secp256k1.PrivateKey, error) {
	d, err := record.Material.DecodeD()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, keymanager.ErrSigningFailure)
	}
	if len(d) != secpFieldLen {
		return nil, fmt.Errorf("secp256k1 private key must be %d bytes, got %d: %w",
			secpFieldLen, len(d), keymanager.ErrSigningFailure)
	}
	return secp256k1.PrivKeyFromBytes(d), nil
}

func deriveSecp256k1(record *keymanager.KeyRecord) (keymanager.Material, error) {
	private, err := secpPrivateKey(record)
	if err != nil {
		return keymanager.Material{}, err
	}
	x, y := secpCoordinates(private.PubKey())
	return keymanager.Material{
		X: keymanager.EncodeField(x),
		Y: keymanager.EncodeField(y),
	}, nil
}

func signSecp256k1(record *keymanager.KeyRecord, payload []byte) ([]byte, error) {
	private, err := secpPrivateKey(record)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(payload)
	sig := secpecdsa.Sign(private, digest[:])

	r := sig.R()
	s := sig.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()

	signature := make([]byte, 0, 2*secpFieldLen)
	signature = append(signature, rBytes[:]...)
	signature = append(signature, sBytes[:]...)
	return signature, nil
}

func verifySecp256k1(record *keymanager.KeyRecord, payload, signature []byte) (bool, error) {
	x, err := record.Material.DecodeX()
	if err != nil {
		return false, err
	}
	y, err := record.Material.DecodeY()
	if err != nil {
		return false, err
	}
	if len(x) != secpFieldLen || len(y) != secpFieldLen {
		return false, fmt.Errorf("secp256k1 public coordinates must be %d bytes", secpFieldLen)
	}

	uncompressed := make([]byte, 0, 1+2*secpFieldLen)
	uncompressed = append(uncompressed, 0x04)
	uncompressed = append(uncompressed, x...)
	uncompressed = append(uncompressed, y...)
	public, err := secp256k1.ParsePubKey(uncompressed)
	if err != nil {
		return false, fmt.Errorf("invalid secp256k1 public key: %w", err)
	}

	if len(signature) != 2*secpFieldLen {
		return false, nil
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(signature[:secpFieldLen]); overflow {
		return false, nil
	}
	if overflow := s.SetByteSlice(signature[secpFieldLen:]); overflow {
		return false, nil
	}

	digest := sha256.Sum256(payload)
	return secpecdsa.NewSignature(&r, &s).Verify(digest[:], public), nil
}
