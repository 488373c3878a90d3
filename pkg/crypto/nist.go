package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

// NIST-curve records (P-256, P-384) store the affine coordinates as X/Y and
// the private scalar as D, all fixed-width big-endian. Signatures use the
// JOSE fixed-width r||s form: 64 bytes for ES256, 96 bytes for ES384.

func nistCurve(curve keymanager.Curve) (elliptic.Curve, error) {
	switch curve {
	case keymanager.CurveP256:
		return elliptic.P256(), nil
	case keymanager.CurveP384:
		return elliptic.P384(), nil
	}
	return nil, fmt.Errorf("curve %q: %w", curve, keymanager.ErrUnsupportedKeyType)
}

func nistByteLen(c elliptic.Curve) int {
	return (c.Params().BitSize + 7) / 8
}

func nistDigest(curve keymanager.Curve, payload []byte) []byte {
	if curve == keymanager.CurveP384 {
		digest := sha512.Sum384(payload)
		return digest[:]
	}
	digest := sha256.Sum256(payload)
	return digest[:]
}

func generateNIST(curve keymanager.Curve) (*keymanager.KeyRecord, error) {
	c, err := nistCurve(curve)
	if err != nil {
		return nil, err
	}
	private, err := ecdsa.GenerateKey(c, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s key generation failed: %w", curve, err)
	}

	byteLen := nistByteLen(c)
	return &keymanager.KeyRecord{
		KeyType: keymanager.KeyTypeEC,
		Curve:   curve,
		Material: keymanager.Material{
			X: keymanager.EncodeField(private.X.FillBytes(make([]byte, byteLen))),
			Y: keymanager.EncodeField(private.Y.FillBytes(make([]byte, byteLen))),
			D: keymanager.EncodeField(private.D.FillBytes(make([]byte, byteLen))),
		},
	}, nil
}

func nistPrivateKey(record *keymanager.KeyRecord) (*ecdsa.PrivateKey, error) {
	c, err := nistCurve(record.Curve)
	if err != nil {
		return nil, err
	}
	d, err := record.Material.DecodeD()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, keymanager.ErrSigningFailure)
	}

	scalar := new(big.Int).SetBytes(d)
	if scalar.Sign() == 0 || scalar.Cmp(c.Params().N) >= 0 {
		return nil, fmt.Errorf("%s private scalar out of range: %w", record.Curve, keymanager.ErrSigningFailure)
	}

	private := &ecdsa.PrivateKey{D: scalar}
	private.Curve = c
	private.X, private.Y = c.ScalarBaseMult(scalar.Bytes())
	return private, nil
}

func deriveNIST(record *keymanager.KeyRecord) (keymanager.Material, error) {
	private, err := nistPrivateKey(record)
	if err != nil {
		return keymanager.Material{}, err
	}
	byteLen := nistByteLen(private.Curve)
	return keymanager.Material{
		X: keymanager.EncodeField(private.X.FillBytes(make([]byte, byteLen))),
		Y: keymanager.EncodeField(private.Y.FillBytes(make([]byte, byteLen))),
	}, nil
}

func signNIST(record *keymanager.KeyRecord, payload []byte) ([]byte, error) {
	private, err := nistPrivateKey(record)
	if err != nil {
		return nil, err
	}

	r, s, err := ecdsa.Sign(rand.Reader, private, nistDigest(record.Curve, payload))
	if err != nil {
		return nil, fmt.Errorf("%s signing failed: %v: %w", record.Curve, err, keymanager.ErrSigningFailure)
	}

	byteLen := nistByteLen(private.Curve)
	signature := make([]byte, 2*byteLen)
	r.FillBytes(signature[:byteLen])
	s.FillBytes(signature[byteLen:])
	return signature, nil
}

func verifyNIST(record *keymanager.KeyRecord, payload, signature []byte) (bool, error) {
	c, err := nistCurve(record.Curve)
	if err != nil {
		return false, err
	}
	x, err := record.Material.DecodeX()
	if err != nil {
		return false, err
	}
	y, err := record.Material.DecodeY()
	if err != nil {
		return false, err
	}

	public := &ecdsa.PublicKey{
		Curve: c,
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}

	byteLen := nistByteLen(c)
	if len(signature) != 2*byteLen {
		return false, nil
	}
	r := new(big.Int).SetBytes(signature[:byteLen])
	s := new(big.Int).SetBytes(signature[byteLen:])
	return ecdsa.Verify(public, nistDigest(record.Curve, payload), r, s), nil
}
