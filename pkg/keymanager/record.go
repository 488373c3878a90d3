package keymanager

import (
	"encoding/base64"
	"fmt"
)

// KeyType is the closed set of key families a record can carry.
type KeyType string

const (
	// KeyTypeEC is an elliptic-curve key over a Weierstrass or Koblitz curve.
	KeyTypeEC KeyType = "EC"
	// KeyTypeOKP is an octet key pair (Edwards-curve keys).
	KeyTypeOKP KeyType = "OKP"
)

// Curve identifies the curve a key was generated on.
type Curve string

const (
	CurveP256      Curve = "P-256"
	CurveP384      Curve = "P-384"
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "Ed25519"
)

// Algorithm is a JOSE-style signing algorithm identifier. Every supported
// algorithm maps to exactly one (KeyType, Curve) pair and vice versa.
type Algorithm string

const (
	AlgorithmEdDSA  Algorithm = "EdDSA"
	AlgorithmES256  Algorithm = "ES256"
	AlgorithmES384  Algorithm = "ES384"
	AlgorithmES256K Algorithm = "ES256K"
)

// Material holds the key's raw parameters as base64url (no padding) strings,
// JWK style. Public records populate X (and Y for EC keys); private records
// additionally carry D. A record is private exactly when D is non-empty.
type Material struct {
	X string `json:"x,omitempty"`
	Y string `json:"y,omitempty"`
	D string `json:"d,omitempty"`
}

// DecodeX returns the raw bytes of the X parameter.
func (m Material) DecodeX() ([]byte, error) { return decodeField("x", m.X) }

// DecodeY returns the raw bytes of the Y parameter.
func (m Material) DecodeY() ([]byte, error) { return decodeField("y", m.Y) }

// DecodeD returns the raw bytes of the private D parameter.
func (m Material) DecodeD() ([]byte, error) { return decodeField("d", m.D) }

func decodeField(name, value string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("malformed %q material field: %w", name, err)
	}
	return b, nil
}

// EncodeField encodes raw key bytes into the base64url form Material uses.
func EncodeField(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// KeyRecord is a structured bundle of key material plus type/curve/use
// metadata. It comes in a private variant (Material.D populated) and a
// public variant (D absent); the two differ only in which material fields
// are set. Records are immutable once stored.
type KeyRecord struct {
	ID       string   `json:"id,omitempty"`
	KeyType  KeyType  `json:"keyType"`
	Curve    Curve    `json:"curve,omitempty"`
	Use      string   `json:"use,omitempty"`
	Material Material `json:"material"`
}

// IsPrivate reports whether the record carries private key material.
func (r *KeyRecord) IsPrivate() bool {
	return r.Material.D != ""
}

// Clone returns a deep copy of the record.
func (r *KeyRecord) Clone() *KeyRecord {
	cp := *r
	return &cp
}

// AlgorithmForKey derives the signing algorithm from a record's type and
// curve metadata. The algorithm used to build a signature envelope header is
// always selected this way, never fixed to one hardcoded choice.
func AlgorithmForKey(r *KeyRecord) (Algorithm, error) {
	switch {
	case r.KeyType == KeyTypeOKP && r.Curve == CurveEd25519:
		return AlgorithmEdDSA, nil
	case r.KeyType == KeyTypeEC && r.Curve == CurveP256:
		return AlgorithmES256, nil
	case r.KeyType == KeyTypeEC && r.Curve == CurveP384:
		return AlgorithmES384, nil
	case r.KeyType == KeyTypeEC && r.Curve == CurveSecp256k1:
		return AlgorithmES256K, nil
	}
	return "", fmt.Errorf("key type %q with curve %q: %w", r.KeyType, r.Curve, ErrUnsupportedKeyType)
}

// ResolveCurve validates an algorithm/curve selection and fills in the curve
// when the caller omitted it. A curve that contradicts the algorithm fails
// with ErrUnsupportedKeyType.
func ResolveCurve(algorithm Algorithm, curve Curve) (Curve, error) {
	var implied Curve
	switch algorithm {
	case AlgorithmEdDSA:
		implied = CurveEd25519
	case AlgorithmES256:
		implied = CurveP256
	case AlgorithmES384:
		implied = CurveP384
	case AlgorithmES256K:
		implied = CurveSecp256k1
	default:
		return "", fmt.Errorf("algorithm %q: %w", algorithm, ErrUnsupportedKeyType)
	}
	if curve == "" || curve == implied {
		return implied, nil
	}
	return "", fmt.Errorf("algorithm %q does not use curve %q: %w", algorithm, curve, ErrUnsupportedKeyType)
}
