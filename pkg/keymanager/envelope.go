package keymanager

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// compactSeparator joins the three envelope parts in transport form.
const compactSeparator = "."

// Header is the algorithm metadata part of a signature envelope.
type Header struct {
	Algorithm Algorithm `json:"alg"`
	KeyID     string    `json:"kid"`
}

// SignatureEnvelope is the structured result of Sign: header metadata, the
// original payload, and the signature bytes, each independently recoverable.
type SignatureEnvelope struct {
	Header    Header `json:"header"`
	Payload   []byte `json:"payload"`
	Signature []byte `json:"signature"`
}

// Compact serializes the envelope into a single transport string of the form
// b64url(headerJSON).b64url(payload).b64url(signature).
func (e *SignatureEnvelope) Compact() (string, error) {
	headerJSON, err := json.Marshal(e.Header)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope header: %w", err)
	}
	parts := []string{
		base64.RawURLEncoding.EncodeToString(headerJSON),
		base64.RawURLEncoding.EncodeToString(e.Payload),
		base64.RawURLEncoding.EncodeToString(e.Signature),
	}
	return strings.Join(parts, compactSeparator), nil
}

// ParseCompact recovers a structured envelope from its compact transport
// form. The input must contain exactly three separator-delimited parts.
func ParseCompact(s string) (*SignatureEnvelope, error) {
	parts := strings.Split(s, compactSeparator)
	if len(parts) != 3 {
		return nil, fmt.Errorf("compact envelope must have 3 parts, got %d", len(parts))
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed envelope header encoding: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("malformed envelope header: %w", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed envelope payload encoding: %w", err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed envelope signature encoding: %w", err)
	}

	return &SignatureEnvelope{
		Header:    header,
		Payload:   payload,
		Signature: signature,
	}, nil
}
