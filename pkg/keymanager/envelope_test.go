package keymanager_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

func TestEnvelope_CompactRoundTrip(t *testing.T) {
	envelope := &keymanager.SignatureEnvelope{
		Header:    keymanager.Header{Algorithm: keymanager.AlgorithmES256K, KeyID: "k1"},
		Payload:   []byte("hello"),
		Signature: []byte{0xde, 0xad, 0xbe, 0xef},
	}

	compact, err := envelope.Compact()
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(compact, ".")), "compact form has three dot-separated parts")

	parsed, err := keymanager.ParseCompact(compact)
	require.NoError(t, err)
	assert.Equal(t, envelope.Header, parsed.Header)
	assert.Equal(t, envelope.Payload, parsed.Payload)
	assert.Equal(t, envelope.Signature, parsed.Signature)
}

func TestParseCompact_RejectsMalformedInput(t *testing.T) {
	_, err := keymanager.ParseCompact("only.two")
	assert.Error(t, err)

	_, err = keymanager.ParseCompact("a.b.c.d")
	assert.Error(t, err)

	_, err = keymanager.ParseCompact("!!!.AAA.AAA")
	assert.Error(t, err)
}

func TestAlgorithmForKey(t *testing.T) {
	cases := []struct {
		keyType   keymanager.KeyType
		curve     keymanager.Curve
		algorithm keymanager.Algorithm
	}{
		{keymanager.KeyTypeOKP, keymanager.CurveEd25519, keymanager.AlgorithmEdDSA},
		{keymanager.KeyTypeEC, keymanager.CurveP256, keymanager.AlgorithmES256},
		{keymanager.KeyTypeEC, keymanager.CurveP384, keymanager.AlgorithmES384},
		{keymanager.KeyTypeEC, keymanager.CurveSecp256k1, keymanager.AlgorithmES256K},
	}
	for _, tc := range cases {
		algorithm, err := keymanager.AlgorithmForKey(&keymanager.KeyRecord{KeyType: tc.keyType, Curve: tc.curve})
		require.NoError(t, err)
		assert.Equal(t, tc.algorithm, algorithm)
	}

	// Outside the closed variant set.
	_, err := keymanager.AlgorithmForKey(&keymanager.KeyRecord{KeyType: keymanager.KeyTypeOKP, Curve: keymanager.CurveP256})
	assert.ErrorIs(t, err, keymanager.ErrUnsupportedKeyType)
}

func TestResolveCurve(t *testing.T) {
	curve, err := keymanager.ResolveCurve(keymanager.AlgorithmES256K, "")
	require.NoError(t, err)
	assert.Equal(t, keymanager.CurveSecp256k1, curve)

	curve, err = keymanager.ResolveCurve(keymanager.AlgorithmES256K, keymanager.CurveSecp256k1)
	require.NoError(t, err)
	assert.Equal(t, keymanager.CurveSecp256k1, curve)

	_, err = keymanager.ResolveCurve(keymanager.AlgorithmES256K, keymanager.CurveEd25519)
	assert.ErrorIs(t, err, keymanager.ErrUnsupportedKeyType)

	_, err = keymanager.ResolveCurve("HS256", "")
	assert.ErrorIs(t, err, keymanager.ErrUnsupportedKeyType)
}
