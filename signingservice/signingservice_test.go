//go:build integration

package signingservice_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-key-manager/internal/api"
	"github.com/tinywideclouds/go-key-manager/pkg/crypto"
	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
	"github.com/tinywideclouds/go-key-manager/signingservice"
	"github.com/tinywideclouds/go-key-manager/signingservice/config"
)

// createTestToken generates a valid JWT signed by the given private key.
func createTestToken(t *testing.T, privateKey *rsa.PrivateKey, userID string) string {
	t.Helper()

	token, err := jwt.NewBuilder().
		Subject(userID).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(10 * time.Minute)).
		Build()
	require.NoError(t, err)

	jwkKey, err := jwk.FromRaw(privateKey)
	require.NoError(t, err)
	_ = jwkKey.Set(jwk.KeyIDKey, "test-key-id")

	signedToken, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, jwkKey))
	require.NoError(t, err)

	return string(signedToken)
}

// newMockAuthMiddleware simulates a working auth middleware.
func newMockAuthMiddleware(t *testing.T) func(http.Handler) http.Handler {
	t.Helper()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: Missing token")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid token format")
				return
			}

			// Parse the token insecurely *just for this test* to get the subject.
			token, err := jwt.ParseInsecure([]byte(tokenString))
			if err != nil {
				response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
				return
			}
			userID := token.Subject()
			if userID == "" {
				response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid user ID in token")
				return
			}

			ctx := api.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestSigningService_Integration(t *testing.T) {
	// 1. Setup shared resources
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := createTestToken(t, privateKey, "authed-user")

	engine := crypto.NewEngine()
	manager := keymanager.NewInMemory(engine)

	cfg := &config.Config{
		HTTPListenAddr: ":0",
		JWTSecret:      "not-used-by-mock-auth",
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: []string{"http://test-origin.com"},
			Role:           middleware.CorsRoleDefault,
		},
	}

	service := signingservice.New(cfg, manager, newMockAuthMiddleware(t), zerolog.Nop())
	server := httptest.NewServer(service.Mux())
	defer server.Close()

	var keyID string

	t.Run("Generate - Success 201", func(t *testing.T) {
		body := `{"algorithm":"ES256K","curve":"secp256k1","use":"sig"}`
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/keys", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var result struct {
			KeyID string `json:"keyId"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.NotEmpty(t, result.KeyID)
		keyID = result.KeyID
	})

	t.Run("Generate - Failure 401 (No Token)", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/keys", strings.NewReader(`{"algorithm":"ES256"}`))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("GetPublicKey - Success 200 (No Auth Required)", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/keys/" + keyID)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var record keymanager.KeyRecord
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
		assert.Equal(t, keymanager.CurveSecp256k1, record.Curve)
		assert.False(t, record.IsPrivate())
	})

	t.Run("GetPublicKey - Failure 404", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/keys/no-such-key")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Sign - Success 200 and envelope verifies", func(t *testing.T) {
		payload := []byte("hello")
		body, err := json.Marshal(map[string][]byte{"payload": payload})
		require.NoError(t, err)

		req, _ := http.NewRequest(http.MethodPost, server.URL+"/keys/"+keyID+"/signatures", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result struct {
			Envelope *keymanager.SignatureEnvelope `json:"envelope"`
			Compact  string                        `json:"compact"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, keymanager.AlgorithmES256K, result.Envelope.Header.Algorithm)
		assert.Equal(t, payload, result.Envelope.Payload)

		parsed, err := keymanager.ParseCompact(result.Compact)
		require.NoError(t, err)
		assert.Equal(t, result.Envelope.Signature, parsed.Signature)

		// Verify the envelope against the public record served by the API.
		getResp, err := http.Get(server.URL + "/keys/" + keyID)
		require.NoError(t, err)
		defer getResp.Body.Close()
		var public keymanager.KeyRecord
		require.NoError(t, json.NewDecoder(getResp.Body).Decode(&public))

		valid, err := engine.VerifySignature(&public, payload, result.Envelope.Signature)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Import - Idempotent 201", func(t *testing.T) {
		record, err := engine.Generate(keymanager.AlgorithmEdDSA, "")
		require.NoError(t, err)
		record.ID = "imported-k1"
		body, err := json.Marshal(record)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			req, _ := http.NewRequest(http.MethodPost, server.URL+"/keys/import", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			var result struct {
				KeyID string `json:"keyId"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
			assert.Equal(t, "imported-k1", result.KeyID)
		}
	})
}
