package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
)

// API exposes a KeyManager over HTTP. The JWTSecret is carried for the
// middleware wired in by the service wrapper.
type API struct {
	Manager   keymanager.KeyManager
	Logger    zerolog.Logger
	JWTSecret string
}

type contextKey string

// UserContextKey is the key used to store the authenticated user's ID from the JWT.
const UserContextKey contextKey = "userID"

// GetUserIDFromContext safely retrieves the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserContextKey).(string)
	return userID, ok
}

// ContextWithUserID is a helper function for tests to inject a user ID
// into a context, simulating a successful authentication from middleware.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextKey, userID)
}

// generateRequest is the body of POST /keys.
type generateRequest struct {
	Algorithm keymanager.Algorithm `json:"algorithm"`
	Curve     keymanager.Curve     `json:"curve,omitempty"`
	Use       string               `json:"use,omitempty"`
}

// keyIDResponse is returned by the generate and import handlers.
type keyIDResponse struct {
	KeyID string `json:"keyId"`
}

// signRequest is the body of POST /keys/{keyID}/signatures. The payload is
// standard-base64 encoded opaque bytes.
type signRequest struct {
	Payload []byte `json:"payload"`
}

// signResponse carries the structured envelope and its compact transport form.
type signResponse struct {
	Envelope *keymanager.SignatureEnvelope `json:"envelope"`
	Compact  string                        `json:"compact"`
}

// writeManagerError maps key manager failures onto HTTP status codes.
func (a *API) writeManagerError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, keymanager.ErrKeyNotFound):
		logger.Warn().Err(err).Msg("Key not found")
		response.WriteJSONError(w, http.StatusNotFound, "Key not found")
	case errors.Is(err, keymanager.ErrUnsupportedKeyType):
		logger.Warn().Err(err).Msg("Unsupported key type")
		response.WriteJSONError(w, http.StatusBadRequest, "Unsupported algorithm/curve combination")
	case errors.Is(err, keymanager.ErrSigningFailure):
		logger.Error().Err(err).Msg("Signing failure")
		response.WriteJSONError(w, http.StatusInternalServerError, "Failed to produce signature")
	default:
		logger.Error().Err(err).Msg("Key manager operation failed")
		response.WriteJSONError(w, http.StatusInternalServerError, "Internal error")
	}
}

// GenerateKeyHandler manages POST requests creating new private keys.
func (a *API) GenerateKeyHandler(w http.ResponseWriter, r *http.Request) {
	authedUserID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: No user ID in token")
		return
	}
	logger := a.Logger.With().Str("authed_user", authedUserID).Logger()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to unmarshal generate request")
		response.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body format")
		return
	}
	if req.Algorithm == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "algorithm must not be empty")
		return
	}

	var opts []keymanager.GenerateOption
	if req.Use != "" {
		opts = append(opts, keymanager.WithUse(req.Use))
	}

	keyID, err := a.Manager.GeneratePrivateKey(r.Context(), req.Algorithm, req.Curve, opts...)
	if err != nil {
		a.writeManagerError(w, logger, err)
		return
	}

	logger.Info().Str("key_id", keyID).Str("algorithm", string(req.Algorithm)).Msg("Generated new key")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(keyIDResponse{KeyID: keyID})
}

// ImportKeyHandler manages POST requests importing caller-supplied records.
func (a *API) ImportKeyHandler(w http.ResponseWriter, r *http.Request) {
	authedUserID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: No user ID in token")
		return
	}
	logger := a.Logger.With().Str("authed_user", authedUserID).Logger()

	var record keymanager.KeyRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		logger.Warn().Err(err).Msg("Failed to unmarshal key record")
		response.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body format")
		return
	}

	keyID, err := a.Manager.Import(r.Context(), &record)
	if err != nil {
		a.writeManagerError(w, logger, err)
		return
	}

	logger.Info().Str("key_id", keyID).Msg("Imported key record")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(keyIDResponse{KeyID: keyID})
}

// GetPublicKeyHandler remains public: clients need to fetch public records to
// verify signatures.
func (a *API) GetPublicKeyHandler(w http.ResponseWriter, r *http.Request) {
	keyID := r.PathValue("keyID")
	logger := a.Logger.With().Str("key_id", keyID).Logger()

	record, err := a.Manager.GetPublicKey(r.Context(), keyID)
	if err != nil {
		a.writeManagerError(w, logger, err)
		return
	}

	logger.Info().Msg("Retrieved public key record")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		logger.Error().Err(err).Msg("Failed to marshal public key record")
		http.Error(w, "Failed to serialize response", http.StatusInternalServerError)
		return
	}
}

// SignHandler manages POST requests producing signature envelopes.
func (a *API) SignHandler(w http.ResponseWriter, r *http.Request) {
	authedUserID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized: No user ID in token")
		return
	}
	keyID := r.PathValue("keyID")
	logger := a.Logger.With().Str("authed_user", authedUserID).Str("key_id", keyID).Logger()

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to unmarshal sign request")
		response.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body format")
		return
	}

	envelope, err := a.Manager.Sign(r.Context(), keyID, req.Payload)
	if err != nil {
		a.writeManagerError(w, logger, err)
		return
	}

	compact, err := envelope.Compact()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to serialize envelope")
		response.WriteJSONError(w, http.StatusInternalServerError, "Failed to serialize envelope")
		return
	}

	logger.Info().Int("payload_bytes", len(req.Payload)).Msg("Produced signature envelope")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(signResponse{Envelope: envelope, Compact: compact})
}
