package test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	fs "github.com/tinywideclouds/go-key-manager/internal/storage/firestore"
	"github.com/tinywideclouds/go-key-manager/pkg/crypto"
	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
	"github.com/tinywideclouds/go-key-manager/signingservice"
	"github.com/tinywideclouds/go-key-manager/signingservice/config"
)

func newTestConfig() *config.Config {
	return &config.Config{
		HTTPListenAddr: ":0",
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: []string{"*"}, // Allow all for tests
			Role:           middleware.CorsRoleDefault,
		},
	}
}

// NewTestServer creates and starts a new httptest.Server for end-to-end
// testing. It assembles the service with an in-memory key manager and a
// provided auth middleware.
func NewTestServer(authMiddleware func(http.Handler) http.Handler) *httptest.Server {
	manager := keymanager.NewInMemory(crypto.NewEngine())
	logger := zerolog.Nop()

	service := signingservice.New(newTestConfig(), manager, authMiddleware, logger)
	return httptest.NewServer(service.Mux())
}

// NewTestSigningService creates and starts a new httptest.Server for the
// signing service, backed by a real (emulated) Firestore client.
func NewTestSigningService(
	fsClient *firestore.Client,
	collectionName string,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) *httptest.Server {
	store := fs.NewFirestoreStore(fsClient, collectionName, logger)
	manager := keymanager.New(store, crypto.NewEngine())

	service := signingservice.New(newTestConfig(), manager, authMiddleware, zerolog.Nop())
	return httptest.NewServer(service.Mux())
}
