package signingservice

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-key-manager/internal/api"
	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
	"github.com/tinywideclouds/go-key-manager/signingservice/config"
)

// Wrapper embeds the BaseServer to inherit standard server functionality.
type Wrapper struct {
	*microservice.BaseServer
	logger zerolog.Logger
}

// New creates and wires up the entire signing service around a KeyManager.
// Key-mutating and signing routes sit behind the auth middleware; fetching a
// public record stays open, since verifiers need it.
func New(
	cfg *config.Config,
	manager keymanager.KeyManager,
	authMiddleware func(http.Handler) http.Handler,
	logger zerolog.Logger,
) *Wrapper {
	baseServer := microservice.NewBaseServer(logger, cfg.HTTPListenAddr)

	apiHandler := &api.API{Manager: manager, Logger: logger, JWTSecret: cfg.JWTSecret}

	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig)

	generateHandler := http.HandlerFunc(apiHandler.GenerateKeyHandler)
	mux.Handle("POST /keys", corsMiddleware(authMiddleware(generateHandler)))

	importHandler := http.HandlerFunc(apiHandler.ImportKeyHandler)
	mux.Handle("POST /keys/import", corsMiddleware(authMiddleware(importHandler)))

	getPublicHandler := http.HandlerFunc(apiHandler.GetPublicKeyHandler)
	mux.Handle("GET /keys/{keyID}", corsMiddleware(getPublicHandler))

	signHandler := http.HandlerFunc(apiHandler.SignHandler)
	mux.Handle("POST /keys/{keyID}/signatures", corsMiddleware(authMiddleware(signHandler)))

	optionsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	mux.Handle("OPTIONS /keys", corsMiddleware(optionsHandler))
	mux.Handle("OPTIONS /keys/{keyID}", corsMiddleware(optionsHandler))
	mux.Handle("OPTIONS /keys/{keyID}/signatures", corsMiddleware(optionsHandler))

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}
}

// Start runs the HTTP server and handles the readiness logic.
func (w *Wrapper) Start() error {
	errChan := make(chan error, 1)
	httpReadyChan := make(chan struct{})
	w.BaseServer.SetReadyChannel(httpReadyChan)

	go func() {
		if err := w.BaseServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error().Err(err).Msg("HTTP server failed")
			errChan <- err
		}
		close(errChan)
	}()

	// Wait for EITHER the server to be ready OR for it to fail on startup.
	select {
	case <-httpReadyChan:
		w.logger.Info().Msg("HTTP listener is active.")
		// The signing service has no other startup tasks.
		w.SetReady(true)
		w.logger.Info().Msg("Service is now ready.")

	case err := <-errChan:
		// Server failed before it could listen.
		return err
	}

	// Wait for the server goroutine to exit (which happens on Shutdown).
	return <-errChan
}
