package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"gopkg.in/yaml.v3"

	fs "github.com/tinywideclouds/go-key-manager/internal/storage/firestore"
	"github.com/tinywideclouds/go-key-manager/pkg/crypto"
	"github.com/tinywideclouds/go-key-manager/pkg/keymanager"
	"github.com/tinywideclouds/go-key-manager/signingservice"
	"github.com/tinywideclouds/go-key-manager/signingservice/config"
)

//go:embed local.yaml
var configFile []byte

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	// --- 1. Load Configuration ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to unmarshal embedded yaml config")
	}

	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, slogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build base configuration from YAML")
	}

	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, slogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to finalize configuration with environment overrides")
	}

	logger.Info().Str("run_mode", cfg.RunMode).Str("key_store", cfg.KeyStore).Msg("Configuration loaded")

	// --- 2. Dependency Injection ---
	manager, err := newKeyManager(ctx, cfg, slogger, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize key manager")
	}

	authMiddleware, err := newAuthMiddleware(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize authentication middleware")
	}

	// --- 3. Create Service Instance ---
	service := signingservice.New(cfg, manager, authMiddleware, logger)

	// --- 4. Start Service and Handle Shutdown ---
	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPListenAddr).Msg("Starting service...")
		if startErr := service.Start(); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			errChan <- startErr
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Fatal().Err(err).Msg("Service failed")
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("OS signal received, initiating shutdown.")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if shutdownErr := service.Shutdown(ctx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("Service shutdown failed")
		} else {
			logger.Info().Msg("Service shutdown complete")
		}
	}
}

// newKeyManager builds the manager over the configured store backend.
func newKeyManager(ctx context.Context, cfg *config.Config, slogger *slog.Logger, logger zerolog.Logger) (keymanager.KeyManager, error) {
	engine := crypto.NewEngine()

	if cfg.KeyStore == config.KeyStoreFirestore {
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client for project %s: %w", cfg.ProjectID, err)
		}
		collection := cfg.FirestoreCollection
		if collection == "" {
			collection = "private-keys"
		}
		store := fs.NewFirestoreStore(fsClient, collection, slogger)
		logger.Info().Str("project_id", cfg.ProjectID).Str("collection", collection).Msg("Using Firestore key store")
		return keymanager.New(store, engine), nil
	}

	logger.Info().Msg("Using in-memory key store")
	return keymanager.NewInMemory(engine), nil
}

// newAuthMiddleware creates the JWT-validating middleware.
func newAuthMiddleware(cfg *config.Config, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	sanitizedIdentityURL := strings.Trim(cfg.IdentityServiceURL, "\"")
	jwksURL, err := middleware.DiscoverAndValidateJWTConfig(sanitizedIdentityURL, "RS256", logger)
	if err != nil {
		logger.Warn().Err(err).Msg("JWT configuration validation failed")
	} else {
		logger.Info().Msg("VERIFIED JWKS CONFIG")
	}

	authMiddleware, err := middleware.NewJWKSAuthMiddleware(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}
	return authMiddleware, nil
}
