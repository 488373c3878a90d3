package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// Key store backend selectors for Config.KeyStore.
const (
	KeyStoreMemory    = "memory"
	KeyStoreFirestore = "firestore"
)

// Config defines the *single*, authoritative configuration for the signing
// service. It is created in two stages:
// 1. Loaded from YAML (see NewConfigFromYaml).
// 2. Updated with environment variables (see UpdateConfigWithEnvOverrides).
type Config struct {
	// Fields loaded from YAML
	RunMode             string `yaml:"run_mode"`
	ProjectID           string `yaml:"project_id"`
	HTTPListenAddr      string `yaml:"http_listen_addr"`
	IdentityServiceURL  string `yaml:"identity_service_url"`
	KeyStore            string `yaml:"key_store"`
	FirestoreCollection string `yaml:"firestore_collection"`

	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	// CorsConfig is the processed, ready-to-use middleware config.
	CorsConfig middleware.CorsConfig `yaml:"-"` // Ignored by YAML

	// JWTSecret is populated from the "JWT_SECRET" env var.
	JWTSecret string `yaml:"-"` // Ignored by YAML
}

// UpdateConfigWithEnvOverrides takes the base configuration (created from
// YAML) and completes it by applying environment variables and final
// validation. This creates the final "Stage 2" runtime configuration.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		logger.Debug("Overriding config value", "key", "GCP_PROJECT_ID", "source", "env")
		cfg.ProjectID = projectID
	}
	if idURL := os.Getenv("IDENTITY_SERVICE_URL"); idURL != "" {
		logger.Debug("Overriding config value", "key", "IDENTITY_SERVICE_URL", "source", "env")
		cfg.IdentityServiceURL = idURL
	}
	if keyStore := os.Getenv("KEY_STORE"); keyStore != "" {
		logger.Debug("Overriding config value", "key", "KEY_STORE", "source", "env")
		cfg.KeyStore = keyStore
	}
	// JWT Secret is exclusively environment-sourced.
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		logger.Debug("Loaded config value", "key", "JWT_SECRET", "source", "env")
		cfg.JWTSecret = jwtSecret
	}

	// Final validation.
	if cfg.JWTSecret == "" {
		logger.Error("Final config validation failed", "error", "JWT_SECRET is not set")
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set or is empty")
	}
	switch cfg.KeyStore {
	case "", KeyStoreMemory, KeyStoreFirestore:
	default:
		logger.Error("Final config validation failed", "error", "unknown key_store", "key_store", cfg.KeyStore)
		return nil, fmt.Errorf("key_store must be %q or %q, got %q", KeyStoreMemory, KeyStoreFirestore, cfg.KeyStore)
	}
	if cfg.KeyStore == "" {
		cfg.KeyStore = KeyStoreMemory
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
