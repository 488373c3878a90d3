package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"gopkg.in/yaml.v3"
)

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	RunMode             string `yaml:"run_mode"`
	ProjectID           string `yaml:"project_id"`
	HTTPListenAddr      string `yaml:"http_listen_addr"`
	IdentityServiceURL  string `yaml:"identity_service_url"`
	KeyStore            string `yaml:"key_store"`
	FirestoreCollection string `yaml:"firestore_collection"`
	Cors                struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
		Role           string   `yaml:"cors_role"`
	} `yaml:"cors"`
}

// NewConfigFromYaml converts the raw unmarshaled data (YamlConfig) into a
// clean, base Config struct. Stage 1 complete: the Config struct now exists,
// but without environment overrides.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		RunMode:             baseCfg.RunMode,
		ProjectID:           baseCfg.ProjectID,
		HTTPListenAddr:      baseCfg.HTTPListenAddr,
		IdentityServiceURL:  baseCfg.IdentityServiceURL,
		KeyStore:            baseCfg.KeyStore,
		FirestoreCollection: baseCfg.FirestoreCollection,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.Cors.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.Cors.Role),
		},
	}
	// Note: JWTSecret is intentionally left blank here, as it's an
	// override/injection point (Stage 2).

	logger.Debug("YAML config mapping complete",
		"run_mode", cfg.RunMode,
		"project_id", cfg.ProjectID,
		"http_listen_addr", cfg.HTTPListenAddr,
		"identity_service_url", cfg.IdentityServiceURL,
		"key_store", cfg.KeyStore,
		"cors_origins", cfg.CorsConfig.AllowedOrigins,
	)

	return cfg, nil
}

// LoadFromFile reads a YAML file and then overrides fields with environment
// variables.
func LoadFromFile(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("Loading config from file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read config file", "path", path, "err", err)
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var yamlCfg YamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		logger.Error("Failed to parse YAML config", "path", path, "err", err)
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg, err := NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		return nil, err
	}

	cfg, err = UpdateConfigWithEnvOverrides(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Config loaded and validated successfully from file")
	return cfg, nil
}
