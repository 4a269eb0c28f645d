// Package config loads gateway configuration from config.yaml and
// PROPOSAL_-prefixed environment variables, with env taking precedence.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Webhooks  WebhooksConfig  `koanf:"webhooks"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Backup    BackupConfig    `koanf:"backup"`
	Storage   StorageConfig   `koanf:"storage"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type WebhooksConfig struct {
	// ProposalURL receives the proposal record and answers with either a
	// PDF byte stream or a JSON body of unspecified shape.
	ProposalURL string `koanf:"proposal_url"`

	// EmailURL receives the proposal record and answers with composed
	// email content. Optional.
	EmailURL string `koanf:"email_url"`

	// TimeoutSeconds bounds each outbound call. Zero means the transport
	// default.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

type AuthConfig struct {
	// APIKey is the shared secret expected in X-API-Key on cross-origin
	// requests. Empty disables the key check.
	APIKey string `koanf:"api_key"`

	// SiteOrigin is the origin allowed to submit without an API key.
	SiteOrigin string `koanf:"site_origin"`
}

type RateLimitConfig struct {
	MaxRequests   int `koanf:"max_requests"`
	WindowSeconds int `koanf:"window_seconds"`
}

type BackupConfig struct {
	// Serverless switches backup writes to the ephemeral temp directory
	// instead of the project-relative data directory.
	Serverless bool `koanf:"serverless"`

	// Dir overrides the backup directory entirely when set.
	Dir string `koanf:"dir"`
}

type StorageConfig struct {
	// SQLitePath is the submission history database. Empty disables the
	// history store.
	SQLitePath string `koanf:"sqlite_path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("PROPOSAL_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PROPOSAL_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("rate_limit.max_requests") {
		k.Set("rate_limit.max_requests", 10)
	}
	if !k.Exists("rate_limit.window_seconds") {
		k.Set("rate_limit.window_seconds", 60)
	}
	if !k.Exists("webhooks.timeout_seconds") {
		k.Set("webhooks.timeout_seconds", 30)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secret fields
	cfg.Auth.APIKey = substituteEnvVars(cfg.Auth.APIKey)
	cfg.Webhooks.ProposalURL = substituteEnvVars(cfg.Webhooks.ProposalURL)
	cfg.Webhooks.EmailURL = substituteEnvVars(cfg.Webhooks.EmailURL)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
