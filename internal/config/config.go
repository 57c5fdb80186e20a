// Package config provides the configuration structure for the export-service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Configuration errors. Missing credentials are surfaced at startup, before
// any network call is attempted.
var (
	ErrNATSURLMissing          = errors.New("nats url is not configured")
	ErrNarrationKeyMissing     = errors.New("narration provider api key is not configured")
	ErrNarrationBaseURLMissing = errors.New("narration provider base url is not configured")
	ErrImageKeyMissing         = errors.New("image provider api key is not configured")
	ErrImageBaseURLMissing     = errors.New("image provider base url is not configured")
	ErrPublicBaseURLMissing    = errors.New("gateway public base url is not configured")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                     string `toml:"url"`
	ExportRequestedSubject  string `toml:"export_requested_subject"`
	ExportCompletedSubject  string `toml:"export_completed_subject"`
	ExportObjectStoreBucket string `toml:"export_object_store_bucket"`
}

// NarrationConfig holds the speech-synthesis provider settings. The API key
// is never logged.
type NarrationConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	ModelID        string  `toml:"model_id"`
	Stability      float64 `toml:"stability"`
	Similarity     float64 `toml:"similarity"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// ImageConfig holds the image-generation provider settings.
type ImageConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Size           string `toml:"size"`
	Quality        string `toml:"quality"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PipelineConfig bounds orchestration concurrency and retries.
type PipelineConfig struct {
	MaxConcurrentScenes int `toml:"max_concurrent_scenes"`
	MaxAttempts         int `toml:"max_attempts"`
	RetryBaseDelayMS    int `toml:"retry_base_delay_ms"`
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
	JobTimeoutSeconds   int `toml:"job_timeout_seconds"`
}

// GatewayConfig configures the artifact gateway that serves public URLs.
type GatewayConfig struct {
	ListenAddress string `toml:"listen_address"`
	PublicBaseURL string `toml:"public_base_url"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS      NATSConfig      `toml:"nats"`
	Narration NarrationConfig `toml:"narration"`
	Image     ImageConfig     `toml:"image"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for the export-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

// Validate checks that every external boundary has the settings it needs.
// Run before any provider client is constructed.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return ErrNATSURLMissing
	}

	if c.Narration.BaseURL == "" {
		return ErrNarrationBaseURLMissing
	}

	if c.Narration.APIKey == "" {
		return ErrNarrationKeyMissing
	}

	if c.Image.BaseURL == "" {
		return ErrImageBaseURLMissing
	}

	if c.Image.APIKey == "" {
		return ErrImageKeyMissing
	}

	if c.Gateway.PublicBaseURL == "" {
		return ErrPublicBaseURLMissing
	}

	return nil
}
