package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, populated from environment
// variables. A .env file in the working directory is loaded first if present.
type Config struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	DBPath   string `envconfig:"DB_PATH" default:"./data/flipscout.db"`
	ImageDir string `envconfig:"IMAGE_DIR" default:"./data/images"`

	// Mock backends keep the service usable without API keys. Both default on
	// so a fresh checkout works out of the box.
	UseMockScan  bool   `envconfig:"USE_MOCK_SCAN" default:"true"`
	UseMockComps bool   `envconfig:"USE_MOCK_COMPS" default:"true"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	CompsBaseURL string `envconfig:"COMPS_BASE_URL"`
	CompsAPIKey  string `envconfig:"COMPS_API_KEY"`

	// Redis is optional; with no address an in-process cache is used.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CompsCacheTTL time.Duration `envconfig:"COMPS_CACHE_TTL" default:"15m"`
	DraftTTL      time.Duration `envconfig:"DRAFT_TTL" default:"30m"`
}

// Load reads configuration from the environment, preferring an optional .env
// file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if !cfg.UseMockScan && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when USE_MOCK_SCAN=false")
	}
	if !cfg.UseMockComps && cfg.CompsBaseURL == "" {
		return nil, fmt.Errorf("COMPS_BASE_URL is required when USE_MOCK_COMPS=false")
	}

	return &cfg, nil
}

// Addr is the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
