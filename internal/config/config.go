package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	S3       S3Config       `yaml:"s3"`
	Redis    RedisConfig    `yaml:"redis"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Mappings MappingsConfig `yaml:"mappings"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the PostgreSQL connection settings for the audit
// trail, dead-letter queue, and connected-platform tables.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// S3Config holds inbound/processed EDI file storage settings. When Enabled
// is false the gateway falls back to in-memory storage (local development).
type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	InboundPrefix   string `yaml:"inbound_prefix"`
	ProcessedPrefix string `yaml:"processed_prefix"`
}

// RedisConfig holds the connection for the duplicate-submission marker.
// Redis is optional; without it duplicate hints degrade to "unknown".
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// ShopifyConfig holds downstream transmission settings: the fallback store
// credentials, the leaky-bucket limits, and the retry policy.
type ShopifyConfig struct {
	StoreName   string `yaml:"store_name"`
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`

	BucketCapacity   int `yaml:"bucket_capacity"`
	RefillIntervalMS int `yaml:"refill_interval_ms"`
	MaxAttempts      int `yaml:"max_attempts"`
	BackoffBaseMS    int `yaml:"backoff_base_ms"`
	BackoffMaxMS     int `yaml:"backoff_max_ms"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
}

// RefillInterval returns the leaky-bucket refill period.
func (c ShopifyConfig) RefillInterval() time.Duration {
	return time.Duration(c.RefillIntervalMS) * time.Millisecond
}

// BackoffBase returns the first retry delay.
func (c ShopifyConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

// BackoffMax returns the retry delay cap.
func (c ShopifyConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMS) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c ShopifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig bounds the per-file processing concurrency.
type PipelineConfig struct {
	MaxInFlight int `yaml:"max_in_flight"`
}

// MappingsConfig locates the mapping profile directory.
type MappingsConfig struct {
	Directory string `yaml:"directory"`
}

// Load reads the YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.S3.InboundPrefix == "" {
		cfg.S3.InboundPrefix = "inbound/"
	}
	if cfg.S3.ProcessedPrefix == "" {
		cfg.S3.ProcessedPrefix = "processed/"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-01"
	}
	if cfg.Shopify.BucketCapacity == 0 {
		cfg.Shopify.BucketCapacity = 40
	}
	if cfg.Shopify.RefillIntervalMS == 0 {
		cfg.Shopify.RefillIntervalMS = 1000
	}
	if cfg.Shopify.MaxAttempts == 0 {
		cfg.Shopify.MaxAttempts = 3
	}
	if cfg.Shopify.BackoffBaseMS == 0 {
		cfg.Shopify.BackoffBaseMS = 1000
	}
	if cfg.Shopify.BackoffMaxMS == 0 {
		cfg.Shopify.BackoffMaxMS = 30000
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}
	if cfg.Pipeline.MaxInFlight == 0 {
		cfg.Pipeline.MaxInFlight = 4096
	}
	if cfg.Mappings.Directory == "" {
		cfg.Mappings.Directory = "mappings"
	}
}

// LoadFromEnv loads .env (if present), reads the YAML config, and applies
// environment overrides for deployment-specific values.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
		cfg.Redis.Enabled = true
	}
	if bucket := os.Getenv("EDI_S3_BUCKET"); bucket != "" {
		cfg.S3.Bucket = bucket
		cfg.S3.Enabled = true
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.S3.Region = region
	}
	if store := os.Getenv("SHOPIFY_STORE_NAME"); store != "" {
		cfg.Shopify.StoreName = store
	}
	if token := os.Getenv("SHOPIFY_ACCESS_TOKEN"); token != "" {
		cfg.Shopify.AccessToken = token
	}
	if dir := os.Getenv("EDI_MAPPINGS_DIR"); dir != "" {
		cfg.Mappings.Directory = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	return cfg, nil
}
