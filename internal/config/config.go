// Package config loads service configuration from the environment, an
// optional .env file and an optional JSON overlay file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage providers.
const (
	StorageS3  = "s3"
	StorageGCS = "gcs"
)

// Config is the service configuration. JSON tags name the keys accepted in
// the overlay file.
type Config struct {
	// Application
	AppEnv string `json:"app_env,omitempty"`
	Port   string `json:"port,omitempty"`

	// Record store
	StoreBackend     string `json:"store_backend,omitempty"`
	TableName        string `json:"table_name,omitempty"`
	AWSRegion        string `json:"aws_region,omitempty"`
	DynamoDBEndpoint string `json:"dynamodb_endpoint,omitempty"`
	DatabaseURL      string `json:"database_url,omitempty"`
	SQLitePath       string `json:"sqlite_path,omitempty"`

	// Proposal generation
	LLMProvider   string  `json:"llm_provider,omitempty"`
	OpenAIAPIKey  string  `json:"openai_api_key,omitempty"`
	OpenAIModel   string  `json:"openai_model,omitempty"`
	OpenAIBaseURL string  `json:"openai_base_url,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	GeminiAPIKey  string  `json:"gemini_api_key,omitempty"`
	GeminiModel   string  `json:"gemini_model,omitempty"`
	// GeneratorFeedback feeds the previous rejection reason into the next
	// attempt's prompt. Environment only.
	GeneratorFeedback bool `json:"-"`

	// Uploads
	StorageProvider string        `json:"storage_provider,omitempty"`
	ThumbnailBucket string        `json:"thumbnail_bucket,omitempty"`
	ArtifactsBucket string        `json:"artifacts_bucket,omitempty"`
	PortraitPrefix  string        `json:"portrait_prefix,omitempty"`
	S3Endpoint      string        `json:"s3_endpoint,omitempty"`
	UploadExpiry    time.Duration `json:"upload_expiry,omitempty"`

	// Name lock
	RedisURL    string        `json:"redis_url,omitempty"`
	NameLockTTL time.Duration `json:"name_lock_ttl,omitempty"`

	// Observability
	SentryDSN    string  `json:"sentry_dsn,omitempty"`
	OTelExporter string  `json:"otel_exporter,omitempty"`
	OTelSample   float64 `json:"otel_sample_ratio,omitempty"`

	// HTTP
	CORSOrigin     string  `json:"cors_origin,omitempty"`
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty"`
}

// Load reads the configuration from the environment, loading .env first if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() *Config {
	return &Config{
		AppEnv: envString("APP_ENV", "development"),
		Port:   envString("PORT", "8080"),

		StoreBackend:     envString("STORE_BACKEND", BackendSQLite),
		TableName:        envString("FIGURES_TABLE_NAME", "figures"),
		AWSRegion:        envString("AWS_REGION", "ap-northeast-1"),
		DynamoDBEndpoint: envString("DYNAMODB_ENDPOINT", ""),
		DatabaseURL:      envString("DATABASE_URL", ""),
		SQLitePath:       envString("SQLITE_PATH", "./data/figures.db"),

		LLMProvider:       envString("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:      envString("OPENAI_API_KEY", ""),
		OpenAIModel:       envString("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     envString("OPENAI_BASE_URL", ""),
		Temperature:       envFloat("OPENAI_TEMPERATURE", 0.2),
		GeminiAPIKey:      envString("GEMINI_API_KEY", ""),
		GeminiModel:       envString("GEMINI_MODEL", ""),
		GeneratorFeedback: envBool("GENERATOR_FEEDBACK", true),

		StorageProvider: envString("STORAGE_PROVIDER", StorageS3),
		ThumbnailBucket: envString("THUMBNAIL_BUCKET_NAME", ""),
		ArtifactsBucket: envString("ARTIFACTS_BUCKET_NAME", ""),
		PortraitPrefix:  envString("PORTRAIT_PREFIX", "portraits/"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		UploadExpiry:    envDuration("UPLOAD_EXPIRY", 5*time.Minute),

		RedisURL:    envString("REDIS_URL", ""),
		NameLockTTL: envDuration("NAME_LOCK_TTL", 10*time.Second),

		SentryDSN:    envString("SENTRY_DSN", ""),
		OTelExporter: envString("OTEL_EXPORTER", "none"),
		OTelSample:   envFloat("OTEL_SAMPLE_RATIO", 1.0),

		CORSOrigin:     envString("CORS_ORIGIN", "*"),
		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks backend and provider consistency.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("config error: 'table_name' is required for the dynamodb backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config error: 'sqlite_path' is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.StoreBackend)
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLMProvider)
	}

	switch c.StorageProvider {
	case StorageS3, StorageGCS:
	default:
		return fmt.Errorf("config error: unknown storage provider %q", c.StorageProvider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2")
	}
	if c.OTelSample < 0 || c.OTelSample > 1 {
		return fmt.Errorf("config error: 'otel_sample_ratio' must be between 0 and 1")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// The overlay file is merged onto the environment configuration this way.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		def string
	}{
		{&result.AppEnv, defaults.AppEnv},
		{&result.Port, defaults.Port},
		{&result.StoreBackend, defaults.StoreBackend},
		{&result.TableName, defaults.TableName},
		{&result.AWSRegion, defaults.AWSRegion},
		{&result.DynamoDBEndpoint, defaults.DynamoDBEndpoint},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.SQLitePath, defaults.SQLitePath},
		{&result.LLMProvider, defaults.LLMProvider},
		{&result.OpenAIAPIKey, defaults.OpenAIAPIKey},
		{&result.OpenAIModel, defaults.OpenAIModel},
		{&result.OpenAIBaseURL, defaults.OpenAIBaseURL},
		{&result.GeminiAPIKey, defaults.GeminiAPIKey},
		{&result.GeminiModel, defaults.GeminiModel},
		{&result.StorageProvider, defaults.StorageProvider},
		{&result.ThumbnailBucket, defaults.ThumbnailBucket},
		{&result.ArtifactsBucket, defaults.ArtifactsBucket},
		{&result.PortraitPrefix, defaults.PortraitPrefix},
		{&result.S3Endpoint, defaults.S3Endpoint},
		{&result.RedisURL, defaults.RedisURL},
		{&result.SentryDSN, defaults.SentryDSN},
		{&result.OTelExporter, defaults.OTelExporter},
		{&result.CORSOrigin, defaults.CORSOrigin},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.def
		}
	}

	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.UploadExpiry == 0 {
		result.UploadExpiry = defaults.UploadExpiry
	}
	if result.NameLockTTL == 0 {
		result.NameLockTTL = defaults.NameLockTTL
	}
	if result.OTelSample == 0 {
		result.OTelSample = defaults.OTelSample
	}
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = defaults.RateLimitRPS
	}
	if result.RateLimitBurst == 0 {
		result.RateLimitBurst = defaults.RateLimitBurst
	}

	return result
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LLMConfigured reports whether the selected provider has an API key.
func (c *Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	}
	return false
}

// UploadsConfigured reports whether both buckets are named.
func (c *Config) UploadsConfigured() bool {
	return c.ThumbnailBucket != "" && c.ArtifactsBucket != ""
}
