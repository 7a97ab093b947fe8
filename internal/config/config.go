package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CatalogFile        string
	DatabaseURL        string
	RedisURL           string
	PriceFeedURL       string
	CORSAllowedOrigins []string

	CatalogCacheTTL time.Duration
	QuoteTTL        time.Duration
	IdempotencyTTL  time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingEndpoint  string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env
// files. Exactly one catalog source must be configured: CATALOG_FILE for a
// file-backed catalog or DATABASE_URL for Postgres.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CatalogFile:        strings.TrimSpace(k.String("CATALOG_FILE")),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		PriceFeedURL:       strings.TrimSpace(k.String("PRICE_FEED_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		QuoteTTL:        parseDuration(k.String("QUOTE_TTL"), "720h"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		RateLimitMax:    intOrDefault(k.Int("RATE_LIMIT_MAX"), 60),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),

		LogFormat:        valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "advisor"),
		MetricsBuckets:   strings.TrimSpace(k.String("METRICS_BUCKETS_MS")),
		TracingEnabled:   parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint:  strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSampling:  floatOrDefault(k.Float64("TRACING_SAMPLING_RATIO"), 1),
	}

	if cfg.CatalogFile == "" && cfg.DatabaseURL == "" {
		return nil, errors.New("either CATALOG_FILE or DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func floatOrDefault(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
