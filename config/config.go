package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig

	// API key allow-list
	Auth AuthConfig

	// Logging configuration
	Log LogConfig

	// Metrics configuration
	Metrics MetricsConfig

	// Smoke client configuration
	Smoke SmokeConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port                   int
	CORSAllowedOrigins     string
	RequestTimeoutSeconds  int
	ShutdownTimeoutSeconds int
}

// AuthConfig holds the API key allow-list
type AuthConfig struct {
	APIKeys       map[string]string // key -> identity label
	AdvertiseKeys bool              // list valid keys on the welcome endpoint
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string // text or json
	Level  string // debug, info, warn, error
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool
}

// SmokeConfig holds configuration for the smoke test client
type SmokeConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// DefaultAPIKeys is the training allow-list used when API_KEYS is not set
var DefaultAPIKeys = map[string]string{
	"training-key-001": "Training User 1",
	"training-key-002": "Training User 2",
	"demo-api-key-123": "Demo User",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	apiKeys := DefaultAPIKeys
	if raw := os.Getenv("API_KEYS"); raw != "" {
		parsed, err := ParseAPIKeys(raw)
		if err != nil {
			return nil, fmt.Errorf("API_KEYS: %w", err)
		}
		apiKeys = parsed
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:                   getEnvInt("HTTP_PORT", 8000),
			CORSAllowedOrigins:     getEnvString("HTTP_CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds:  getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ShutdownTimeoutSeconds: getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 10),
		},
		Auth: AuthConfig{
			APIKeys:       copyKeys(apiKeys),
			AdvertiseKeys: getEnvBool("AUTH_ADVERTISE_KEYS", true),
		},
		Log: LogConfig{
			Format: strings.ToLower(getEnvString("LOG_FORMAT", "text")),
			Level:  strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		Smoke: SmokeConfig{
			BaseURL:        strings.TrimRight(getEnvString("SMOKE_BASE_URL", "http://localhost:8000"), "/"),
			APIKey:         getEnvString("SMOKE_API_KEY", "training-key-001"),
			TimeoutSeconds: getEnvInt("SMOKE_TIMEOUT_SECONDS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.RequestTimeoutSeconds)
	}
	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

// IsProduction returns true when structured JSON logging is requested
func (c *Config) IsProduction() bool {
	return c.Log.Format == "json"
}

// SortedAPIKeys returns the configured keys in lexical order
func (c *Config) SortedAPIKeys() []string {
	keys := make([]string, 0, len(c.Auth.APIKeys))
	for k := range c.Auth.APIKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseAPIKeys parses a comma separated list of key=identity pairs
func ParseAPIKeys(raw string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, identity, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		identity = strings.TrimSpace(identity)
		if !ok || key == "" || identity == "" {
			return nil, fmt.Errorf("invalid entry %q, expected key=identity", entry)
		}
		if strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("key %q must not contain whitespace", key)
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		keys[key] = identity
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys configured")
	}
	return keys, nil
}

func copyKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:                   8000,
			CORSAllowedOrigins:     "*",
			RequestTimeoutSeconds:  30,
			ShutdownTimeoutSeconds: 10,
		},
		Auth: AuthConfig{
			APIKeys:       copyKeys(DefaultAPIKeys),
			AdvertiseKeys: true,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Smoke: SmokeConfig{
			BaseURL:        "http://localhost:8000",
			APIKey:         "training-key-001",
			TimeoutSeconds: 10,
		},
	}
}
