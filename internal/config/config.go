package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	BackendURL     string
	SocketURL      string
	Env            string
	LogLevel       string
	StateDir       string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CurrencySymbol string
	MetricsEnabled bool
	MetricsAddr    string
}

// Load reads configuration from environment variables
func Load() *Config {
	backend := normalizeBaseURL(getEnv("PORTAL_BACKEND_URL", "http://localhost:4000"))
	return &Config{
		BackendURL:     backend,
		SocketURL:      getEnv("PORTAL_SOCKET_URL", deriveSocketURL(backend)),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StateDir:       getEnv("PORTAL_STATE_DIR", defaultStateDir()),
		RequestTimeout: getEnvAsDuration("PORTAL_REQUEST_TIMEOUT", 10*time.Second),
		MaxRetries:     getEnvAsInt("PORTAL_MAX_RETRIES", 2),
		RetryBackoff:   getEnvAsDuration("PORTAL_RETRY_BACKOFF", 250*time.Millisecond),
		CurrencySymbol: getEnv("PORTAL_CURRENCY_SYMBOL", "$"),
		MetricsEnabled: getEnvAsBool("PORTAL_METRICS_ENABLED", false),
		MetricsAddr:    getEnv("PORTAL_METRICS_ADDR", "127.0.0.1:9464"),
	}
}

// normalizeBaseURL strips trailing slashes so path joins never double up.
func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// deriveSocketURL maps the HTTP base to its websocket counterpart.
func deriveSocketURL(backend string) string {
	switch {
	case strings.HasPrefix(backend, "https://"):
		return "wss://" + strings.TrimPrefix(backend, "https://") + "/ws"
	case strings.HasPrefix(backend, "http://"):
		return "ws://" + strings.TrimPrefix(backend, "http://") + "/ws"
	default:
		return backend + "/ws"
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".patient-portal"
	}
	return filepath.Join(home, ".patient-portal")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
