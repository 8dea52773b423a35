package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	LogFormat     string
	PublicBaseURL string

	// Postgres connection for the storefront catalog.
	DatabaseURL string

	// Redis for business settings and wizard sessions.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Upstream availability + booking services.
	AvailabilityBaseURL string
	BookingBaseURL      string
	UpstreamTimeout     time.Duration

	// Wizard sessions expire after this long without activity.
	WizardSessionTTL time.Duration

	// Calendar overview lookahead beyond the visible month.
	OverviewLookaheadMonths int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "json"),
		PublicBaseURL:           getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisTLS:                getEnvAsBool("REDIS_TLS", false),
		AvailabilityBaseURL:     getEnv("AVAILABILITY_BASE_URL", ""),
		BookingBaseURL:          getEnv("BOOKING_BASE_URL", ""),
		UpstreamTimeout:         getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		WizardSessionTTL:        getEnvAsDuration("WIZARD_SESSION_TTL", 30*time.Minute),
		OverviewLookaheadMonths: getEnvAsInt("OVERVIEW_LOOKAHEAD_MONTHS", 2),
		CORSAllowedOrigins:      getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
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

// getEnvAsSlice parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
