// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad() and pass it by reference; no package
// keeps process-wide mutable state.
type AppConfig struct {
	// DBDSN is the Postgres connection string.
	DBDSN string

	// Redis contains connection settings for the low-latency cache.
	Redis RedisConfig

	// ESI contains settings for the upstream market API client.
	ESI ESIConfig

	// Pipeline contains settings for the scheduled snapshot pipeline.
	Pipeline PipelineConfig

	// ServerPort is the listen port of the read API server.
	ServerPort string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is the Redis address (e.g., "localhost:6379").
	Addr string

	// Password is the Redis password; empty means no auth.
	Password string

	// DB is the Redis logical database number.
	DB int
}

// ESIConfig holds upstream market API client settings.
type ESIConfig struct {
	// BaseURL is the root of the market API (e.g., "https://esi.evetech.net/latest").
	BaseURL string

	// UserAgent is sent with every upstream request, as the API operator requires.
	UserAgent string

	// RequestTimeout bounds a single page request.
	RequestTimeout time.Duration

	// RequestsPerSecond caps the upstream request rate across all regions.
	RequestsPerSecond float64
}

// PipelineConfig holds settings for one snapshot run.
type PipelineConfig struct {
	// Regions is the fixed set of region IDs to snapshot each run.
	Regions []int64

	// FetchWorkers is the number of regions fetched in parallel.
	FetchWorkers int

	// Interval is the scheduler period between runs.
	Interval time.Duration

	// AggregateTTL bounds staleness of cached price aggregates.
	AggregateTTL time.Duration
}

// The Forge, Domain, Heimatar, Sinq Laison, Metropolis.
const defaultRegions = "10000002,10000043,10000030,10000032,10000042"

// getDatabaseDSN constructs the Postgres DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPassword := getEnv("POSTGRES_PASSWORD", "postgres")
	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbName := getEnv("POSTGRES_DB", "evemarket")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPassword, dbHost, dbPort, dbName, sslMode,
	)
}

// getRegions parses the comma-separated region list from environment.
// Entries that do not parse as integers are dropped.
func getRegions() []int64 {
	raw := getEnv("MARKET_REGIONS", defaultRegions)

	var regions []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		regions = append(regions, id)
	}
	return regions
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		DBDSN: getDatabaseDSN(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		ESI: ESIConfig{
			BaseURL:           getEnv("ESI_BASE_URL", "https://esi.evetech.net/latest"),
			UserAgent:         getEnv("ESI_USER_AGENT", "evemarket-pipeline"),
			RequestTimeout:    time.Duration(getEnvInt("ESI_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			RequestsPerSecond: getEnvFloat("ESI_REQUESTS_PER_SECOND", 5),
		},
		Pipeline: PipelineConfig{
			Regions:      getRegions(),
			FetchWorkers: getEnvInt("FETCH_WORKERS", 10),
			Interval:     time.Duration(getEnvInt("PIPELINE_INTERVAL_MINUTES", 30)) * time.Minute,
			AggregateTTL: time.Duration(getEnvInt("AGGREGATE_TTL_SECONDS", 5400)) * time.Second,
		},
		ServerPort: getEnv("SERVER_PORT", "8080"),
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
