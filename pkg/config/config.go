package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported data sources
const (
	SourceJSON     = "json"
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Input source
	Source SourceConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Engine
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// SourceConfig selects where the input tables come from
type SourceConfig struct {
	Kind    string        // json, postgres, http
	DataDir string        // json: directory of <table>.json files
	URL     string        // http: base URL serving <table>.json
	Timeout time.Duration // http: per-request timeout
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // dataset cache lifetime
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL    string
	Schema string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// EngineConfig holds the run parameters exposed to operators
type EngineConfig struct {
	ReferenceDate       string // YYYY-MM-DD, empty = today
	PromoMetric         string // units, revenue
	LedgerOrder         string // chronological, table
	InventoryWindowDays int
	InventoryTopN       int
	RulesFile           string
	RefreshSchedule     string // cron with seconds
	RefreshPerMinute    int
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Source: SourceConfig{
			Kind:    getEnv("DATA_SOURCE", SourceJSON),
			DataDir: getEnv("DATA_DIR", "data"),
			URL:     getEnv("DATA_URL", ""),
			Timeout: getEnvAsDuration("DATA_HTTP_TIMEOUT", "30s"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Schema:          getEnv("DB_SCHEMA", "retail"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_TTL", "10m"),
		},

		Engine: EngineConfig{
			ReferenceDate:       getEnv("REFERENCE_DATE", ""),
			PromoMetric:         getEnv("PROMO_METRIC", "units"),
			LedgerOrder:         getEnv("LEDGER_ORDER", "chronological"),
			InventoryWindowDays: getEnvAsInt("INVENTORY_WINDOW_DAYS", 7),
			InventoryTopN:       getEnvAsInt("INVENTORY_TOP_N", 5),
			RulesFile:           getEnv("RULES_FILE", ""),
			RefreshSchedule:     getEnv("REFRESH_SCHEDULE", "0 */15 * * * *"),
			RefreshPerMinute:    getEnvAsInt("REFRESH_RATE_PER_MIN", 2),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ReferenceDate resolves the segmentation reference date (today when unset)
func (c *Config) ReferenceDate(now time.Time) (time.Time, error) {
	if c.Engine.ReferenceDate == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	t, err := time.Parse("2006-01-02", c.Engine.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("REFERENCE_DATE must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Source.Kind {
	case SourceJSON:
		if c.Source.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres source")
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			return fmt.Errorf("DATA_URL is required for the http source")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: json, postgres, http")
	}

	if c.Engine.PromoMetric != "units" && c.Engine.PromoMetric != "revenue" {
		return fmt.Errorf("PROMO_METRIC must be one of: units, revenue")
	}

	if c.Engine.LedgerOrder != "chronological" && c.Engine.LedgerOrder != "table" {
		return fmt.Errorf("LEDGER_ORDER must be one of: chronological, table")
	}

	if c.Engine.InventoryWindowDays <= 0 {
		return fmt.Errorf("INVENTORY_WINDOW_DAYS must be > 0")
	}

	if c.Engine.InventoryTopN <= 0 {
		return fmt.Errorf("INVENTORY_TOP_N must be > 0")
	}

	if _, err := c.ReferenceDate(time.Now()); err != nil {
		return err
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
