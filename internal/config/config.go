package config

import (
	"fmt"
	"strings"
	"time"

	"forage-map/orchard/internal/constants"

	"github.com/spf13/viper"
)

// Table backends
const (
	BackendSheets   = "sheets"
	BackendAirtable = "airtable"
	BackendSQL      = "sql"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Table     TableConfig
	Cache     CacheConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// TableConfig says where the points table lives and how to reach it.
type TableConfig struct {
	Backend  string
	Location string
	Sheet    string

	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	AirtableAPIKey  string
	AirtableBaseURL string
}

// CacheConfig holds snapshot cache configuration.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RateLimitConfig bounds write requests per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom builds the configuration from an existing viper instance, so
// callers can layer flags or a config file on top of the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TABLE_BACKEND", BackendSheets)
	v.SetDefault("TABLE_SHEET", constants.DefaultSheetName)
	v.SetDefault("AIRTABLE_BASE_URL", "https://api.airtable.com")
	v.SetDefault("CACHE_BACKEND", CacheMemory)
	v.SetDefault("CACHE_TTL", "10s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:8501")
	v.SetDefault("RATE_LIMIT_RPS", 1)
	v.SetDefault("RATE_LIMIT_BURST", 5)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Table: TableConfig{
			Backend:               strings.ToLower(strings.TrimSpace(v.GetString("TABLE_BACKEND"))),
			Location:              strings.TrimSpace(v.GetString("TABLE_LOCATION")),
			Sheet:                 strings.TrimSpace(v.GetString("TABLE_SHEET")),
			GoogleCredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
			GoogleCredentialsJSON: v.GetString("GOOGLE_CREDENTIALS_JSON"),
			AirtableAPIKey:        v.GetString("AIRTABLE_API_KEY"),
			AirtableBaseURL:       strings.TrimRight(v.GetString("AIRTABLE_BASE_URL"), "/"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			TTL:           v.GetDuration("CACHE_TTL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if cfg.Table.Sheet == "" {
		cfg.Table.Sheet = constants.DefaultSheetName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if err := c.Table.Validate(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}

	return nil
}

// Validate checks the table settings for the selected backend.
func (t TableConfig) Validate() error {
	if t.Location == "" {
		return fmt.Errorf("TABLE_LOCATION is required")
	}

	switch t.Backend {
	case BackendSheets:
		if t.GoogleCredentialsFile == "" && t.GoogleCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON is required for the sheets backend")
		}
	case BackendAirtable:
		if t.AirtableAPIKey == "" {
			return fmt.Errorf("AIRTABLE_API_KEY is required for the airtable backend")
		}
	case BackendSQL:
	default:
		return fmt.Errorf("TABLE_BACKEND must be one of %s, %s, %s; got %q", BackendSheets, BackendAirtable, BackendSQL, t.Backend)
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
