// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool
	Actor    string // Actor name written to the access log for engine-initiated actions

	AlphaVantage AlphaVantageConfig
	Cache        CacheConfig
	Backup       BackupConfig
}

// AlphaVantageConfig holds market-data client settings
type AlphaVantageConfig struct {
	APIKey            string
	BaseURL           string
	DailyLimit        int
	RequestsPerMinute int
	Timeout           time.Duration
}

// CacheConfig holds analytics cache settings
type CacheConfig struct {
	TTL             time.Duration
	CleanupSchedule string // cron spec for the expired-entry cleanup job
}

// BackupConfig holds settings for database backups to S3-compatible storage.
// Backups are disabled when Bucket is empty.
type BackupConfig struct {
	Bucket          string
	Endpoint        string // empty for AWS, account endpoint for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Schedule        string
	RetentionDays   int // 0 keeps every backup
}

// Enabled reports whether a backup destination is configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("APPA_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("APPA_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Actor:    getEnv("APPA_ACTOR", "system"),
		AlphaVantage: AlphaVantageConfig{
			APIKey:            getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:           getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			DailyLimit:        getEnvAsInt("ALPHAVANTAGE_DAILY_LIMIT", 25),
			RequestsPerMinute: getEnvAsInt("ALPHAVANTAGE_RPM", 5),
			Timeout:           time.Duration(getEnvAsInt("ALPHAVANTAGE_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Cache: CacheConfig{
			TTL:             time.Duration(getEnvAsInt("ANALYTICS_CACHE_TTL_MINUTES", 60)) * time.Minute,
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@every 30m"),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "appa-backup-"),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("ALPHAVANTAGE_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.AlphaVantage.DailyLimit <= 0 {
		return fmt.Errorf("ALPHAVANTAGE_DAILY_LIMIT must be positive, got %d", c.AlphaVantage.DailyLimit)
	}
	if c.AlphaVantage.RequestsPerMinute <= 0 {
		return fmt.Errorf("ALPHAVANTAGE_RPM must be positive, got %d", c.AlphaVantage.RequestsPerMinute)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL_MINUTES must be positive")
	}
	if c.Backup.Enabled() {
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("BACKUP_S3_ACCESS_KEY_ID and BACKUP_S3_SECRET_ACCESS_KEY are required when BACKUP_S3_BUCKET is set")
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", c.Backup.RetentionDays)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
