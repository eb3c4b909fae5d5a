// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port                int
	DevMode             bool
	LogLevel            string
	DataDir             string
	DefaultJurisdiction string

	// Default fee schedule for cost estimation when the caller omits one
	CommissionPerTrade float64
	SpreadPct          float64

	// Flat assumed-gain fraction used for sell-side tax impact when no lot
	// data is supplied
	AssumedGainFraction float64

	// Snapshot cache TTL in minutes
	SnapshotTTLMinutes int

	// S3-compatible backup target (disabled when AccessKey is empty)
	BackupEndpoint  string
	BackupRegion    string
	BackupBucket    string
	BackupAccessKey string
	BackupSecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8090),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DataDir:             getEnv("DATA_DIR", "./data"),
		DefaultJurisdiction: getEnv("DEFAULT_JURISDICTION", "US"),
		CommissionPerTrade:  getEnvAsFloat("COMMISSION_PER_TRADE", 0.0),
		SpreadPct:           getEnvAsFloat("SPREAD_PCT", 0.0005),
		AssumedGainFraction: getEnvAsFloat("ASSUMED_GAIN_FRACTION", 0.10),
		SnapshotTTLMinutes:  getEnvAsInt("SNAPSHOT_TTL_MINUTES", 15),
		BackupEndpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupRegion:        getEnv("BACKUP_S3_REGION", "auto"),
		BackupBucket:        getEnv("BACKUP_S3_BUCKET", ""),
		BackupAccessKey:     getEnv("BACKUP_S3_ACCESS_KEY", ""),
		BackupSecretKey:     getEnv("BACKUP_S3_SECRET_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.AssumedGainFraction < 0 || c.AssumedGainFraction > 1 {
		return fmt.Errorf("ASSUMED_GAIN_FRACTION must be in [0,1], got %f", c.AssumedGainFraction)
	}
	if c.SpreadPct < 0 || c.SpreadPct > 1 {
		return fmt.Errorf("SPREAD_PCT must be in [0,1], got %f", c.SpreadPct)
	}
	return nil
}

// BackupEnabled reports whether the S3 backup target is configured
func (c *Config) BackupEnabled() bool {
	return c.BackupAccessKey != "" && c.BackupSecretKey != "" && c.BackupBucket != ""
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
