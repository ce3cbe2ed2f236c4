// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases
	LogLevel string
	Port     int
	DevMode  bool

	Analytics AnalyticsConfig
}

// AnalyticsConfig holds the tunable thresholds of the analytics engine.
// These are policy knobs, not algorithm parameters: the solver tolerances
// and iteration budgets live with the formulas themselves.
type AnalyticsConfig struct {
	// ConcentrationThresholdPct flags concentration risk when any single
	// holding's weight exceeds it.
	ConcentrationThresholdPct float64

	// OverDiversificationCount and SmallHoldingWeightPct together flag
	// needless fragmentation: more holdings than the count threshold while
	// the largest position stays below the weight threshold.
	OverDiversificationCount int
	SmallHoldingWeightPct    float64

	// SnapshotSchedule is the cron expression for the nightly portfolio
	// snapshot job.
	SnapshotSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		DataDir:  getEnv("DATA_DIR", "./data"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Analytics: AnalyticsConfig{
			ConcentrationThresholdPct: getEnvAsFloat("CONCENTRATION_THRESHOLD_PCT", 30),
			OverDiversificationCount:  getEnvAsInt("OVER_DIVERSIFICATION_COUNT", 15),
			SmallHoldingWeightPct:     getEnvAsFloat("SMALL_HOLDING_WEIGHT_PCT", 5),
			SnapshotSchedule:          getEnv("SNAPSHOT_SCHEDULE", "0 30 0 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Analytics.ConcentrationThresholdPct <= 0 || c.Analytics.ConcentrationThresholdPct > 100 {
		return fmt.Errorf("CONCENTRATION_THRESHOLD_PCT must be in (0, 100]")
	}
	if c.Analytics.OverDiversificationCount <= 0 {
		return fmt.Errorf("OVER_DIVERSIFICATION_COUNT must be positive")
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
