// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Data locations
	InputDir       string
	OutputDir      string
	IntegratedFile string // integrated table CSV, relative to OutputDir
	SummaryFile    string // per-country summary CSV, relative to OutputDir
	TrendFile      string // trend result JSON, relative to OutputDir

	// Trend line rendering
	LineSamples int

	// Optional Postgres sink for the integrated table
	Postgres *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables. An optional .env
// file (envFile, or ".env" when empty) is read first if it exists.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.New("failed to load env file: " + err.Error())
		}
	}

	cfg := &Config{
		InputDir:       getEnv("DATA_INPUT_DIR", "data/input"),
		OutputDir:      getEnv("DATA_OUTPUT_DIR", "data/output"),
		IntegratedFile: getEnv("INTEGRATED_FILE", "integrated_eurostat_transport_climate.csv"),
		SummaryFile:    getEnv("SUMMARY_FILE", "country_summary.csv"),
		TrendFile:      getEnv("TREND_FILE", "trend.json"),
		LineSamples:    getEnvAsInt("TREND_LINE_SAMPLES", 100),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	// The Postgres sink is opt-in: only load its config when enabled
	if getEnvAsBool("POSTGRES_SINK_ENABLED", false) {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if c.IntegratedFile == "" {
		return errors.New("integrated output file name is required")
	}

	if c.LineSamples < 2 {
		return errors.New("trend line samples must be at least 2")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
