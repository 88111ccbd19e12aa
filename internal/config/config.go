package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server        ServerConfig
	Logging       LoggingConfig
	AllocationAPI AllocationAPIConfig
	Sheets        SheetsConfig
	Scheduler     SchedulerConfig
	MongoDB       MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string
}

// AllocationAPIConfig points at the upstream service that owns the allocation dataset.
type AllocationAPIConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	DataPath     string
	SavePath     string
	SolvePath    string
	ValidatePath string
}

// SheetsConfig contains configuration required to publish exports to Google Sheets.
// Publishing is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether a sheet export target is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// SchedulerConfig holds cron settings.
type SchedulerConfig struct {
	ReloadSchedule string
	ExportSchedule string
	Timezone       string
}

// MongoDBConfig holds settings for the allocation run history. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("ALLOCATION_API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parse ALLOCATION_API_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		AllocationAPI: AllocationAPIConfig{
			BaseURL:      os.Getenv("ALLOCATION_API_BASE_URL"),
			Token:        os.Getenv("ALLOCATION_API_TOKEN"),
			Timeout:      timeout,
			DataPath:     getenvWithDefault("ALLOCATION_DATA_PATH", "/api/allocation_data"),
			SavePath:     getenvWithDefault("ALLOCATION_SAVE_PATH", "/api/save_allocations"),
			SolvePath:    getenvWithDefault("ALLOCATION_SOLVE_PATH", "/api/auto_allocate"),
			ValidatePath: getenvWithDefault("ALLOCATION_VALIDATE_PATH", "/api/validate_allocation"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_EXPORT_RANGE", "Allocation!A1"),
		},
		Scheduler: SchedulerConfig{
			ReloadSchedule: getenvWithDefault("RELOAD_CRON_SCHEDULE", "*/15 * * * *"),
			ExportSchedule: os.Getenv("EXPORT_CRON_SCHEDULE"),
			Timezone:       getenvWithDefault("TIMEZONE", "Europe/Paris"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "allocgrid"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.AllocationAPI.BaseURL == "" {
		return errors.New("ALLOCATION_API_BASE_URL must be provided")
	}
	if c.AllocationAPI.Timeout <= 0 {
		return errors.New("ALLOCATION_API_TIMEOUT must be positive")
	}

	switch {
	case c.AllocationAPI.DataPath == "":
		return errors.New("ALLOCATION_DATA_PATH must not be empty")
	case c.AllocationAPI.SavePath == "":
		return errors.New("ALLOCATION_SAVE_PATH must not be empty")
	case c.AllocationAPI.SolvePath == "":
		return errors.New("ALLOCATION_SOLVE_PATH must not be empty")
	case c.AllocationAPI.ValidatePath == "":
		return errors.New("ALLOCATION_VALIDATE_PATH must not be empty")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}
	if c.Scheduler.ExportSchedule != "" && !c.Sheets.Enabled() {
		return errors.New("EXPORT_CRON_SCHEDULE requires GOOGLE_SHEET_EXPORT_ID")
	}

	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
