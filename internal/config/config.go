package config

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects and configures the item store.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`
	URL        string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// AuthConfig contains authentication settings. An empty JWTSecret disables
// bearer-token checks on the API.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// Enabled reports whether API requests must carry a bearer token.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// SRSConfig tunes the mastery ladder and review bookkeeping.
type SRSConfig struct {
	IntervalsDays []int  `mapstructure:"intervals_days" validate:"len=6,dive,gte=0"`
	CorrectStep   int    `mapstructure:"correct_step" validate:"gte=1,lte=5"`
	IncorrectStep int    `mapstructure:"incorrect_step" validate:"gte=1,lte=5"`
	MaxRetries    int    `mapstructure:"max_retries" validate:"gte=1,lte=50"`
	Timezone      string `mapstructure:"timezone" validate:"required,timezone"`
}

// Location loads the configured time zone used for calendar-day streaks.
func (c SRSConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ImportConfig controls loading kanji from data files.
type ImportConfig struct {
	DataDir     string `mapstructure:"data_dir" validate:"required"`
	AutoImport  bool   `mapstructure:"auto_import"`
	Watch       bool   `mapstructure:"watch"`
	WorkerCount int    `mapstructure:"worker_count" validate:"gte=1,lte=32"`
	QueueSize   int    `mapstructure:"queue_size" validate:"gte=1,lte=1024"`
}
