package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so server.port is
// read from KANJI_SERVER_PORT.
const EnvPrefix = "KANJI"

// Load reads configuration from an optional config.yaml in the working
// directory and from the environment. Environment variables take precedence.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path looks for
// an optional config.yaml in the working directory; a non-empty path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "kanji.db")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("srs.intervals_days", []int{0, 1, 3, 7, 14, 30})
	v.SetDefault("srs.correct_step", 1)
	v.SetDefault("srs.incorrect_step", 2)
	v.SetDefault("srs.max_retries", 5)
	v.SetDefault("srs.timezone", "UTC")

	v.SetDefault("import.data_dir", "data")
	v.SetDefault("import.auto_import", true)
	v.SetDefault("import.watch", false)
	v.SetDefault("import.worker_count", 2)
	v.SetDefault("import.queue_size", 16)
}
