// Package cli provides the process bootstrap used by cmd/finexpress:
// env file loading, logger setup and config validation.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"finexpress/internal/config"
	applog "finexpress/internal/log"
)

// SetupLogger builds the application logger at the given level and
// installs it as the slog default.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development.
// Missing files are ignored since the environment may be set externally.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}
