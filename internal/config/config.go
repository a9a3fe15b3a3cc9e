// Package config loads the application configuration and the optional .env
// file.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"fjacquet/receipt-ledger/internal/logging"
)

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, if one exists. Existing variables are not overridden.
func LoadEnv(logger logging.Logger) {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			logger.Debug("No .env file found, using environment variables")
			return
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.WithError(err).Warn("Error loading .env file")
		return
	}
	logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *Config) logging.Logger {
	return logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
}

// MappingPath resolves a mapping table file name against mappings.directory.
func (c *Config) MappingPath(name string) string {
	if name == "" || filepath.IsAbs(name) || c.Mappings.Directory == "" {
		return name
	}
	return filepath.Join(c.Mappings.Directory, name)
}
