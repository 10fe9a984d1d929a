package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/msahsan119/finman/internal/logging"
)

// LoadEnv loads variables from the first .env file found in the current or
// parent directory. Variables already set in the environment win. It returns
// the file loaded, or "" when there is none.
func LoadEnv(logger logging.Logger) string {
	logger = logging.OrDefault(logger)

	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.F(logging.FieldFile, envFile))
			return ""
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
		return envFile
	}
	logger.Debug("No .env file found, using environment variables")
	return ""
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
