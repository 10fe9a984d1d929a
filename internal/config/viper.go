// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/cascade"
)

// DefaultCategories seed an empty ledger.
var DefaultCategories = []string{
	"Household cost", "Car", "Health/Medicine", "Sadaka", "Fixed/contract",
	"Extra", "Entertainment", "Family Education", "Savings cost",
}

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Data struct {
		Backend       string `mapstructure:"backend" yaml:"backend"`
		File          string `mapstructure:"file" yaml:"file"`
		SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
		BackupEnabled bool   `mapstructure:"backup_enabled" yaml:"backup_enabled"`
		BackupFile    string `mapstructure:"backup_file" yaml:"backup_file"`
		SaveRetries   int    `mapstructure:"save_retries" yaml:"save_retries"`
	} `mapstructure:"data" yaml:"data"`

	Ledger struct {
		HomeCurrency          string   `mapstructure:"home_currency" yaml:"home_currency"`
		ForeignCurrency       string   `mapstructure:"foreign_currency" yaml:"foreign_currency"`
		DefaultConversionRate float64  `mapstructure:"default_conversion_rate" yaml:"default_conversion_rate"`
		SavingsCategories     []string `mapstructure:"savings_categories" yaml:"savings_categories"`
		DefaultCategories     []string `mapstructure:"default_categories" yaml:"default_categories"`
		TaxonomySeed          string   `mapstructure:"taxonomy_seed" yaml:"taxonomy_seed"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Aggregation struct {
		AveragePolicy string `mapstructure:"average_policy" yaml:"average_policy"`
		HomePlaces    int    `mapstructure:"home_places" yaml:"home_places"`
		ForeignPlaces int    `mapstructure:"foreign_places" yaml:"foreign_places"`
	} `mapstructure:"aggregation" yaml:"aggregation"`

	Cascade struct {
		Strategy string `mapstructure:"strategy" yaml:"strategy"`
	} `mapstructure:"cascade" yaml:"cascade"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from defaults, an optional config file and
// FINMAN_ environment variables. A non-empty file overrides the search path.
func Load(file string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.finman")
		v.AddConfigPath(".finman")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("FINMAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// Data defaults
	v.SetDefault("data.backend", "json")
	v.SetDefault("data.file", "finance_data.json")
	v.SetDefault("data.sqlite_path", "finance_data.db")
	v.SetDefault("data.backup_enabled", true)
	v.SetDefault("data.backup_file", "finance_data_backup.csv")
	v.SetDefault("data.save_retries", 2)

	// Ledger defaults
	v.SetDefault("ledger.home_currency", "EUR")
	v.SetDefault("ledger.foreign_currency", "BDT")
	v.SetDefault("ledger.default_conversion_rate", 140.0)
	v.SetDefault("ledger.savings_categories", []string{"Savings cost"})
	v.SetDefault("ledger.default_categories", DefaultCategories)
	v.SetDefault("ledger.taxonomy_seed", "categories.yaml")

	// Aggregation defaults
	v.SetDefault("aggregation.average_policy", string(aggregation.AverageFixed))
	v.SetDefault("aggregation.home_places", 2)
	v.SetDefault("aggregation.foreign_places", 0)

	// Cascade defaults
	v.SetDefault("cascade.strategy", string(cascade.StrategyIndex))
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV delimiter
	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	// Validate storage
	switch strings.ToLower(config.Data.Backend) {
	case "json":
		if config.Data.File == "" {
			return fmt.Errorf("data.file is required for the json backend")
		}
	case "sqlite":
		if config.Data.SQLitePath == "" {
			return fmt.Errorf("data.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid data.backend: %s (must be 'json' or 'sqlite')", config.Data.Backend)
	}
	if config.Data.BackupEnabled && config.Data.BackupFile == "" {
		return fmt.Errorf("data.backup_file is required when backups are enabled")
	}
	if config.Data.SaveRetries < 0 || config.Data.SaveRetries > 10 {
		return fmt.Errorf("data.save_retries must be between 0 and 10, got: %d", config.Data.SaveRetries)
	}

	// Validate ledger
	if config.Ledger.DefaultConversionRate <= 0 {
		return fmt.Errorf("ledger.default_conversion_rate must be positive, got: %v", config.Ledger.DefaultConversionRate)
	}
	if config.Ledger.HomeCurrency == "" || config.Ledger.ForeignCurrency == "" {
		return fmt.Errorf("ledger.home_currency and ledger.foreign_currency are required")
	}

	// Validate aggregation and cascade
	if _, err := aggregation.ParseAveragePolicy(config.Aggregation.AveragePolicy); err != nil {
		return err
	}
	for name, places := range map[string]int{
		"aggregation.home_places":    config.Aggregation.HomePlaces,
		"aggregation.foreign_places": config.Aggregation.ForeignPlaces,
	} {
		if places < 0 || places > 8 {
			return fmt.Errorf("%s must be between 0 and 8, got: %d", name, places)
		}
	}
	if _, err := cascade.ParseStrategy(config.Cascade.Strategy); err != nil {
		return err
	}

	return nil
}

// DelimiterRune returns the configured CSV delimiter.
func (c *Config) DelimiterRune() rune {
	return []rune(c.CSV.Delimiter)[0]
}

// ConversionRate returns the default rate as a decimal.
func (c *Config) ConversionRate() decimal.Decimal {
	return decimal.NewFromFloat(c.Ledger.DefaultConversionRate)
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
