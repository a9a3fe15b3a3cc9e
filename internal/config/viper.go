// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/receipt-ledger/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Ledger struct {
		DefaultCurrency  string  `mapstructure:"default_currency" yaml:"default_currency"`
		DefaultPayee     string  `mapstructure:"default_payee" yaml:"default_payee"`
		PaymentAccount   string  `mapstructure:"payment_account" yaml:"payment_account"`
		IncludeTaxLine   bool    `mapstructure:"include_tax_line" yaml:"include_tax_line"`
		BalanceThreshold float64 `mapstructure:"balance_threshold" yaml:"balance_threshold"`
	} `mapstructure:"ledger" yaml:"ledger"`

	AI struct {
		Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
		Provider          string `mapstructure:"provider" yaml:"provider"`
		Model             string `mapstructure:"model" yaml:"model"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
		TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		EnhanceAccounts   bool   `mapstructure:"enhance_accounts" yaml:"enhance_accounts"`
		SegmentReceipts   bool   `mapstructure:"segment_receipts" yaml:"segment_receipts"`
		FallbackAccount   string `mapstructure:"fallback_account" yaml:"fallback_account"`
		APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Categorization struct {
		ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
		AutoLearn           bool    `mapstructure:"auto_learn" yaml:"auto_learn"`
	} `mapstructure:"categorization" yaml:"categorization"`

	Mappings struct {
		Directory            string `mapstructure:"directory" yaml:"directory"`
		PatternsFile         string `mapstructure:"patterns_file" yaml:"patterns_file"`
		VendorsFile          string `mapstructure:"vendors_file" yaml:"vendors_file"`
		UserOverridesFile    string `mapstructure:"user_overrides_file" yaml:"user_overrides_file"`
		BusinessDefaultsFile string `mapstructure:"business_defaults_file" yaml:"business_defaults_file"`
	} `mapstructure:"mappings" yaml:"mappings"`

	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		Path   string `mapstructure:"path" yaml:"path"`
		DSN    string `mapstructure:"dsn" yaml:"-"`
	} `mapstructure:"store" yaml:"store"`

	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// InitializeConfig loads configuration from the standard search paths.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load initializes Viper configuration with hierarchical loading. When
// configFile is empty the standard search paths are used.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.receipt-ledger")
		v.AddConfigPath(".receipt-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Fprintf(os.Stderr, "Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Store DSN also comes from the conventional DATABASE_URL
	if err := v.BindEnv("store.dsn", "LEDGER_STORE_DSN", "DATABASE_URL"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind DATABASE_URL environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Provider API keys are read unprefixed
	if config.AI.APIKey == "" {
		config.AI.APIKey = providerAPIKey(config.AI.Provider)
	}

	// 7. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func providerAPIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Ledger defaults
	v.SetDefault("ledger.default_currency", "THB")
	v.SetDefault("ledger.default_payee", "Personal")
	v.SetDefault("ledger.payment_account", "Assets:Cash")
	v.SetDefault("ledger.include_tax_line", true)
	v.SetDefault("ledger.balance_threshold", 0.02)

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.enhance_accounts", true)
	v.SetDefault("ai.segment_receipts", true)
	v.SetDefault("ai.fallback_account", "Expenses:Uncategorized")
	v.SetDefault("ai.api_key", "")

	// Categorization defaults
	v.SetDefault("categorization.confidence_threshold", 0.5)
	v.SetDefault("categorization.auto_learn", true)

	// Mapping table defaults
	v.SetDefault("mappings.directory", "")
	v.SetDefault("mappings.patterns_file", "patterns.yaml")
	v.SetDefault("mappings.vendors_file", "vendors.yaml")
	v.SetDefault("mappings.user_overrides_file", "user_overrides.yaml")
	v.SetDefault("mappings.business_defaults_file", "business_defaults.yaml")

	// Journal store defaults
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.path", "ledger.db")
	v.SetDefault("store.dsn", "")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	config.Ledger.DefaultCurrency = strings.ToUpper(config.Ledger.DefaultCurrency)
	if !currencyPattern.MatchString(config.Ledger.DefaultCurrency) {
		return fmt.Errorf("ledger.default_currency must be a 3-letter code, got: %s", config.Ledger.DefaultCurrency)
	}

	if !models.AccountPath(config.Ledger.PaymentAccount).IsValid() {
		return fmt.Errorf("ledger.payment_account is not a valid account path: %s", config.Ledger.PaymentAccount)
	}

	if config.Ledger.BalanceThreshold < 0 || config.Ledger.BalanceThreshold > 1 {
		return fmt.Errorf("ledger.balance_threshold must be between 0 and 1, got: %f", config.Ledger.BalanceThreshold)
	}

	if config.AI.Enabled {
		switch config.AI.Provider {
		case "gemini", "anthropic":
		default:
			return fmt.Errorf("ai.provider must be 'gemini' or 'anthropic', got: %s", config.AI.Provider)
		}

		if config.AI.APIKey == "" {
			return fmt.Errorf("API key required when AI is enabled (set GEMINI_API_KEY or ANTHROPIC_API_KEY)")
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if !models.AccountPath(config.AI.FallbackAccount).IsValid() {
		return fmt.Errorf("ai.fallback_account is not a valid account path: %s", config.AI.FallbackAccount)
	}

	if config.Categorization.ConfidenceThreshold < 0.0 || config.Categorization.ConfidenceThreshold > 1.0 {
		return fmt.Errorf("categorization.confidence_threshold must be between 0.0 and 1.0, got: %f", config.Categorization.ConfidenceThreshold)
	}

	switch config.Store.Driver {
	case "none", "bolt":
	case "postgres":
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("store.driver must be 'none', 'bolt' or 'postgres', got: %s", config.Store.Driver)
	}

	return nil
}
