// Package store loads and saves the YAML mapping tables used by the account
// mapper: description patterns, vendors, user overrides and business defaults.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

// Default file names for the mapping tables.
const (
	DefaultPatternsFile         = "patterns.yaml"
	DefaultVendorsFile          = "vendors.yaml"
	DefaultUserOverridesFile    = "user_overrides.yaml"
	DefaultBusinessDefaultsFile = "business_defaults.yaml"
)

// MappingStore manages loading and saving of the mapping tables.
type MappingStore struct {
	PatternsFile         string
	VendorsFile          string
	UserOverridesFile    string
	BusinessDefaultsFile string

	logger logging.Logger
}

// NewMappingStore creates a store for the given table files. Empty names fall
// back to the defaults.
func NewMappingStore(patternsFile, vendorsFile, userOverridesFile, businessDefaultsFile string, logger logging.Logger) *MappingStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MappingStore{
		PatternsFile:         orDefault(patternsFile, DefaultPatternsFile),
		VendorsFile:          orDefault(vendorsFile, DefaultVendorsFile),
		UserOverridesFile:    orDefault(userOverridesFile, DefaultUserOverridesFile),
		BusinessDefaultsFile: orDefault(businessDefaultsFile, DefaultBusinessDefaultsFile),
		logger:               logger,
	}
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// FindConfigFile looks for a mapping file in the standard locations.
func (s *MappingStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "receipt-ledger", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// loadYAML decodes filename into out. A missing file leaves out untouched and
// is not an error.
func (s *MappingStore) loadYAML(filename, table string, out interface{}) (bool, error) {
	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		s.logger.Warn("Mapping file not found",
			logging.F(logging.FieldFile, filename),
			logging.F("table", table))
		return false, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("error reading %s file: %w", table, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("error parsing %s file %s: %w", table, filePath, err)
	}
	return true, nil
}

// LoadPatterns loads the description pattern table.
func (s *MappingStore) LoadPatterns() ([]models.PatternRule, error) {
	var cfg models.PatternsConfig
	if _, err := s.loadYAML(s.PatternsFile, "patterns", &cfg); err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded pattern rules", logging.F(logging.FieldCount, len(cfg.Patterns)))
	return cfg.Patterns, nil
}

// LoadVendors loads the vendor table.
func (s *MappingStore) LoadVendors() ([]models.VendorRule, error) {
	var cfg models.VendorsConfig
	if _, err := s.loadYAML(s.VendorsFile, "vendors", &cfg); err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded vendor rules", logging.F(logging.FieldCount, len(cfg.Vendors)))
	return cfg.Vendors, nil
}

// LoadUserOverrides loads the saved user overrides.
func (s *MappingStore) LoadUserOverrides() ([]models.UserOverride, error) {
	var cfg models.UserOverridesConfig
	if _, err := s.loadYAML(s.UserOverridesFile, "user overrides", &cfg); err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded user overrides", logging.F(logging.FieldCount, len(cfg.Overrides)))
	return cfg.Overrides, nil
}

// LoadBusinessDefaults loads the per-business default accounts.
func (s *MappingStore) LoadBusinessDefaults() (map[string]models.BusinessDefault, error) {
	var cfg models.BusinessDefaultsConfig
	if _, err := s.loadYAML(s.BusinessDefaultsFile, "business defaults", &cfg); err != nil {
		return nil, err
	}
	if cfg.Businesses == nil {
		cfg.Businesses = map[string]models.BusinessDefault{}
	}
	s.logger.Debug("Loaded business defaults", logging.F(logging.FieldCount, len(cfg.Businesses)))
	return cfg.Businesses, nil
}

// SaveUserOverrides writes the user overrides table, creating the file in the
// database directory when it does not exist yet.
func (s *MappingStore) SaveUserOverrides(overrides []models.UserOverride) error {
	filename := s.UserOverridesFile

	filePath, err := s.FindConfigFile(filename)
	if err == os.ErrNotExist {
		if filepath.IsAbs(filename) {
			filePath = filename
		} else {
			filePath = filepath.Join("database", filename)
		}
	} else if err != nil {
		return fmt.Errorf("error resolving user overrides file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(models.UserOverridesConfig{Overrides: overrides})
	if err != nil {
		return fmt.Errorf("error marshaling user overrides: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing user overrides: %w", err)
	}

	s.logger.Debug("Saved user overrides",
		logging.F(logging.FieldCount, len(overrides)),
		logging.F(logging.FieldFile, filePath))
	return nil
}
