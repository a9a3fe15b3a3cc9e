package store

import (
	"sync"

	"fjacquet/receipt-ledger/internal/models"
)

// MockMappingStore is an in-memory mapping store for tests.
type MockMappingStore struct {
	mu sync.Mutex

	Patterns         []models.PatternRule
	Vendors          []models.VendorRule
	Overrides        []models.UserOverride
	BusinessDefaults map[string]models.BusinessDefault

	LoadError error
	SaveError error
	Saves     int
}

// LoadPatterns returns the configured patterns.
func (m *MockMappingStore) LoadPatterns() ([]models.PatternRule, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	return append([]models.PatternRule(nil), m.Patterns...), nil
}

// LoadVendors returns the configured vendors.
func (m *MockMappingStore) LoadVendors() ([]models.VendorRule, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	return append([]models.VendorRule(nil), m.Vendors...), nil
}

// LoadUserOverrides returns the configured overrides.
func (m *MockMappingStore) LoadUserOverrides() ([]models.UserOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	return append([]models.UserOverride(nil), m.Overrides...), nil
}

// LoadBusinessDefaults returns a copy of the configured defaults.
func (m *MockMappingStore) LoadBusinessDefaults() (map[string]models.BusinessDefault, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	result := make(map[string]models.BusinessDefault, len(m.BusinessDefaults))
	for k, v := range m.BusinessDefaults {
		result[k] = v
	}
	return result, nil
}

// SaveUserOverrides records the overrides.
func (m *MockMappingStore) SaveUserOverrides(overrides []models.UserOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Overrides = append([]models.UserOverride(nil), overrides...)
	m.Saves++
	return nil
}
