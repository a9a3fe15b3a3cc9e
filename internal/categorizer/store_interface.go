package categorizer

import "fjacquet/receipt-ledger/internal/models"

// MappingStoreInterface defines the interface for mapping table storage.
type MappingStoreInterface interface {
	LoadPatterns() ([]models.PatternRule, error)
	LoadVendors() ([]models.VendorRule, error)
	LoadUserOverrides() ([]models.UserOverride, error)
	LoadBusinessDefaults() (map[string]models.BusinessDefault, error)
	SaveUserOverrides(overrides []models.UserOverride) error
}
