package models

// AccountType classifies an account in the double-entry sense.
type AccountType string

const (
	AccountTypeExpense   AccountType = "expense"
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeIncome    AccountType = "income"
	AccountTypeEquity    AccountType = "equity"
)

// MappingSource names the resolution stage that produced a mapping.
type MappingSource string

const (
	SourcePattern         MappingSource = "pattern"
	SourceVendor          MappingSource = "vendor"
	SourceUser            MappingSource = "user"
	SourceBusinessDefault MappingSource = "business_default"
	SourceAI              MappingSource = "ai"
	SourceStaticFallback  MappingSource = "static_fallback"
)

// MappingResult is the outcome of classifying one line item into an account.
type MappingResult struct {
	Account     AccountPath   `json:"account"`
	AccountType AccountType   `json:"account_type"`
	Confidence  float64       `json:"confidence"`
	Source      MappingSource `json:"source"`
}

// MatchType controls how a table entry is compared against input text.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// PatternRule maps item descriptions to an account. Account may contain the
// {business} placeholder which is replaced with the business segment.
type PatternRule struct {
	Pattern     string      `yaml:"pattern"`
	MatchType   MatchType   `yaml:"match_type"`
	Account     string      `yaml:"account"`
	AccountType AccountType `yaml:"account_type,omitempty"`
	Business    string      `yaml:"business,omitempty"`
	Confidence  float64     `yaml:"confidence,omitempty"`
}

// VendorRule maps a vendor name (or regex) to an account.
type VendorRule struct {
	Name        string      `yaml:"name"`
	Pattern     string      `yaml:"pattern,omitempty"`
	Account     string      `yaml:"account"`
	AccountType AccountType `yaml:"account_type,omitempty"`
	Confidence  float64     `yaml:"confidence,omitempty"`
}

// UserOverride is a mapping saved by a user; it beats every other table.
type UserOverride struct {
	User        string    `yaml:"user,omitempty"`
	Description string    `yaml:"description"`
	MatchType   MatchType `yaml:"match_type,omitempty"`
	Account     string    `yaml:"account"`
}

// BusinessDefault is the account used for a business when nothing specific matches.
type BusinessDefault struct {
	Account     string      `yaml:"account"`
	AccountType AccountType `yaml:"account_type,omitempty"`
}

// PatternsConfig is the layout of the patterns YAML file.
type PatternsConfig struct {
	Patterns []PatternRule `yaml:"patterns"`
}

// VendorsConfig is the layout of the vendors YAML file.
type VendorsConfig struct {
	Vendors []VendorRule `yaml:"vendors"`
}

// UserOverridesConfig is the layout of the user overrides YAML file.
type UserOverridesConfig struct {
	Overrides []UserOverride `yaml:"overrides"`
}

// BusinessDefaultsConfig is the layout of the business defaults YAML file.
type BusinessDefaultsConfig struct {
	Businesses map[string]BusinessDefault `yaml:"businesses"`
}
