package models

// Currencies with a known display symbol
const (
	CurrencyTHB = "THB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
)

// Ledger defaults
const (
	DefaultCurrency       = CurrencyTHB
	DefaultPayee          = "Personal"
	DefaultBusiness       = "Personal"
	DefaultPaymentAccount = "Assets:Cash"
	FallbackAccount       = "Expenses:Uncategorized"
	TaxDescription        = "tax"
)

// Top-level account roots
const (
	RootExpenses    = "Expenses"
	RootAssets      = "Assets"
	RootLiabilities = "Liabilities"
	RootIncome      = "Income"
	RootEquity      = "Equity"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionDataFile   = 0644
)
