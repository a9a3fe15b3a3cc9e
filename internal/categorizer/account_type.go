package categorizer

import (
	"regexp"

	"fjacquet/receipt-ledger/internal/models"
)

// accountTypeRule maps description keywords to an account type.
type accountTypeRule struct {
	re         *regexp.Regexp
	typ        models.AccountType
	confidence float64
}

// Checked in order; the first hit wins.
var accountTypeRules = []accountTypeRule{
	{regexp.MustCompile(`(?i)\b(?:loan|mortgage|credit\s*card|debt|payable|overdraft)\b`), models.AccountTypeLiability, 0.8},
	{regexp.MustCompile(`(?i)\b(?:owner'?s?\s+equity|capital\s+contribution|drawings?|retained\s+earnings|opening\s+balance)\b`), models.AccountTypeEquity, 0.75},
	{regexp.MustCompile(`(?i)\b(?:salary|salaries|wages?|payroll|revenue|income|dividends?|interest\s+earned|refund|commission)\b`), models.AccountTypeIncome, 0.8},
	{regexp.MustCompile(`(?i)\b(?:deposit|savings|investment|stocks?|shares|bonds?|crypto|property|equipment|receivable)\b`), models.AccountTypeAsset, 0.7},
	{regexp.MustCompile(`(?i)\b(?:rent|utilit(?:y|ies)|grocer(?:y|ies)|food|fuel|taxi|subscription|fee|insurance|repair)\b`), models.AccountTypeExpense, 0.8},
}

// DetectAccountTypeDefaultConfidence is reported when no keyword matches and
// the type defaults to expense.
const DetectAccountTypeDefaultConfidence = 0.3

// DetectAccountType guesses the account type of a description from keywords.
func DetectAccountType(description string) (models.AccountType, float64) {
	for _, rule := range accountTypeRules {
		if rule.re.MatchString(description) {
			return rule.typ, rule.confidence
		}
	}
	return models.AccountTypeExpense, DetectAccountTypeDefaultConfidence
}
