package categorizer

import (
	"regexp"
	"strings"
	"unicode"

	"fjacquet/receipt-ledger/internal/models"
)

// Default confidences per stage and match kind, used when a table entry does
// not carry its own.
const (
	ConfidenceUser            = 1.0
	ConfidenceVendorExact     = 0.9
	ConfidenceVendorPattern   = 0.85
	ConfidenceVendorContains  = 0.8
	ConfidencePatternExact    = 0.85
	ConfidencePatternRegex    = 0.8
	ConfidencePatternContains = 0.7
	ConfidenceBusinessDefault = 0.5
	ConfidenceStaticFallback  = 0.0

	businessPlaceholder = "{business}"
)

// normalizeText lowercases and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeVendor lowercases and removes all whitespace so "Net Flix" and
// "netflix" compare equal.
func normalizeVendor(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matcher is a compiled table entry.
type matcher struct {
	matchType models.MatchType
	text      string
	re        *regexp.Regexp
}

// newMatcher compiles pattern for matchType. Regexes are case-insensitive.
func newMatcher(matchType models.MatchType, pattern string) (matcher, error) {
	if matchType == "" {
		matchType = models.MatchContains
	}
	m := matcher{matchType: matchType, text: normalizeText(pattern)}
	if matchType == models.MatchRegex {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return matcher{}, err
		}
		m.re = re
	}
	return m, nil
}

func (m matcher) match(text string) bool {
	if m.text == "" && m.re == nil {
		return false
	}
	switch m.matchType {
	case models.MatchExact:
		return normalizeText(text) == m.text
	case models.MatchRegex:
		return m.re.MatchString(text)
	default:
		return strings.Contains(normalizeText(text), m.text)
	}
}

// expandAccount fills in the {business} placeholder.
func expandAccount(account, business string) models.AccountPath {
	if business == "" {
		business = models.DefaultBusiness
	}
	return models.AccountPath(strings.ReplaceAll(account, businessPlaceholder, models.ToSegment(business)))
}

// accountType picks the declared type, then the root's type, then a keyword
// guess from the description.
func accountType(declared models.AccountType, account models.AccountPath, description string) models.AccountType {
	if declared != "" {
		return declared
	}
	if t, ok := models.TypeForRoot(account); ok {
		return t
	}
	t, _ := DetectAccountType(description)
	return t
}

func confidenceOr(value, fallback float64) float64 {
	if value > 0 && value <= 1 {
		return value
	}
	return fallback
}
