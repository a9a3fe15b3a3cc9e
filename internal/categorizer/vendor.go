package categorizer

import (
	"context"
	"regexp"
	"strings"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

type compiledVendor struct {
	rule models.VendorRule
	name string
	re   *regexp.Regexp
}

// VendorStrategy maps the vendor of a receipt through the vendor table.
// Names compare lowercase with whitespace removed.
type VendorStrategy struct {
	vendors []compiledVendor
	logger  logging.Logger
}

// NewVendorStrategy creates a VendorStrategy loaded from store.
func NewVendorStrategy(store MappingStoreInterface, logger logging.Logger) *VendorStrategy {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &VendorStrategy{logger: logger}
	if store == nil {
		return s
	}
	rules, err := store.LoadVendors()
	if err != nil {
		logger.WithError(err).Warn("Failed to load vendors for VendorStrategy")
		return s
	}
	for _, rule := range rules {
		if !models.AccountPath(rule.Account).IsValid() {
			logger.Warn("Skipping vendor with invalid account",
				logging.F(logging.FieldVendor, rule.Name),
				logging.F(logging.FieldAccount, rule.Account))
			continue
		}
		cv := compiledVendor{rule: rule, name: normalizeVendor(rule.Name)}
		if rule.Pattern != "" {
			re, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				logger.WithError(err).Warn("Skipping vendor with invalid pattern",
					logging.F(logging.FieldVendor, rule.Name))
				continue
			}
			cv.re = re
		}
		s.vendors = append(s.vendors, cv)
	}
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *VendorStrategy) Name() string {
	return "Vendor"
}

// Map implements MappingStrategy. An exact name beats a pattern, which beats
// a name contained in the vendor string.
func (s *VendorStrategy) Map(_ context.Context, req Request) (models.MappingResult, bool, error) {
	vendor := normalizeVendor(req.Vendor)
	if vendor == "" {
		return models.MappingResult{}, false, nil
	}

	var best *compiledVendor
	bestConfidence := 0.0
	for i := range s.vendors {
		v := &s.vendors[i]
		var confidence float64
		switch {
		case v.name != "" && v.name == vendor:
			confidence = confidenceOr(v.rule.Confidence, ConfidenceVendorExact)
		case v.re != nil && v.re.MatchString(strings.TrimSpace(req.Vendor)):
			confidence = confidenceOr(v.rule.Confidence, ConfidenceVendorPattern)
		case v.name != "" && strings.Contains(vendor, v.name):
			confidence = ConfidenceVendorContains
			if v.rule.Confidence > 0 && v.rule.Confidence < confidence {
				confidence = v.rule.Confidence
			}
		default:
			continue
		}
		if best == nil || confidence > bestConfidence {
			best, bestConfidence = v, confidence
		}
	}
	if best == nil {
		return models.MappingResult{}, false, nil
	}

	account := models.AccountPath(best.rule.Account)
	return models.MappingResult{
		Account:     account,
		AccountType: accountType(best.rule.AccountType, account, req.Description),
		Confidence:  bestConfidence,
		Source:      models.SourceVendor,
	}, true, nil
}
