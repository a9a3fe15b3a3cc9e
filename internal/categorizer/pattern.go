package categorizer

import (
	"context"
	"strings"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

type compiledPattern struct {
	rule    models.PatternRule
	matcher matcher
}

// PatternStrategy maps item descriptions through the pattern table. Rules
// scoped to the receipt's business are tried before general rules; within a
// group the strongest match kind wins (exact, then regex, then contains).
type PatternStrategy struct {
	patterns []compiledPattern
	logger   logging.Logger
}

// NewPatternStrategy creates a PatternStrategy loaded from store.
func NewPatternStrategy(store MappingStoreInterface, logger logging.Logger) *PatternStrategy {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &PatternStrategy{logger: logger}
	if store == nil {
		return s
	}
	rules, err := store.LoadPatterns()
	if err != nil {
		logger.WithError(err).Warn("Failed to load patterns for PatternStrategy")
		return s
	}
	for _, rule := range rules {
		m, err := newMatcher(rule.MatchType, rule.Pattern)
		if err != nil {
			logger.WithError(err).Warn("Skipping invalid pattern",
				logging.F(logging.FieldDescription, rule.Pattern))
			continue
		}
		rule.MatchType = m.matchType
		s.patterns = append(s.patterns, compiledPattern{rule: rule, matcher: m})
	}
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *PatternStrategy) Name() string {
	return "Pattern"
}

// Map implements MappingStrategy.
func (s *PatternStrategy) Map(_ context.Context, req Request) (models.MappingResult, bool, error) {
	if strings.TrimSpace(req.Description) == "" {
		return models.MappingResult{}, false, nil
	}

	if req.Business != "" {
		if result, ok := s.bestMatch(req, func(r models.PatternRule) bool {
			return strings.EqualFold(r.Business, req.Business)
		}); ok {
			return result, true, nil
		}
	}
	result, ok := s.bestMatch(req, func(r models.PatternRule) bool { return r.Business == "" })
	return result, ok, nil
}

func (s *PatternStrategy) bestMatch(req Request, scope func(models.PatternRule) bool) (models.MappingResult, bool) {
	var best models.MappingResult
	found := false
	for _, p := range s.patterns {
		if !scope(p.rule) || !p.matcher.match(req.Description) {
			continue
		}
		account := expandAccount(p.rule.Account, req.Business)
		if !account.IsValid() {
			s.logger.Warn("Pattern produced an invalid account",
				logging.F(logging.FieldAccount, account.String()),
				logging.F(logging.FieldBusiness, req.Business))
			continue
		}
		confidence := confidenceOr(p.rule.Confidence, defaultPatternConfidence(p.rule.MatchType))
		if found && confidence <= best.Confidence {
			continue
		}
		best = models.MappingResult{
			Account:     account,
			AccountType: accountType(p.rule.AccountType, account, req.Description),
			Confidence:  confidence,
			Source:      models.SourcePattern,
		}
		found = true
	}
	return best, found
}

func defaultPatternConfidence(t models.MatchType) float64 {
	switch t {
	case models.MatchExact:
		return ConfidencePatternExact
	case models.MatchRegex:
		return ConfidencePatternRegex
	default:
		return ConfidencePatternContains
	}
}
