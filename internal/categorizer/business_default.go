package categorizer

import (
	"context"
	"strings"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

// BusinessDefaultStrategy falls back to the default account of the receipt's
// business (Personal when none is given).
type BusinessDefaultStrategy struct {
	defaults map[string]models.BusinessDefault
	logger   logging.Logger
}

// NewBusinessDefaultStrategy creates a BusinessDefaultStrategy loaded from store.
func NewBusinessDefaultStrategy(store MappingStoreInterface, logger logging.Logger) *BusinessDefaultStrategy {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &BusinessDefaultStrategy{defaults: map[string]models.BusinessDefault{}, logger: logger}
	if store == nil {
		return s
	}
	defaults, err := store.LoadBusinessDefaults()
	if err != nil {
		logger.WithError(err).Warn("Failed to load business defaults for BusinessDefaultStrategy")
		return s
	}
	for name, d := range defaults {
		s.defaults[strings.ToLower(name)] = d
	}
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *BusinessDefaultStrategy) Name() string {
	return "BusinessDefault"
}

// Map implements MappingStrategy.
func (s *BusinessDefaultStrategy) Map(_ context.Context, req Request) (models.MappingResult, bool, error) {
	business := strings.TrimSpace(req.Business)
	if business == "" {
		business = models.DefaultBusiness
	}
	d, ok := s.defaults[strings.ToLower(business)]
	if !ok {
		return models.MappingResult{}, false, nil
	}
	account := expandAccount(d.Account, business)
	if !account.IsValid() {
		return models.MappingResult{}, false, nil
	}
	return models.MappingResult{
		Account:     account,
		AccountType: accountType(d.AccountType, account, req.Description),
		Confidence:  ConfidenceBusinessDefault,
		Source:      models.SourceBusinessDefault,
	}, true, nil
}

// StaticFallbackStrategy always maps to a fixed account with zero confidence.
type StaticFallbackStrategy struct {
	Account models.AccountPath
}

// Name returns the name of this strategy for logging and debugging.
func (s StaticFallbackStrategy) Name() string {
	return "StaticFallback"
}

// Map implements MappingStrategy. It never fails.
func (s StaticFallbackStrategy) Map(_ context.Context, _ Request) (models.MappingResult, bool, error) {
	account := s.Account
	if !account.IsValid() {
		account = models.FallbackAccount
	}
	return models.MappingResult{
		Account:     account,
		AccountType: accountType("", account, ""),
		Confidence:  ConfidenceStaticFallback,
		Source:      models.SourceStaticFallback,
	}, true, nil
}
