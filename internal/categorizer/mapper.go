// Package categorizer maps receipt line items to hierarchical ledger accounts.
// Resolution runs an ordered chain of strategies:
// 1. User overrides saved from corrections
// 2. Vendor table
// 3. Pattern table, business-scoped rules first
// 4. Business default account
// 5. Static fallback (Expenses:Uncategorized, confidence 0)
// An optional AI step refines pattern, vendor and business-default results by
// one more hierarchy level.
package categorizer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/metrics"
	"fjacquet/receipt-ledger/internal/models"
)

// Config tunes the Mapper.
type Config struct {
	// ConfidenceThreshold is the minimum confidence for a stage to win outright.
	ConfidenceThreshold float64
	// FallbackAccount is used when no stage matches.
	FallbackAccount string
	// AutoLearn saves AI-enhanced mappings as user overrides.
	AutoLearn bool
}

// Mapper resolves line items to accounts. It is safe for concurrent use.
type Mapper struct {
	strategies []MappingStrategy
	overrides  *UserOverrideStrategy
	enhancer   *AIEnhancer
	config     Config
	logger     logging.Logger
}

// NewMapper creates a Mapper with the default strategy chain loaded from
// store. enhancer may be nil.
func NewMapper(store MappingStoreInterface, enhancer *AIEnhancer, config Config, logger logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.Nop()
	}
	overrides := NewUserOverrideStrategy(store, logger)
	strategies := []MappingStrategy{
		overrides,
		NewVendorStrategy(store, logger),
		NewPatternStrategy(store, logger),
		NewBusinessDefaultStrategy(store, logger),
	}
	return NewMapperWithStrategies(strategies, overrides, enhancer, config, logger)
}

// NewMapperWithStrategies creates a Mapper over an explicit chain. The static
// fallback is always appended. overrides may be nil, which disables learning.
func NewMapperWithStrategies(strategies []MappingStrategy, overrides *UserOverrideStrategy, enhancer *AIEnhancer, config Config, logger logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.Nop()
	}
	if config.FallbackAccount == "" {
		config.FallbackAccount = models.FallbackAccount
	}
	chain := make([]MappingStrategy, 0, len(strategies)+1)
	for _, s := range strategies {
		if s != nil {
			chain = append(chain, s)
		}
	}
	chain = append(chain, StaticFallbackStrategy{Account: models.AccountPath(config.FallbackAccount)})

	return &Mapper{
		strategies: chain,
		overrides:  overrides,
		enhancer:   enhancer,
		config:     config,
		logger:     logger,
	}
}

// Strategies returns the names of the chain in resolution order.
func (m *Mapper) Strategies() []string {
	names := make([]string, len(m.strategies))
	for i, s := range m.strategies {
		names[i] = s.Name()
	}
	return names
}

// MapAccount resolves description to an account. It never fails: stage errors
// are logged and the next stage is tried, ending at the static fallback.
func (m *Mapper) MapAccount(ctx context.Context, description string, opts Options) models.MappingResult {
	result, _ := m.Explain(ctx, description, opts)
	return result
}

// Explain resolves like MapAccount and also returns every stage attempt.
func (m *Mapper) Explain(ctx context.Context, description string, opts Options) (models.MappingResult, StrategyResults) {
	req := Request{Description: strings.TrimSpace(description), Options: opts}
	results := m.resolve(ctx, req)

	result, ok := results.GetBestResult(m.config.ConfidenceThreshold)
	if !ok {
		// The static fallback always matches; this only guards a cancelled context.
		result, _, _ = StaticFallbackStrategy{Account: models.AccountPath(m.config.FallbackAccount)}.Map(ctx, req)
	}

	if m.enhancer != nil && m.enhancer.Applies(result.Source) {
		enhanced := m.enhancer.Enhance(ctx, req.Description, result)
		if enhanced.Source == models.SourceAI {
			results.Results = append(results.Results, StrategyResult{Strategy: "AIEnhancer", Result: enhanced, Found: true})
			if m.config.AutoLearn {
				if err := m.LearnOverride(opts.User, req.Description, enhanced.Account); err != nil {
					m.logger.WithError(err).Warn("Failed to auto-learn AI mapping",
						logging.F(logging.FieldDescription, req.Description))
				}
			}
		}
		result = enhanced
	}

	metrics.MappingResultsTotal.WithLabelValues(string(result.Source)).Inc()
	m.logger.Debug("Line item mapped",
		logging.F(logging.FieldDescription, req.Description),
		logging.F(logging.FieldAccount, result.Account.String()),
		logging.F(logging.FieldSource, string(result.Source)),
		logging.F(logging.FieldConfidence, result.Confidence))
	return result, results
}

func (m *Mapper) resolve(ctx context.Context, req Request) StrategyResults {
	var results StrategyResults
	for _, s := range m.strategies {
		if err := ctx.Err(); err != nil {
			m.logger.WithError(err).Debug("Mapping interrupted, using best result so far")
			break
		}
		result, found, err := s.Map(ctx, req)
		results.Results = append(results.Results, StrategyResult{Strategy: s.Name(), Result: result, Found: found, Error: err})
		if err != nil {
			m.logger.WithError(err).Warn("Mapping strategy failed",
				logging.F(logging.FieldStrategy, s.Name()),
				logging.F(logging.FieldDescription, req.Description))
			continue
		}
		if found && result.Confidence >= m.config.ConfidenceThreshold {
			break
		}
	}
	return results
}

// LearnOverride saves a user correction; it beats every table afterwards.
func (m *Mapper) LearnOverride(user, description string, account models.AccountPath) error {
	if m.overrides == nil {
		return fmt.Errorf("learning is not enabled for this mapper")
	}
	if err := m.overrides.Learn(user, description, account); err != nil {
		return err
	}
	m.logger.Info("Learned account override",
		logging.F(logging.FieldDescription, description),
		logging.F(logging.FieldAccount, account.String()))
	return nil
}
