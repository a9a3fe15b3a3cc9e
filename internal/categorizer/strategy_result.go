package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/receipt-ledger/internal/models"
)

// StrategyResult represents the result of a mapping strategy attempt
type StrategyResult struct {
	Strategy string
	Result   models.MappingResult
	Found    bool
	Error    error
}

// StrategyResults aggregates results from multiple strategies, in the order
// they were tried
type StrategyResults struct {
	Results []StrategyResult
}

// GetBestResult returns the first successful result whose confidence reaches
// threshold, or else the highest confidence successful result
func (sr StrategyResults) GetBestResult(threshold float64) (models.MappingResult, bool) {
	for i := range sr.Results {
		r := sr.Results[i]
		if r.Found && r.Error == nil && r.Result.Confidence >= threshold {
			return r.Result, true
		}
	}

	var best *StrategyResult
	for i := range sr.Results {
		r := &sr.Results[i]
		if !r.Found || r.Error != nil {
			continue
		}
		if best == nil || r.Result.Confidence > best.Result.Confidence {
			best = r
		}
	}
	if best != nil {
		return best.Result, true
	}
	return models.MappingResult{}, false
}

// GetErrors returns all errors encountered during strategy execution
func (sr StrategyResults) GetErrors() []error {
	var errs []error
	for _, result := range sr.Results {
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("%s strategy: %w", result.Strategy, result.Error))
		}
	}
	return errs
}

// Summary returns a human-readable summary of all strategy attempts
func (sr StrategyResults) Summary() string {
	var parts []string
	for _, result := range sr.Results {
		status := "failed"
		if result.Found {
			status = fmt.Sprintf("success(%.2f)", result.Result.Confidence)
		} else if result.Error == nil {
			status = "no_match"
		}
		parts = append(parts, fmt.Sprintf("%s:%s", result.Strategy, status))
	}
	return strings.Join(parts, ", ")
}
