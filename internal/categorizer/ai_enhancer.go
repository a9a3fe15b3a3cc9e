package categorizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"fjacquet/receipt-ledger/internal/llm"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
)

// AIConfidencePenalty is subtracted from the pre-AI confidence of an
// enhanced mapping.
const AIConfidencePenalty = 0.05

const enhanceSystemPrompt = `You refine ledger account paths for receipt line items.
Given an item description and its current account path, append exactly ONE more level that names the item more specifically.
The new level is a single PascalCase word or compound without spaces, e.g. "Apples" or "SoftDrinks".
Respond with strict JSON only: {"enhanced_category": "<current path>:<NewLevel>"}`

type enhanceResponse struct {
	EnhancedCategory *string `json:"enhanced_category"`
}

// AIEnhancer asks a language model to refine a resolved account by one level
// (Expenses:Personal:Food:Fruit -> Expenses:Personal:Food:Fruit:Apples).
type AIEnhancer struct {
	completer llm.Completer
	logger    logging.Logger
	onDegrade func()
}

// NewAIEnhancer creates an AIEnhancer.
func NewAIEnhancer(completer llm.Completer, logger logging.Logger) *AIEnhancer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AIEnhancer{completer: completer, logger: logger}
}

// OnDegrade registers a callback invoked whenever enhancement fails.
func (e *AIEnhancer) OnDegrade(fn func()) {
	e.onDegrade = fn
}

// Applies reports whether results from source are eligible for enhancement.
func (e *AIEnhancer) Applies(source models.MappingSource) bool {
	switch source {
	case models.SourcePattern, models.SourceVendor, models.SourceBusinessDefault:
		return true
	}
	return false
}

// Enhance returns the refined mapping, or base unchanged when the model fails
// or answers with anything but one extra level. It never returns an error.
func (e *AIEnhancer) Enhance(ctx context.Context, description string, base models.MappingResult) models.MappingResult {
	account, err := e.enhance(ctx, description, base.Account)
	if err != nil {
		degraded := &parsererror.MappingError{Description: description, Strategy: "AIEnhancer", Err: err}
		e.logger.WithError(degraded).Warn("AI account enhancement failed, keeping mapped account",
			logging.F(logging.FieldAccount, base.Account.String()))
		if e.onDegrade != nil {
			e.onDegrade()
		}
		return base
	}

	e.logger.Debug("Account enhanced by AI",
		logging.F(logging.FieldDescription, description),
		logging.F(logging.FieldAccount, account.String()))

	return models.MappingResult{
		Account:     account,
		AccountType: base.AccountType,
		Confidence:  math.Max(0, math.Round((base.Confidence-AIConfidencePenalty)*100)/100),
		Source:      models.SourceAI,
	}
}

func (e *AIEnhancer) enhance(ctx context.Context, description string, current models.AccountPath) (models.AccountPath, error) {
	if e.completer == nil {
		return "", errors.New("no completer configured")
	}

	response, err := e.completer.Complete(ctx, llm.Request{
		System:      enhanceSystemPrompt,
		User:        fmt.Sprintf("Item: %s\nCurrent account: %s", description, current),
		Temperature: 0.2,
		MaxTokens:   128,
	})
	if err != nil {
		return "", err
	}

	var parsed enhanceResponse
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		return "", err
	}
	if parsed.EnhancedCategory == nil || strings.TrimSpace(*parsed.EnhancedCategory) == "" {
		return "", errors.New("response has no enhanced_category")
	}
	return extendOneLevel(current, strings.TrimSpace(*parsed.EnhancedCategory))
}

// extendOneLevel accepts either the full path with exactly one new level or
// just the new level itself.
func extendOneLevel(current models.AccountPath, enhanced string) (models.AccountPath, error) {
	segment := enhanced
	if strings.Contains(enhanced, ":") {
		prefix := current.String() + ":"
		if !strings.HasPrefix(enhanced, prefix) {
			return "", fmt.Errorf("enhanced category %q does not extend %q", enhanced, current)
		}
		segment = strings.TrimPrefix(enhanced, prefix)
		if strings.Contains(segment, ":") {
			return "", fmt.Errorf("enhanced category %q adds more than one level", enhanced)
		}
	}
	segment = models.ToSegment(segment)
	if segment == "" {
		return "", fmt.Errorf("enhanced category %q has no usable segment", enhanced)
	}
	account := current.Child(segment)
	if !account.IsValid() {
		return "", fmt.Errorf("enhanced account %q is invalid", account)
	}
	return account, nil
}
