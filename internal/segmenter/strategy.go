package segmenter

import (
	"context"
	"errors"
	"strings"

	"fjacquet/receipt-ledger/internal/llm"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/parsererror"
)

// Strategy is one way of segmenting receipt text. An error or a result
// without items hands over to the next strategy.
type Strategy interface {
	Segment(ctx context.Context, text string) (*Result, error)
	Name() string
}

// HeuristicStrategy runs the invoice segmenter (with its fallback).
type HeuristicStrategy struct{}

// Segment implements Strategy.
func (HeuristicStrategy) Segment(_ context.Context, text string) (*Result, error) {
	return SegmentInvoice(SplitLines(text)), nil
}

// Name implements Strategy.
func (HeuristicStrategy) Name() string { return "heuristic" }

const segmentSystemPrompt = `You isolate the purchased items and the summary lines of OCR'd receipts.
Return strict JSON only, with this shape:
{"block": "<the item lines and the subtotal/tax/total lines, copied verbatim, one per line>", "confidence": <0..1>, "rationale": "<one sentence>"}
Do not include headers, addresses, dates, invoice numbers or payment details in block.`

// llmSegmentation is the JSON the model is asked for.
type llmSegmentation struct {
	Block      *string  `json:"block"`
	Confidence *float64 `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// LLMStrategy asks a language model to cut the item and summary block out of
// the text and then runs the heuristics on that block only.
type LLMStrategy struct {
	completer llm.Completer
	logger    logging.Logger
}

// NewLLMStrategy creates an LLM-assisted strategy.
func NewLLMStrategy(completer llm.Completer, logger logging.Logger) *LLMStrategy {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LLMStrategy{completer: completer, logger: logger}
}

// Name implements Strategy.
func (s *LLMStrategy) Name() string { return "llm" }

// Segment implements Strategy.
func (s *LLMStrategy) Segment(ctx context.Context, text string) (*Result, error) {
	if s.completer == nil {
		return nil, errors.New("no completer configured")
	}

	response, err := s.completer.Complete(ctx, llm.Request{
		System:      segmentSystemPrompt,
		User:        "Receipt text:\n" + text,
		Temperature: 0,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, err
	}

	var parsed llmSegmentation
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		return nil, err
	}
	if parsed.Block == nil || strings.TrimSpace(*parsed.Block) == "" {
		return nil, errors.New("response has no block")
	}
	if parsed.Confidence == nil {
		return nil, errors.New("response has no confidence")
	}

	result := SegmentInvoice(SplitLines(*parsed.Block))
	if len(result.Items) == 0 {
		return nil, errors.New("no items in returned block")
	}

	s.logger.Debug("LLM segmentation accepted",
		logging.F(logging.FieldCount, len(result.Items)),
		logging.F(logging.FieldConfidence, *parsed.Confidence),
		logging.F(logging.FieldReason, parsed.Rationale))

	result.Source = SourceLLM
	if c := *parsed.Confidence; c > 0 && c <= 1 && c < result.Confidence {
		result.Confidence = c
	}
	return result, nil
}

// Segmenter runs strategies in order and returns the first result with
// items. It never fails: degraded strategies are logged and the last
// heuristic result (possibly empty, with zero confidence) is returned.
type Segmenter struct {
	strategies []Strategy
	logger     logging.Logger
	onDegrade  func(strategy string)
}

// New creates a Segmenter. The heuristic strategy is always appended as the
// last resort.
func New(logger logging.Logger, strategies ...Strategy) *Segmenter {
	if logger == nil {
		logger = logging.Nop()
	}
	chain := make([]Strategy, 0, len(strategies)+1)
	for _, st := range strategies {
		if st != nil {
			chain = append(chain, st)
		}
	}
	chain = append(chain, HeuristicStrategy{})
	return &Segmenter{strategies: chain, logger: logger}
}

// OnDegrade registers a callback invoked with the strategy name whenever a
// strategy fails and the chain moves on.
func (s *Segmenter) OnDegrade(fn func(strategy string)) {
	s.onDegrade = fn
}

// Strategies returns the names of the configured strategies in order.
func (s *Segmenter) Strategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// Segment segments receipt text.
func (s *Segmenter) Segment(ctx context.Context, text string) *Result {
	var last *Result
	for _, st := range s.strategies {
		result, err := st.Segment(ctx, text)
		if err != nil {
			degraded := &parsererror.SegmentationError{Strategy: st.Name(), Err: err}
			s.logger.WithError(degraded).Warn("Segmentation strategy failed, falling back",
				logging.F(logging.FieldStrategy, st.Name()))
			if s.onDegrade != nil {
				s.onDegrade(st.Name())
			}
			continue
		}
		last = result
		if len(result.Items) > 0 {
			s.logger.Debug("Receipt segmented",
				logging.F(logging.FieldStrategy, st.Name()),
				logging.F(logging.FieldCount, len(result.Items)),
				logging.F(logging.FieldConfidence, result.Confidence))
			return result
		}
	}

	if last == nil {
		last = &Result{RawLines: SplitLines(text), Source: SourceFallback}
	}
	last.Confidence = 0
	s.logger.Info("No item lines found in receipt text",
		logging.F(logging.FieldCount, len(last.RawLines)))
	return last
}

// String describes the chain, e.g. "llm -> heuristic".
func (s *Segmenter) String() string {
	return strings.Join(s.Strategies(), " -> ")
}
