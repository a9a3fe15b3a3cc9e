package segmenter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/llm"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/parsererror"
)

const noisyReceipt = `BIG MART BANGKOK
TAX ID 0105551234567
DATE 11.02.2030
Coffee 3.00
Cookies 2.50
SUBTOTAL 5.50
VAT 0.39
TOTAL 5.89
CASH 10.00`

func fixedCompleter(response string, err error) llm.Completer {
	return llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
		return response, err
	})
}

func TestSegmenter_HeuristicOnly(t *testing.T) {
	s := New(nil)
	assert.Equal(t, []string{"heuristic"}, s.Strategies())

	result := s.Segment(context.Background(), noisyReceipt)
	require.Len(t, result.Items, 2)
	assert.Equal(t, SourceInvoice, result.Source)
	assertNull(t, "5.89", result.Total)
	assert.Equal(t, ConfidenceReconciled, result.Confidence)
}

func TestSegmenter_LLMAccepted(t *testing.T) {
	var captured llm.Request
	completer := llm.CompleterFunc(func(_ context.Context, req llm.Request) (string, error) {
		captured = req
		return "```json\n{\"block\": \"Coffee 3.00\\nSUBTOTAL 3.00\\nTOTAL 3.00\", \"confidence\": 0.8, \"rationale\": \"items above subtotal\"}\n```", nil
	})

	s := New(logging.NewMockLogger(), NewLLMStrategy(completer, nil))
	assert.Equal(t, "llm -> heuristic", s.String())

	result := s.Segment(context.Background(), noisyReceipt)

	assert.True(t, strings.Contains(captured.User, "BIG MART"))
	assert.Equal(t, SourceLLM, result.Source)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Coffee", result.Items[0].Description)
	assert.Equal(t, 0.8, result.Confidence)
}

func TestSegmenter_LLMDegradesToHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		completer llm.Completer
	}{
		{"provider error", fixedCompleter("", errors.New("quota exceeded"))},
		{"no json", fixedCompleter("I cannot read this receipt.", nil)},
		{"malformed json", fixedCompleter(`{"block": "Coffee 3.00", "confidence": }`, nil)},
		{"missing confidence", fixedCompleter(`{"block": "Coffee 3.00\nTOTAL 3.00"}`, nil)},
		{"missing block", fixedCompleter(`{"confidence": 0.9}`, nil)},
		{"block without items", fixedCompleter(`{"block": "THANK YOU", "confidence": 0.9}`, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewMockLogger()
			var degraded []string

			s := New(logger, NewLLMStrategy(tt.completer, logger))
			s.OnDegrade(func(name string) { degraded = append(degraded, name) })

			result := s.Segment(context.Background(), noisyReceipt)

			require.Len(t, result.Items, 2)
			assert.Equal(t, SourceInvoice, result.Source)
			assert.Equal(t, []string{"llm"}, degraded)

			warnings := logger.GetEntriesByLevel("WARN")
			require.Len(t, warnings, 1)
			var segErr *parsererror.SegmentationError
			assert.True(t, errors.As(warnings[0].Error, &segErr))
			assert.Equal(t, "llm", segErr.Strategy)
		})
	}
}

func TestSegmenter_NothingFound(t *testing.T) {
	logger := logging.NewMockLogger()
	s := New(logger)

	result := s.Segment(context.Background(), "WELCOME\nTHANK YOU\n")

	assert.Empty(t, result.Items)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, []string{"WELCOME", "THANK YOU"}, result.RawLines)
	assert.True(t, logger.HasEntry("INFO", "No item lines found in receipt text"))
}

func TestLLMStrategy_WithoutCompleter(t *testing.T) {
	_, err := NewLLMStrategy(nil, nil).Segment(context.Background(), "Coffee 3.00")
	assert.Error(t, err)
}
