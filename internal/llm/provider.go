package llm

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Options selects and tunes a provider.
type Options struct {
	Provider          string
	APIKey            string
	Model             string
	RequestsPerMinute int
	Timeout           time.Duration
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewProvider builds a rate-limited Completer for "gemini" or "anthropic".
// The returned Closer releases provider resources.
func NewProvider(ctx context.Context, opts Options) (Completer, io.Closer, error) {
	switch opts.Provider {
	case "", "gemini":
		model := opts.Model
		if model == "" || isAnthropicModel(model) {
			model = DefaultGeminiModel
		}
		g, err := NewGeminiCompleter(ctx, opts.APIKey, model)
		if err != nil {
			return nil, nil, err
		}
		return NewRateLimited(g, opts.RequestsPerMinute, opts.Timeout), g, nil
	case "anthropic":
		model := opts.Model
		if model == "" || !isAnthropicModel(model) {
			model = DefaultAnthropicModel
		}
		a, err := NewAnthropicCompleter(opts.APIKey, model)
		if err != nil {
			return nil, nil, err
		}
		return NewRateLimited(a, opts.RequestsPerMinute, opts.Timeout), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI provider: %s", opts.Provider)
	}
}

func isAnthropicModel(model string) bool {
	return len(model) >= 6 && model[:6] == "claude"
}
