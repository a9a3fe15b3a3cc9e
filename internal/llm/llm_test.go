package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		hasError bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"markdown fence", "```json\n{\"block\": \"x\"}\n```", `{"block": "x"}`, false},
		{"prose around", `Sure! {"enhanced_category": "Food:Fruit:Apples"} hope that helps`, `{"enhanced_category": "Food:Fruit:Apples"}`, false},
		{"no object", "I cannot help with that", "", true},
		{"reversed braces", "} nope {", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Block      string  `json:"block"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, DecodeJSON("here: {\"block\":\"A 1.00\",\"confidence\":0.9}", &out))
	assert.Equal(t, "A 1.00", out.Block)
	assert.Equal(t, 0.9, out.Confidence)

	assert.Error(t, DecodeJSON(`{"block": }`, &out))
}

func TestRateLimited_PassesThroughAndTimesOut(t *testing.T) {
	var calls int32
	slow := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		if req.User == "slow" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "echo:" + req.User, nil
	})

	limited := NewRateLimited(slow, 0, 20*time.Millisecond)

	got, err := limited.Complete(context.Background(), Request{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", got)

	_, err = limited.Complete(context.Background(), Request{User: "slow"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimited_CancelledWhileWaiting(t *testing.T) {
	limited := NewRateLimited(CompleterFunc(func(context.Context, Request) (string, error) {
		return "ok", nil
	}), 1, 0)

	_, err := limited.Complete(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Complete(ctx, Request{})
	assert.Error(t, err)
}

func TestNewProvider_Errors(t *testing.T) {
	_, _, err := NewProvider(context.Background(), Options{Provider: "openai", APIKey: "k"})
	assert.Error(t, err)

	_, _, err = NewProvider(context.Background(), Options{Provider: "anthropic"})
	assert.Error(t, err)

	completer, closer, err := NewProvider(context.Background(), Options{Provider: "anthropic", APIKey: "test-key", RequestsPerMinute: 10})
	require.NoError(t, err)
	assert.NotNil(t, completer)
	assert.NoError(t, closer.Close())
}
