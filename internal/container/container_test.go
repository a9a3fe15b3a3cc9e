package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/config"
	"fjacquet/receipt-ledger/internal/entry"
	"fjacquet/receipt-ledger/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Ledger.DefaultCurrency = "THB"
	cfg.Ledger.DefaultPayee = "Personal"
	cfg.Ledger.PaymentAccount = "Assets:Cash"
	cfg.Ledger.IncludeTaxLine = true
	cfg.Ledger.BalanceThreshold = 0.02
	cfg.AI.Provider = "gemini"
	cfg.AI.RequestsPerMinute = 10
	cfg.AI.TimeoutSeconds = 30
	cfg.AI.EnhanceAccounts = true
	cfg.AI.SegmentReceipts = true
	cfg.AI.FallbackAccount = "Expenses:Uncategorized"
	cfg.Categorization.ConfidenceThreshold = 0.5
	cfg.Mappings.Directory = t.TempDir()
	cfg.Mappings.PatternsFile = "patterns.yaml"
	cfg.Mappings.VendorsFile = "vendors.yaml"
	cfg.Mappings.UserOverridesFile = "user_overrides.yaml"
	cfg.Mappings.BusinessDefaultsFile = "business_defaults.yaml"
	cfg.Store.Driver = StoreNone
	return cfg
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*config.Config)
		expectError bool
		errorMsg    string
		check       func(t *testing.T, c *Container)
	}{
		{
			name: "valid config without AI",
			check: func(t *testing.T, c *Container) {
				assert.Nil(t, c.GetCompleter())
				assert.Nil(t, c.GetJournal())
				assert.Equal(t, "heuristic", c.GetSegmenter().String())
				assert.Equal(t, []string{"UserOverride", "Vendor", "Pattern", "BusinessDefault", "StaticFallback"},
					c.GetMapper().Strategies())
			},
		},
		{
			name: "AI enabled with anthropic",
			modify: func(cfg *config.Config) {
				cfg.AI.Enabled = true
				cfg.AI.Provider = "anthropic"
				cfg.AI.APIKey = "test-key"
			},
			check: func(t *testing.T, c *Container) {
				assert.NotNil(t, c.GetCompleter())
				assert.Equal(t, "llm -> heuristic", c.GetSegmenter().String())
			},
		},
		{
			name: "AI enabled without segmentation",
			modify: func(cfg *config.Config) {
				cfg.AI.Enabled = true
				cfg.AI.Provider = "anthropic"
				cfg.AI.APIKey = "test-key"
				cfg.AI.SegmentReceipts = false
			},
			check: func(t *testing.T, c *Container) {
				assert.Equal(t, "heuristic", c.GetSegmenter().String())
			},
		},
		{
			name: "AI enabled without key stays disabled",
			modify: func(cfg *config.Config) {
				cfg.AI.Enabled = true
			},
			check: func(t *testing.T, c *Container) {
				assert.Nil(t, c.GetCompleter())
			},
		},
		{
			name: "unknown AI provider",
			modify: func(cfg *config.Config) {
				cfg.AI.Enabled = true
				cfg.AI.Provider = "openai"
				cfg.AI.APIKey = "test-key"
			},
			expectError: true,
			errorMsg:    "unknown AI provider",
		},
		{
			name: "bolt journal",
			modify: func(cfg *config.Config) {
				cfg.Store.Driver = StoreBolt
				cfg.Store.Path = filepath.Join(t.TempDir(), "ledger.db")
			},
			check: func(t *testing.T, c *Container) {
				assert.NotNil(t, c.GetJournal())
			},
		},
		{
			name: "unknown store driver",
			modify: func(cfg *config.Config) {
				cfg.Store.Driver = "mysql"
			},
			expectError: true,
			errorMsg:    "unknown store driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.modify != nil {
				tt.modify(cfg)
			}

			c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, c.Close()) }()

			assert.Same(t, cfg, c.GetConfig())
			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetStore())
			assert.NotNil(t, c.GetService())
			tt.check(t, c)
		})
	}
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
}

func TestContainer_MappingPaths(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewContainerWithLogger(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, filepath.Join(cfg.Mappings.Directory, "patterns.yaml"), c.GetStore().PatternsFile)
	assert.Equal(t, filepath.Join(cfg.Mappings.Directory, "vendors.yaml"), c.GetStore().VendorsFile)
}

func TestContainer_ServiceEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = StoreBolt
	cfg.Store.Path = filepath.Join(t.TempDir(), "ledger.db")

	c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	result, err := c.GetService().FromCommand(context.Background(), "new coffee starbucks 150", entry.Options{})
	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.Equal(t, "Expenses:Uncategorized", string(result.Entry.Postings[0].Account))

	rows, err := c.GetJournal().ListRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
