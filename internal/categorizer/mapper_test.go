package categorizer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/llm"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
	"fjacquet/receipt-ledger/internal/store"
)

func testStore() *store.MockMappingStore {
	return &store.MockMappingStore{
		Patterns: []models.PatternRule{
			{Pattern: "coffee", MatchType: models.MatchContains, Account: "Expenses:{business}:Food:Coffee"},
			{Pattern: "apple", MatchType: models.MatchExact, Account: "Expenses:Personal:Food:Fruit"},
			{Pattern: `^(?:milk|yogurt)\b`, MatchType: models.MatchRegex, Account: "Expenses:Personal:Food:Dairy"},
			{Pattern: "paper", MatchType: models.MatchContains, Account: "Expenses:MyBrick:Office:Supplies", Business: "MyBrick"},
			{Pattern: "paper", MatchType: models.MatchContains, Account: "Expenses:Personal:Household:Paper"},
			{Pattern: "tax", MatchType: models.MatchExact, Account: "Expenses:{business}:Tax", Confidence: 0.95},
		},
		Vendors: []models.VendorRule{
			{Name: "netflix", Account: "Expenses:Personal:Subscription:Entertainment"},
			{Name: "7-eleven", Pattern: `^7[\s-]?(?:eleven|11)`, Account: "Expenses:Personal:Food:Convenience"},
		},
		Overrides: []models.UserOverride{
			{Description: "grab", MatchType: models.MatchContains, Account: "Expenses:Personal:Transport:Taxi"},
			{User: "alice", Description: "coffee beans", Account: "Expenses:Personal:Food:Groceries"},
		},
		BusinessDefaults: map[string]models.BusinessDefault{
			"MyBrick":  {Account: "Expenses:MyBrick:General"},
			"Personal": {Account: "Expenses:Personal:Misc"},
		},
	}
}

func newTestMapper(t *testing.T, enhancer *AIEnhancer) *Mapper {
	t.Helper()
	return NewMapper(testStore(), enhancer, Config{ConfidenceThreshold: 0.5}, logging.NewMockLogger())
}

func TestMapper_Resolution(t *testing.T) {
	tests := []struct {
		name        string
		description string
		opts        Options
		account     models.AccountPath
		source      models.MappingSource
		confidence  float64
	}{
		{"user override beats pattern", "Grab ride home", Options{}, "Expenses:Personal:Transport:Taxi", models.SourceUser, 1.0},
		{"user-scoped override", "Coffee Beans", Options{User: "alice"}, "Expenses:Personal:Food:Groceries", models.SourceUser, 1.0},
		{"override for other user ignored", "coffee beans", Options{User: "bob"}, "Expenses:Personal:Food:Coffee", models.SourcePattern, 0.7},
		{"vendor exact, whitespace-insensitive", "Monthly plan", Options{Vendor: "Net Flix"}, "Expenses:Personal:Subscription:Entertainment", models.SourceVendor, 0.9},
		{"vendor pattern", "onigiri", Options{Vendor: "7 Eleven Sukhumvit"}, "Expenses:Personal:Food:Convenience", models.SourceVendor, 0.85},
		{"pattern with business placeholder", "Iced coffee", Options{Business: "my brick"}, "Expenses:MyBrick:Food:Coffee", models.SourcePattern, 0.7},
		{"pattern exact", "APPLE", Options{}, "Expenses:Personal:Food:Fruit", models.SourcePattern, 0.85},
		{"pattern regex", "milk 2L", Options{}, "Expenses:Personal:Food:Dairy", models.SourcePattern, 0.8},
		{"business-scoped pattern first", "A4 paper", Options{Business: "MyBrick"}, "Expenses:MyBrick:Office:Supplies", models.SourcePattern, 0.7},
		{"general pattern without business", "toilet paper", Options{}, "Expenses:Personal:Household:Paper", models.SourcePattern, 0.7},
		{"business default", "widget", Options{Business: "MyBrick"}, "Expenses:MyBrick:General", models.SourceBusinessDefault, 0.5},
		{"personal default", "widget", Options{}, "Expenses:Personal:Misc", models.SourceBusinessDefault, 0.5},
		{"tax line", "tax", Options{Business: "MyBrick"}, "Expenses:MyBrick:Tax", models.SourcePattern, 0.95},
	}

	m := newTestMapper(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.MapAccount(context.Background(), tt.description, tt.opts)
			assert.Equal(t, tt.account, result.Account)
			assert.Equal(t, tt.source, result.Source)
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
			assert.Equal(t, models.AccountTypeExpense, result.AccountType)
		})
	}
}

func TestMapper_StaticFallback(t *testing.T) {
	m := NewMapper(&store.MockMappingStore{}, nil, Config{ConfidenceThreshold: 0.5}, nil)

	result := m.MapAccount(context.Background(), "mystery item", Options{Business: "Unknown"})
	assert.Equal(t, models.AccountPath("Expenses:Uncategorized"), result.Account)
	assert.Equal(t, models.SourceStaticFallback, result.Source)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestMapper_BelowThresholdStillBeatsFallback(t *testing.T) {
	m := NewMapper(testStore(), nil, Config{ConfidenceThreshold: 0.75}, nil)

	result, attempts := m.Explain(context.Background(), "Iced coffee", Options{})
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:Coffee"), result.Account)
	assert.Equal(t, models.SourcePattern, result.Source)
	assert.Len(t, attempts.Results, 5)
	assert.Contains(t, attempts.Summary(), "Pattern:success(0.70)")
	assert.Contains(t, attempts.Summary(), "Vendor:no_match")
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "Failing" }

func (failingStrategy) Map(context.Context, Request) (models.MappingResult, bool, error) {
	return models.MappingResult{}, false, errors.New("table unavailable")
}

func TestMapper_StrategyErrorFallsThrough(t *testing.T) {
	logger := logging.NewMockLogger()
	m := NewMapperWithStrategies([]MappingStrategy{failingStrategy{}}, nil, nil, Config{ConfidenceThreshold: 0.5}, logger)

	result, attempts := m.Explain(context.Background(), "anything", Options{})
	assert.Equal(t, models.SourceStaticFallback, result.Source)
	require.Len(t, attempts.GetErrors(), 1)
	assert.Contains(t, attempts.GetErrors()[0].Error(), "Failing strategy")
	assert.True(t, logger.HasEntry("WARN", "Mapping strategy failed"))
	assert.Equal(t, []string{"Failing", "StaticFallback"}, m.Strategies())
}

func TestMapper_LoadFailureIsSoft(t *testing.T) {
	logger := logging.NewMockLogger()
	m := NewMapper(&store.MockMappingStore{LoadError: errors.New("disk gone")}, nil, Config{}, logger)

	result := m.MapAccount(context.Background(), "coffee", Options{})
	assert.Equal(t, models.SourceStaticFallback, result.Source)
	assert.NotEmpty(t, logger.GetEntriesByLevel("WARN"))
}

func TestMapper_AIEnhancement(t *testing.T) {
	completer := llm.CompleterFunc(func(_ context.Context, req llm.Request) (string, error) {
		assert.Contains(t, req.User, "Current account: Expenses:Personal:Food:Fruit")
		return `Sure! {"enhanced_category": "Expenses:Personal:Food:Fruit:Apples"}`, nil
	})
	m := newTestMapper(t, NewAIEnhancer(completer, nil))

	result := m.MapAccount(context.Background(), "apple", Options{})
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:Fruit:Apples"), result.Account)
	assert.Equal(t, models.SourceAI, result.Source)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestMapper_AIEnhancementSkipsUserAndFallback(t *testing.T) {
	calls := 0
	completer := llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
		calls++
		return `{"enhanced_category": "Taxi:Night"}`, nil
	})
	m := newTestMapper(t, NewAIEnhancer(completer, nil))

	assert.Equal(t, models.SourceUser, m.MapAccount(context.Background(), "grab", Options{}).Source)
	m2 := NewMapper(&store.MockMappingStore{}, NewAIEnhancer(completer, nil), Config{}, nil)
	assert.Equal(t, models.SourceStaticFallback, m2.MapAccount(context.Background(), "x", Options{}).Source)
	assert.Equal(t, 0, calls)
}

func TestAIEnhancer_Degradation(t *testing.T) {
	base := models.MappingResult{
		Account:     "Expenses:Personal:Food:Fruit",
		AccountType: models.AccountTypeExpense,
		Confidence:  0.85,
		Source:      models.SourcePattern,
	}

	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"provider error", "", errors.New("timeout")},
		{"not json", "Apples, probably.", nil},
		{"malformed json", `{"enhanced_category": }`, nil},
		{"missing field", `{"category": "Apples"}`, nil},
		{"two extra levels", `{"enhanced_category": "Expenses:Personal:Food:Fruit:Apples:Green"}`, nil},
		{"different branch", `{"enhanced_category": "Expenses:Personal:Food:Vegetables"}`, nil},
		{"no letters", `{"enhanced_category": "123"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewMockLogger()
			degraded := 0
			e := NewAIEnhancer(llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
				return tt.response, tt.err
			}), logger)
			e.OnDegrade(func() { degraded++ })

			result := e.Enhance(context.Background(), "apple", base)

			assert.Equal(t, base, result)
			assert.Equal(t, 1, degraded)
			warnings := logger.GetEntriesByLevel("WARN")
			require.Len(t, warnings, 1)
			var mappingErr *parsererror.MappingError
			assert.True(t, errors.As(warnings[0].Error, &mappingErr))
		})
	}
}

func TestExtendOneLevel(t *testing.T) {
	current := models.AccountPath("Expenses:Personal:Food")

	got, err := extendOneLevel(current, "soft drinks")
	require.NoError(t, err)
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:SoftDrinks"), got)

	got, err = extendOneLevel(current, "Expenses:Personal:Food:Snacks")
	require.NoError(t, err)
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:Snacks"), got)
}

func TestMapper_LearnOverride(t *testing.T) {
	s := testStore()
	m := NewMapper(s, nil, Config{ConfidenceThreshold: 0.5}, nil)

	require.NoError(t, m.LearnOverride("", "Iced Coffee", "Expenses:Personal:Food:Treats"))
	assert.Equal(t, 1, s.Saves)

	result := m.MapAccount(context.Background(), "iced  coffee", Options{})
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:Treats"), result.Account)
	assert.Equal(t, models.SourceUser, result.Source)

	require.NoError(t, m.LearnOverride("", "iced coffee", "Expenses:Personal:Food:Coffee"))
	assert.Len(t, s.Overrides, 3)

	assert.Error(t, m.LearnOverride("", "iced coffee", "expenses:bad"))
	assert.Error(t, m.LearnOverride("", " ", "Expenses:Personal:Food"))

	s.SaveError = errors.New("read-only")
	assert.Error(t, m.LearnOverride("", "tea", "Expenses:Personal:Food:Tea"))
}

func TestMapper_AutoLearnFromAI(t *testing.T) {
	s := testStore()
	completer := llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
		return `{"enhanced_category": "Apples"}`, nil
	})
	m := NewMapper(s, NewAIEnhancer(completer, nil), Config{ConfidenceThreshold: 0.5, AutoLearn: true}, nil)

	first := m.MapAccount(context.Background(), "apple", Options{})
	assert.Equal(t, models.SourceAI, first.Source)
	assert.Equal(t, 1, s.Saves)

	second := m.MapAccount(context.Background(), "apple", Options{})
	assert.Equal(t, models.SourceUser, second.Source)
	assert.Equal(t, models.AccountPath("Expenses:Personal:Food:Fruit:Apples"), second.Account)
}

func TestMapper_ConcurrentUse(t *testing.T) {
	m := newTestMapper(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				_ = m.LearnOverride("", "snack", "Expenses:Personal:Food:Snacks")
			}
			result := m.MapAccount(context.Background(), "coffee", Options{})
			assert.Equal(t, models.SourcePattern, result.Source)
		}(i)
	}
	wg.Wait()
}

func TestMapper_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestMapper(t, nil).MapAccount(ctx, "coffee", Options{})
	assert.Equal(t, models.SourceStaticFallback, result.Source)
}

func TestDetectAccountType(t *testing.T) {
	tests := []struct {
		description string
		expected    models.AccountType
		confidence  float64
	}{
		{"Car loan repayment", models.AccountTypeLiability, 0.8},
		{"Credit card payment", models.AccountTypeLiability, 0.8},
		{"Monthly salary", models.AccountTypeIncome, 0.8},
		{"Security deposit", models.AccountTypeAsset, 0.7},
		{"Index fund investment", models.AccountTypeAsset, 0.7},
		{"Owner's equity injection", models.AccountTypeEquity, 0.75},
		{"Office rent", models.AccountTypeExpense, 0.8},
		{"Widget", models.AccountTypeExpense, DetectAccountTypeDefaultConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			typ, confidence := DetectAccountType(tt.description)
			assert.Equal(t, tt.expected, typ)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}
