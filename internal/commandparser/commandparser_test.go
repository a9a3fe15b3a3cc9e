package commandparser

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/parsererror"
)

func fixedParser() *Parser {
	bangkok := time.FixedZone("ICT", 7*3600)
	return &Parser{Now: func() time.Time { return time.Date(2024, 6, 1, 0, 15, 0, 0, bangkok) }}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		date        string
		payee       string
		description string
		amount      string
		currency    string
		inferred    bool
	}{
		{"last token is payee", "coffee starbucks 150", "2024/06/01", "starbucks", "coffee", "150", "THB", false},
		{"single word defaults payee", "coffee 45", "2024/06/01", "Personal", "coffee", "45", "THB", false},
		{"leading slash date", "2024/05/20 lunch kfc 120.50", "2024/05/20", "kfc", "lunch", "120.5", "THB", false},
		{"leading dash date", "2024-05-20 taxi grab 80", "2024/05/20", "grab", "taxi", "80", "THB", false},
		{"at separator", "lunch @ Pizza Hut 200", "2024/06/01", "Pizza Hut", "lunch", "200", "THB", false},
		{"at without payee", "printer paper @ 99", "2024/06/01", "Personal", "printer paper", "99", "THB", false},
		{"at without description", "@ Netflix 15.99 USD", "2024/06/01", "Netflix", "Netflix", "15.99", "USD", false},
		{"dollar prefix glued", "book amazon $12.99", "2024/06/01", "amazon", "book", "12.99", "USD", false},
		{"euro suffix glued", "bread bakery 3.20€", "2024/06/01", "bakery", "bread", "3.2", "EUR", false},
		{"baht suffix spaced", "noodles stall 60 ฿", "2024/06/01", "stall", "noodles", "60", "THB", false},
		{"code before amount", "hotel agoda USD 250", "2024/06/01", "agoda", "hotel", "250", "USD", false},
		{"lower case known code", "tea shop 5 gbp", "2024/06/01", "shop", "tea", "5", "GBP", false},
		{"pound prefix spaced", "tube tfl £ 2.80", "2024/06/01", "tfl", "tube", "2.8", "GBP", false},
		{"thousands separator", "laptop store 1,234.567", "2024/06/01", "store", "laptop", "1234.57", "THB", false},
		{"multi word payee is inferred", "lunch Pizza Hut 200", "2024/06/01", "Hut", "lunch Pizza", "200", "THB", true},
		{"plain word is not a currency", "milk tea 40", "2024/06/01", "tea", "milk", "40", "THB", false},
		{"upper case vendor is not a currency", "lunch KFC 150", "2024/06/01", "KFC", "lunch", "150", "THB", false},
		{"known code outside the symbol table", "fondue chalet CHF 48", "2024/06/01", "chalet", "fondue", "48", "CHF", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fixedParser().Parse(tt.input)
			require.NoError(t, err)

			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.date, dateutils.FormatLedger(got.Date))
			assert.Equal(t, tt.payee, got.Payee)
			assert.Equal(t, tt.description, got.Description)
			assert.True(t, amount.Equal(got.Amount), "amount %s", got.Amount)
			assert.Equal(t, tt.currency, got.Currency)
			assert.Equal(t, tt.inferred, got.PayeeInferred)

			require.Len(t, got.Receipt.Items, 1)
			assert.Equal(t, tt.description, got.Receipt.Items[0].Description)
			assert.True(t, amount.Equal(got.Receipt.Items[0].Price))
			assert.True(t, got.Receipt.Subtotal.Valid)
			assert.True(t, amount.Equal(got.Receipt.Subtotal.Decimal))
			assert.True(t, amount.Equal(got.Receipt.Total.Decimal))
			assert.False(t, got.Receipt.Tax.Valid)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cause error
	}{
		{"empty", "   ", parsererror.ErrEmptyInput},
		{"no amount", "coffee starbucks", parsererror.ErrAmountNotFound},
		{"amount not at the end", "coffee 150 starbucks", parsererror.ErrAmountNotFound},
		{"zero amount", "coffee starbucks 0", parsererror.ErrInvalidAmount},
		{"amount only", "150", parsererror.ErrDescriptionNotFound},
		{"date and amount only", "2024/01/01 150", parsererror.ErrDescriptionNotFound},
		{"impossible date", "2024/02/30 coffee 150", parsererror.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixedParser().Parse(tt.input)
			require.Error(t, err)
			var pe *parsererror.ParseError
			assert.True(t, errors.As(err, &pe))
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	p := New("usd", "Household")
	p.Now = fixedParser().Now

	got, err := p.Parse("groceries 20")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "Household", got.Payee)
}

func TestStripCommand(t *testing.T) {
	assert.Equal(t, "coffee starbucks 150", StripCommand("new coffee starbucks 150"))
	assert.Equal(t, "coffee 150", StripCommand("  /new   coffee 150"))
	assert.Equal(t, "coffee 150", StripCommand("NEW coffee 150"))
	assert.Equal(t, "newspaper 20", StripCommand("newspaper 20"))
	assert.Equal(t, "", StripCommand("new"))
}
