package validation_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
	"fjacquet/receipt-ledger/internal/validation"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(desc, price string) models.ReceiptItem {
	return models.ReceiptItem{Description: desc, Price: d(price)}
}

func fieldErrors(t *testing.T, err error) *parsererror.ValidationError {
	t.Helper()
	var verr *parsererror.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr
}

func TestValidateReceipt_TotalMismatchIsRejected(t *testing.T) {
	r := models.Receipt{
		Items:    []models.ReceiptItem{item("Apple", "5"), item("Milk", "3")},
		Subtotal: models.Some(d("8")),
		Tax:      models.Some(d("0.5")),
		Total:    models.Some(d("8.3")),
	}

	err := validation.ValidateReceipt(r)
	verr := fieldErrors(t, err)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "receipt.total", verr.Errors[0].Field)
	assert.Equal(t, "Total 8.30 does not equal subtotal plus tax 8.50", verr.Errors[0].Message)
}

func TestValidateReceipt(t *testing.T) {
	tests := []struct {
		name    string
		receipt models.Receipt
		fields  []string
		message string
	}{
		{
			name:    "valid with all summary values",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "2.00"), item("Cake", "3.50")}, Subtotal: models.Some(d("5.50")), Tax: models.Some(d("0.39")), Total: models.Some(d("5.89"))},
		},
		{
			name:    "valid within one cent",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "2.00")}, Subtotal: models.Some(d("2.01")), Total: models.Some(d("2.00"))},
		},
		{
			name:    "valid without summary values",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "2.00")}},
		},
		{
			name:    "subtotal mismatch",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "4.50"), item("Cake", "5.00")}, Subtotal: models.Some(d("10"))},
			fields:  []string{"receipt.subtotal"},
			message: "Subtotal 10.00 does not equal items sum 9.50",
		},
		{
			name:    "total against items sum",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "2.00")}, Total: models.Some(d("3.00"))},
			fields:  []string{"receipt.total"},
			message: "Total 3.00 does not equal items sum 2.00",
		},
		{
			name:    "no items",
			receipt: models.Receipt{},
			fields:  []string{"receipt.items"},
		},
		{
			name:    "bad items",
			receipt: models.Receipt{Items: []models.ReceiptItem{item(" ", "1.00"), item("Refund", "-2.00"), item("Gum", "0.123")}},
			fields:  []string{"receipt.items[0].description", "receipt.items[1].price", "receipt.items[2].price"},
		},
		{
			name:    "negative tax",
			receipt: models.Receipt{Items: []models.ReceiptItem{item("Tea", "2.00")}, Tax: models.Some(d("-0.10"))},
			fields:  []string{"receipt.tax"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateReceipt(tt.receipt)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			verr := fieldErrors(t, err)
			for _, field := range tt.fields {
				assert.True(t, verr.HasField(field), "missing %s in %v", field, verr)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestValidatePayload(t *testing.T) {
	valid := func() models.EntryPayload {
		return models.EntryPayload{
			Date:     "2024-03-01",
			Payee:    "Starbucks",
			Currency: "THB",
			Receipt:  models.Receipt{Items: []models.ReceiptItem{item("coffee", "150")}, Total: models.Some(d("150"))},
		}
	}
	require.NoError(t, validation.ValidatePayload(valid()))

	image := "ftp://example.com/receipt.png"
	tests := []struct {
		name   string
		modify func(*models.EntryPayload)
		field  string
	}{
		{"bad date", func(p *models.EntryPayload) { p.Date = "2024/03/01" }, "date"},
		{"impossible date", func(p *models.EntryPayload) { p.Date = "2024-02-30" }, "date"},
		{"empty payee", func(p *models.EntryPayload) { p.Payee = "" }, "payee"},
		{"lower-case currency", func(p *models.EntryPayload) { p.Currency = "thb" }, "currency"},
		{"symbol currency", func(p *models.EntryPayload) { p.Currency = "$" }, "currency"},
		{"bad payment account", func(p *models.EntryPayload) { p.PaymentAccount = "assets:cash" }, "paymentAccount"},
		{"non-http image", func(p *models.EntryPayload) { p.ImageURL = &image }, "imageUrl"},
		{"receipt errors are included", func(p *models.EntryPayload) { p.Receipt.Total = models.Some(d("1")) }, "receipt.total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.modify(&p)
			verr := fieldErrors(t, validation.ValidatePayload(p))
			assert.True(t, verr.HasField(tt.field), "missing %s in %v", tt.field, verr)
			assert.Equal(t, "entry", verr.Subject)
		})
	}
}

func TestValidatePostings(t *testing.T) {
	assert.NoError(t, validation.ValidatePostings([]models.Posting{
		{Account: "Expenses:Food", Amount: d("1")},
		{Account: "Assets:Cash", Amount: d("-1")},
	}))

	verr := fieldErrors(t, validation.ValidatePostings([]models.Posting{{Account: "Expenses:food", Amount: d("1")}}))
	assert.True(t, verr.HasField("postings[0].account"))

	assert.Error(t, validation.ValidatePostings(nil))
}

func TestQuickFixes(t *testing.T) {
	r := models.Receipt{
		Items:    []models.ReceiptItem{item("Tea", "4.50"), item("Cake", "5.00")},
		Subtotal: models.Some(d("10")),
		Tax:      models.Some(d("0.67")),
		Total:    models.Some(d("10.67")),
	}
	require.Error(t, validation.ValidateReceipt(r))

	fixed := validation.FixSubtotal(r)
	assert.True(t, d("9.50").Equal(fixed.Subtotal.Decimal))
	assert.True(t, d("10").Equal(r.Subtotal.Decimal), "input must not be modified")

	err := validation.ValidateReceipt(fixed)
	verr := fieldErrors(t, err)
	assert.True(t, verr.HasField("receipt.total"))

	fixed = validation.FixTotal(fixed)
	assert.True(t, d("10.17").Equal(fixed.Total.Decimal))
	assert.NoError(t, validation.ValidateReceipt(fixed))
}

func TestIsValidOutputFormat(t *testing.T) {
	for _, format := range []string{"csv", "json", "ledger"} {
		assert.NoError(t, validation.IsValidOutputFormat(format))
	}
	err := validation.IsValidOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
