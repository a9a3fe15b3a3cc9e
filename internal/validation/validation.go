// Package validation checks receipts, payloads and postings before an entry is
// built. Violations are reported as field-scoped messages and are never
// silently corrected; FixSubtotal and FixTotal are explicit user-triggered
// repairs.
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
)

// ReceiptTolerance is the allowed gap between summary values and the values
// derived from items.
var ReceiptTolerance = decimal.RequireFromString("0.01")

// ValidateReceipt checks the item and summary invariants of a receipt.
func ValidateReceipt(r models.Receipt) error {
	verr := &parsererror.ValidationError{Subject: "receipt"}
	collectReceipt(verr, "receipt", r)
	return verr.OrNil()
}

func collectReceipt(verr *parsererror.ValidationError, prefix string, r models.Receipt) {
	if len(r.Items) == 0 {
		verr.Add(prefix+".items", "At least one item is required")
	}
	for i, item := range r.Items {
		field := fmt.Sprintf("%s.items[%d]", prefix, i)
		if strings.TrimSpace(item.Description) == "" {
			verr.Add(field+".description", "Description is required")
		}
		if item.Price.IsNegative() {
			verr.Add(field+".price", "Price %s must not be negative", item.Price.StringFixed(2))
		}
		if !item.Price.Equal(currencyutils.Round2(item.Price)) {
			verr.Add(field+".price", "Price %s has more than 2 decimals", item.Price.String())
		}
	}

	if r.Tax.Valid && r.Tax.Decimal.IsNegative() {
		verr.Add(prefix+".tax", "Tax %s must not be negative", r.Tax.Decimal.StringFixed(2))
	}

	sum := r.ItemsSum()
	if r.Subtotal.Valid && len(r.Items) > 0 &&
		!currencyutils.WithinTolerance(r.Subtotal.Decimal, sum, ReceiptTolerance) {
		verr.Add(prefix+".subtotal", "Subtotal %s does not equal items sum %s",
			r.Subtotal.Decimal.StringFixed(2), sum.StringFixed(2))
	}

	if r.Total.Valid {
		base, label := sum, "items sum"
		if r.Subtotal.Valid {
			base, label = r.Subtotal.Decimal, "subtotal"
		}
		expected := base.Add(r.TaxOrZero())
		if r.Tax.Valid {
			label += " plus tax"
		}
		if !currencyutils.WithinTolerance(r.Total.Decimal, expected, ReceiptTolerance) {
			verr.Add(prefix+".total", "Total %s does not equal %s %s",
				r.Total.Decimal.StringFixed(2), label, expected.StringFixed(2))
		}
	}
}

// ValidatePayload checks a structured entry payload, including its receipt.
func ValidatePayload(p models.EntryPayload) error {
	verr := &parsererror.ValidationError{Subject: "entry"}

	if _, err := time.Parse(dateutils.DateLayoutISO, p.Date); err != nil {
		verr.Add("date", "Date %q must be YYYY-MM-DD", p.Date)
	}
	if strings.TrimSpace(p.Payee) == "" {
		verr.Add("payee", "Payee is required")
	}
	if code, ok := currencyutils.CurrencyCode(p.Currency); !ok || code != p.Currency {
		verr.Add("currency", "Currency %q must be an upper-case ISO code", p.Currency)
	}
	if p.PaymentAccount != "" {
		if err := ValidateAccount(models.AccountPath(p.PaymentAccount)); err != nil {
			verr.Add("paymentAccount", "%s", err.Error())
		}
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		u, err := url.Parse(*p.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.Add("imageUrl", "Image URL %q must be an http(s) URL", *p.ImageURL)
		}
	}
	collectReceipt(verr, "receipt", p.Receipt)

	return verr.OrNil()
}

// ValidateAccount checks the account path grammar.
func ValidateAccount(account models.AccountPath) error {
	if !account.IsValid() {
		return fmt.Errorf("account %q is not a valid account path", account.String())
	}
	return nil
}

// ValidatePostings checks every posting account. Balance is checked
// separately by the renderer.
func ValidatePostings(postings []models.Posting) error {
	verr := &parsererror.ValidationError{Subject: "postings"}
	if len(postings) == 0 {
		verr.Add("postings", "At least one posting is required")
	}
	for i, p := range postings {
		if err := ValidateAccount(p.Account); err != nil {
			verr.Add(fmt.Sprintf("postings[%d].account", i), "%s", err.Error())
		}
	}
	return verr.OrNil()
}

// FixSubtotal sets the subtotal to the items sum.
func FixSubtotal(r models.Receipt) models.Receipt {
	r.Items = append([]models.ReceiptItem(nil), r.Items...)
	r.Subtotal = models.Some(currencyutils.Round2(r.ItemsSum()))
	return r
}

// FixTotal sets the total to the subtotal (or items sum) plus tax.
func FixTotal(r models.Receipt) models.Receipt {
	r.Items = append([]models.ReceiptItem(nil), r.Items...)
	base := r.ItemsSum()
	if r.Subtotal.Valid {
		base = r.Subtotal.Decimal
	}
	r.Total = models.Some(currencyutils.Round2(base.Add(r.TaxOrZero())))
	return r
}

// IsValidOutputFormat checks if the given export format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "csv", "json", "ledger":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'csv', 'json', 'ledger'", format)
	}
}
