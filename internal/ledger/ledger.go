// Package ledger renders postings into the canonical plain-text ledger format
// and checks the double-entry balance invariant.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
)

const (
	// AccountColumnWidth is the padded width of the account column.
	AccountColumnWidth = 30
	postingIndent      = "    "
)

// BalanceTolerance is the absolute tolerance of the balance invariant.
var BalanceTolerance = decimal.RequireFromString("0.005")

// impliedAmountRoots are account roots whose negative postings are written
// without an amount; the amount is implied by the balance.
var impliedAmountRoots = map[string]bool{
	models.RootIncome:      true,
	models.RootLiabilities: true,
	models.RootEquity:      true,
}

// HidesAmount reports whether the posting is rendered without its amount.
func HidesAmount(p models.Posting) bool {
	return impliedAmountRoots[p.Account.Root()] && currencyutils.Round2(p.Amount).IsNegative()
}

// RenderPosting renders one indented posting line. currency is used when the
// posting carries none.
func RenderPosting(p models.Posting, currency string) string {
	if HidesAmount(p) {
		return postingIndent + p.Account.String()
	}
	if p.Currency != "" {
		currency = p.Currency
	}
	width := AccountColumnWidth
	if len(p.Account) >= width {
		width = len(p.Account) + 1
	}
	return fmt.Sprintf("%s%-*s%s", postingIndent, width, p.Account.String(),
		currencyutils.FormatSigned(p.Amount, currency))
}

// RenderLedger renders a header line followed by one line per posting. The
// date may use "-" or "/" separators and is written with "/".
func RenderLedger(date, payee string, postings []models.Posting, currency string) string {
	var b strings.Builder
	b.WriteString(dateutils.NormalizeLedgerDate(date))
	b.WriteByte(' ')
	b.WriteString(strings.TrimSpace(payee))
	b.WriteByte('\n')
	for _, p := range postings {
		b.WriteString(RenderPosting(p, currency))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderEntry renders a ledger entry's postings under its header.
func RenderEntry(entry models.LedgerEntry) string {
	return RenderLedger(dateutils.FormatLedger(entry.Date), entry.Payee, entry.Postings, entry.Currency)
}

// AssertBalanced fails when the posting amounts do not sum to zero within
// BalanceTolerance.
func AssertBalanced(postings []models.Posting) error {
	if len(postings) == 0 {
		return &parsererror.BalanceError{Threshold: BalanceTolerance, Reason: "no postings"}
	}
	sum := models.SumAmounts(postings)
	if sum.Abs().GreaterThan(BalanceTolerance) {
		return &parsererror.BalanceError{
			Difference: sum,
			Threshold:  BalanceTolerance,
			Reason:     fmt.Sprintf("postings sum to %s", sum.StringFixed(2)),
		}
	}
	return nil
}
