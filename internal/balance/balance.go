// Package balance absorbs small rounding differences between a payment line
// and the rest of a ledger entry.
package balance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
)

// DefaultAnchor is the account substring of the cash line AutoBalance keeps fixed.
const DefaultAnchor = "assets:cash"

// DefaultThreshold is the largest difference AutoBalance will absorb.
var DefaultThreshold = decimal.RequireFromString("0.02")

// AutoBalance balances lines against the single Assets:Cash line.
func AutoBalance(lines []models.Posting, threshold decimal.Decimal) ([]models.Posting, error) {
	return AutoBalanceAnchor(lines, DefaultAnchor, threshold)
}

// AutoBalanceAnchor keeps the single line whose account contains anchor
// (case-insensitive) fixed and compares it against the sum of the other
// lines. A difference within threshold is subtracted from the non-anchor line
// with the smallest absolute amount and the anchor line is moved last. A
// larger difference is a BalanceError. Balanced input is returned unchanged.
func AutoBalanceAnchor(lines []models.Posting, anchor string, threshold decimal.Decimal) ([]models.Posting, error) {
	anchor = strings.ToLower(anchor)
	return autoBalance(lines, anchor, threshold, func(account models.AccountPath) bool {
		return strings.Contains(strings.ToLower(account.String()), anchor)
	})
}

// AutoBalanceAccount is AutoBalanceAnchor for a full account path: only a line
// posted to exactly account is the anchor, so sub-accounts such as
// Assets:Bank:Savings under Assets:Bank are ordinary lines.
func AutoBalanceAccount(lines []models.Posting, account models.AccountPath, threshold decimal.Decimal) ([]models.Posting, error) {
	return autoBalance(lines, account.String(), threshold, func(a models.AccountPath) bool {
		return a == account
	})
}

func autoBalance(lines []models.Posting, anchor string, threshold decimal.Decimal, isAnchor func(models.AccountPath) bool) ([]models.Posting, error) {
	anchorIdx := -1
	anchors := 0
	for i, line := range lines {
		if isAnchor(line.Account) {
			anchorIdx = i
			anchors++
		}
	}
	if anchors != 1 {
		return nil, &parsererror.BalanceError{
			Threshold: threshold,
			Reason:    fmt.Sprintf("expected exactly one %q line, found %d", anchor, anchors),
		}
	}

	cash := lines[anchorIdx]
	others := make([]models.Posting, 0, len(lines)-1)
	sumOthers := decimal.Zero
	for i, line := range lines {
		if i == anchorIdx {
			continue
		}
		others = append(others, line)
		sumOthers = sumOthers.Add(line.Amount)
	}

	diff := currencyutils.Round2(sumOthers.Sub(cash.Amount.Abs()))
	if diff.IsZero() {
		return append([]models.Posting(nil), lines...), nil
	}
	if diff.Abs().GreaterThan(threshold) || len(others) == 0 {
		return nil, &parsererror.BalanceError{Difference: diff, Threshold: threshold}
	}

	smallest := 0
	for i := 1; i < len(others); i++ {
		if others[i].Amount.Abs().LessThan(others[smallest].Amount.Abs()) {
			smallest = i
		}
	}
	others[smallest].Amount = currencyutils.Round2(others[smallest].Amount.Sub(diff))

	return append(others, cash), nil
}
