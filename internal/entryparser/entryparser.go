// Package entryparser reads a written ledger entry (header plus posting lines)
// back into its semantic fields.
package entryparser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
)

const parserName = "ledger-entry"

var (
	headerRegex = regexp.MustCompile(`^(\d{4}[/-]\d{2}[/-]\d{2})\s+(.+)$`)

	// account, sign, prefix symbol, sign after symbol, amount, suffix symbol or code
	postingRegex = regexp.MustCompile(
		`^(\S+)\s+(-)?\s*([฿$€£])?\s*(-)?\s*(\d[\d,]*(?:\.\d+)?)\s*([฿$€£]|[A-Za-z]{3})?$`)
	bareAccountRegex = regexp.MustCompile(`^([A-Za-z][\w:]*)$`)
)

// ParsedEntry holds the fields recovered from a ledger entry.
type ParsedEntry struct {
	Date           time.Time          `json:"date"`
	Payee          string             `json:"payee"`
	ExpenseAccount models.AccountPath `json:"expense_account"`
	AssetAccount   models.AccountPath `json:"asset_account"`
	Amount         decimal.Decimal    `json:"amount"`
	Currency       string             `json:"currency"`
	Business       string             `json:"business"`
}

// ParseEntry parses a ledger entry.
//
// The first non-blank line must be "YYYY/MM/DD payee" (or with dashes).
// A posting written with a minus sign is the asset/payment account; unsigned
// postings are expense lines and their amounts add up to the entry amount. A
// posting with no amount, as written for implied-amount accounts, is taken as
// the asset account when none was seen. The last currency seen wins and THB
// is the default. Blank lines and ";" or "#" comments are ignored.
func ParseEntry(text string) (*ParsedEntry, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerIdx := -1
	for i, line := range lines {
		if stripComment(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "text", Err: parsererror.ErrEmptyInput}
	}

	header := strings.TrimSpace(lines[headerIdx])
	m := headerRegex.FindStringSubmatch(header)
	if m == nil {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "header", Value: header, Err: parsererror.ErrInvalidHeader}
	}
	date, err := dateutils.ParseLedgerDate(m[1], time.Local)
	if err != nil {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "date", Value: m[1], Err: parsererror.ErrInvalidDate}
	}

	entry := &ParsedEntry{
		Date:     date,
		Payee:    strings.TrimSpace(m[2]),
		Amount:   decimal.Zero,
		Currency: models.DefaultCurrency,
		Business: models.DefaultBusiness,
	}

	var elided models.AccountPath
	for _, raw := range lines[headerIdx+1:] {
		line := stripComment(raw)
		if line == "" {
			continue
		}

		if pm := postingRegex.FindStringSubmatch(line); pm != nil {
			account := models.AccountPath(pm[1])
			amount, err := currencyutils.ParseMoney2(pm[5])
			if err != nil {
				continue
			}
			if code := postingCurrency(pm[3], pm[6]); code != "" {
				entry.Currency = code
			}

			if pm[2] == "-" || pm[4] == "-" {
				if entry.AssetAccount == "" {
					entry.AssetAccount = account
				}
				continue
			}
			if entry.ExpenseAccount == "" {
				entry.ExpenseAccount = account
			}
			entry.Amount = entry.Amount.Add(amount)
			continue
		}

		if bm := bareAccountRegex.FindStringSubmatch(line); bm != nil && elided == "" {
			elided = models.AccountPath(bm[1])
		}
	}

	if entry.AssetAccount == "" {
		entry.AssetAccount = elided
	}

	switch {
	case entry.ExpenseAccount == "":
		return nil, &parsererror.ParseError{Parser: parserName, Field: "expense_account", Err: parsererror.ErrMissingPosting}
	case entry.AssetAccount == "":
		return nil, &parsererror.ParseError{Parser: parserName, Field: "asset_account", Err: parsererror.ErrMissingPosting}
	case entry.Amount.IsZero():
		return nil, &parsererror.ParseError{Parser: parserName, Field: "amount", Value: "0", Err: parsererror.ErrInvalidAmount}
	}

	entry.Business = BusinessFromAccount(entry.ExpenseAccount)
	return entry, nil
}

// BusinessFromAccount returns the business segment of an expense account
// (Expenses:<Business>:...), or Personal when the account has no such segment.
func BusinessFromAccount(account models.AccountPath) string {
	segs := account.Segments()
	if len(segs) >= 3 && segs[0] == models.RootExpenses && segs[1] != "" {
		return segs[1]
	}
	return models.DefaultBusiness
}

func postingCurrency(prefix, suffix string) string {
	for _, token := range []string{suffix, prefix} {
		if token == "" {
			continue
		}
		if code, ok := currencyutils.CurrencyCode(token); ok {
			return code
		}
	}
	return ""
}

func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	if idx := strings.Index(trimmed, ";"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	return trimmed
}
