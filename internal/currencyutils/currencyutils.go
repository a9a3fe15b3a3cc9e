// Package currencyutils provides the currency and money operations shared by
// the parsers, the postings builder and the ledger renderer.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"THB": "฿",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

var symbolCodes = map[string]string{
	"฿": "THB",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// knownCodes are the ISO 4217 codes recognised in free text.
var knownCodes = map[string]bool{
	"THB": true, "USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CHF": true, "SGD": true, "AUD": true, "CAD": true, "CNY": true,
	"HKD": true, "MYR": true, "KRW": true, "INR": true, "NZD": true,
	"VND": true, "IDR": true, "PHP": true, "LAK": true, "KHR": true,
}

var (
	moneyNoise   = regexp.MustCompile(`[฿$€£,\s]`)
	threeLetters = regexp.MustCompile(`^[A-Za-z]{3}$`)
	hundred      = decimal.NewFromInt(100)
)

// Symbol returns the display symbol for a currency code, or "" when the code
// has no symbol.
func Symbol(code string) string {
	return symbols[strings.ToUpper(code)]
}

// IsPrefixSymbol reports whether the currency symbol precedes the number.
// THB and unknown codes are written after it.
func IsPrefixSymbol(code string) bool {
	switch strings.ToUpper(code) {
	case "USD", "EUR", "GBP":
		return true
	default:
		return false
	}
}

// NormalizeCurrency maps a symbol or a known ISO code, in any letter case, to
// its upper-case code. Other three-letter tokens are rejected so that words
// and vendor names like "tea" or "KFC" are not mistaken for a currency.
func NormalizeCurrency(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if code, ok := symbolCodes[token]; ok {
		return code, true
	}
	if !threeLetters.MatchString(token) {
		return "", false
	}
	upper := strings.ToUpper(token)
	if knownCodes[upper] {
		return upper, true
	}
	return "", false
}

// CurrencyCode maps a currency given explicitly (a flag, a payload field or
// a ledger posting) to its upper-case code. Any three-letter code is
// accepted.
func CurrencyCode(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if code, ok := symbolCodes[token]; ok {
		return code, true
	}
	if !threeLetters.MatchString(token) {
		return "", false
	}
	return strings.ToUpper(token), true
}

// Round2 rounds to the nearest cent.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseMoney2 parses a money string, dropping currency symbols, thousands
// separators and whitespace, and rounds the result to cents.
// ParseMoney2("1,234.567") is 1234.57.
func ParseMoney2(s string) (decimal.Decimal, error) {
	cleaned := moneyNoise.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': no digits", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", s, err)
	}
	return Round2(d), nil
}

// FormatAmount renders the absolute value with two decimals and comma
// thousands grouping, e.g. "1,234.56".
func FormatAmount(amount decimal.Decimal) string {
	fixed := Round2(amount.Abs()).StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + "." + frac
}

// FormatSigned renders a signed amount the way ledger posting lines show it:
// a sign marker ("-" or a space) followed by the symbol-decorated amount.
//
//	FormatSigned(1234.56, "USD") == " $1,234.56"
//	FormatSigned(-8.5, "USD")    == "-$8.50"
//	FormatSigned(150, "THB")     == " 150.00 ฿"
func FormatSigned(amount decimal.Decimal, code string) string {
	sign := " "
	if Round2(amount).IsNegative() {
		sign = "-"
	}
	code = strings.ToUpper(code)
	body := FormatAmount(amount)
	symbol := Symbol(code)

	switch {
	case symbol != "" && IsPrefixSymbol(code):
		return sign + symbol + body
	case symbol != "":
		return sign + body + " " + symbol
	case code != "":
		return sign + body + " " + code
	default:
		return sign + body
	}
}

// Cents converts an amount to an integer number of cents.
func Cents(amount decimal.Decimal) int64 {
	return Round2(amount).Mul(hundred).IntPart()
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
