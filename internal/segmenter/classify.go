package segmenter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/models"
)

var (
	// Item prices need two decimals; an optional symbol and comma grouping
	// are allowed. Up to two short trailing flags (tax codes like "N" or
	// "T1", a currency symbol, "*") and closing punctuation may follow.
	itemPriceRegex = regexp.MustCompile(
		`(?:^|\s)([฿$€£]?\s?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})((?:\s+[A-Z][A-Z0-9]{0,3}|\s*[฿$€£*#]){0,2})\s*[)\].;:]?\s*$`)

	notItemHeaders = regexp.MustCompile(
		`(?i)\b(?:ISSUED\s+TO|BILL(?:ED)?\s+TO|INVOICE\s*(?:NO|NUMBER|#)|RECEIPT\s*(?:NO|#)|DUE\s+DATE|DATE|DESCRIPTION|UNIT\s+PRICE|QTY|QUANTITY|ACCOUNT\s+NO|TEL|PHONE|TAX\s+ID)\b`)

	dmyDot   = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)
	dmySlash = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)

	subtotalRegex  = regexp.MustCompile(`(?i)\bSUB[\s-]?TOTAL\b`)
	taxRegex       = regexp.MustCompile(`(?i)\b(?:TAX|VAT|GST)\b`)
	taxLabelRegex  = regexp.MustCompile(`(?i)\b(?:TAX|VAT)\s*(?:ID|INVOICE|NO|REG)\b`)
	totalRegex     = regexp.MustCompile(`(?i)\bTOTAL\b`)
	notSaleTotal   = regexp.MustCompile(`(?i)\bTOTAL\s+(?:TAX|PURCHASES?|ITEMS?|QTY|QUANTITY|DISCOUNTS?|SAVINGS?)\b`)
	longTotalRegex = regexp.MustCompile(`(?i)\b(?:GRAND\s+TOTAL|AMOUNT\s+DUE|BALANCE\s+DUE|TOTAL\s+DUE)\b`)

	summaryNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// moneyToken is a money value found in a line with its byte offsets.
type moneyToken struct {
	start, end int
	value      decimal.Decimal
}

// SplitLines splits OCR text into trimmed, whitespace-collapsed, non-empty
// lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return NormalizeLines(raw)
}

// NormalizeLines trims and collapses whitespace, dropping empty lines.
func NormalizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// PriceNearEnd reports whether line looks like an item row: a two-decimal
// money token at the end (optionally followed by short flags), no known
// header label and no DD.MM.YYYY or DD/MM/YYYY date.
func PriceNearEnd(line string) bool {
	_, _, ok := itemPrice(line)
	return ok
}

// itemPrice returns the item description and price of an item-like line.
func itemPrice(line string) (string, decimal.Decimal, bool) {
	if notItemHeaders.MatchString(line) || hasDate(line) {
		return "", decimal.Zero, false
	}
	m := itemPriceRegex.FindStringSubmatchIndex(line)
	if m == nil {
		return "", decimal.Zero, false
	}
	price, err := currencyutils.ParseMoney2(line[m[2]:m[3]])
	if err != nil {
		return "", decimal.Zero, false
	}
	description := strings.TrimSpace(line[:m[2]])
	description = strings.TrimRight(description, " :-")
	return description, price, true
}

func hasDate(line string) bool {
	return dmyDot.MatchString(line) || dmySlash.MatchString(line)
}

func isSubtotal(line string) bool {
	return subtotalRegex.MatchString(line)
}

func isTax(line string) bool {
	return taxRegex.MatchString(line) && !taxLabelRegex.MatchString(line) &&
		!isSubtotal(line) && !isSaleTotal(line)
}

// isSaleTotal reports a genuine sale total keyword. SUBTOTAL, TOTAL TAX and
// TOTAL PURCHASE style lines do not count.
func isSaleTotal(line string) bool {
	if longTotalRegex.MatchString(line) {
		return true
	}
	if isSubtotal(line) || notSaleTotal.MatchString(line) {
		return false
	}
	return totalRegex.MatchString(line)
}

func isLongTotal(line string) bool {
	return longTotalRegex.MatchString(line)
}

// isSummary reports lines that belong to the summary block.
func isSummary(line string) bool {
	return isSubtotal(line) || isTax(line) || isSaleTotal(line) || totalRegex.MatchString(line)
}

// isItem is the single line classification shared by every segmentation
// path.
func isItem(line string) bool {
	return PriceNearEnd(line) && !isSummary(line)
}

// itemAt returns the item on lines[i] and the index of its first line. A
// line holding only a price takes its description from the line above when
// that line is a plain label; without one the price is not an item.
func itemAt(lines []string, i int) (models.ReceiptItem, int, bool) {
	if !isItem(lines[i]) {
		return models.ReceiptItem{}, i, false
	}
	description, price, _ := itemPrice(lines[i])
	if description != "" {
		return models.ReceiptItem{Description: description, Price: price}, i, true
	}
	if i == 0 || !isItemLabel(lines[i-1]) {
		return models.ReceiptItem{}, i, false
	}
	return models.ReceiptItem{Description: lines[i-1], Price: price}, i - 1, true
}

// isItemLabel reports a line that can name the price on the next line: it
// has letters and is neither an item, a summary line, a header nor a date.
func isItemLabel(line string) bool {
	if PriceNearEnd(line) || isSummary(line) || notItemHeaders.MatchString(line) || hasDate(line) {
		return false
	}
	return strings.IndexFunc(line, unicode.IsLetter) >= 0
}

// summaryMoney returns the money tokens of a summary line. Integers are
// accepted; percentages and date fragments are not.
func summaryMoney(line string) []moneyToken {
	masked := dmySlash.ReplaceAllStringFunc(dmyDot.ReplaceAllStringFunc(line, blank), blank)

	var tokens []moneyToken
	for _, loc := range summaryNumber.FindAllStringIndex(masked, -1) {
		start, end := loc[0], loc[1]
		if prev, _ := utf8.DecodeLastRuneInString(masked[:start]); unicode.IsLetter(prev) || prev == '.' || prev == '/' {
			continue
		}
		rest := strings.TrimLeft(masked[end:], " ")
		if strings.HasPrefix(rest, "%") {
			continue
		}
		if next, _ := utf8.DecodeRuneInString(masked[end:]); unicode.IsLetter(next) && !currencySuffix(masked[end:]) {
			continue
		}
		value, err := currencyutils.ParseMoney2(masked[start:end])
		if err != nil {
			continue
		}
		tokens = append(tokens, moneyToken{start: start, end: end, value: value})
	}
	return tokens
}

// currencySuffix reports whether s starts with a currency code that is not
// part of a longer word, as in "100THB".
func currencySuffix(s string) bool {
	if len(s) < 3 {
		return false
	}
	if len(s) > 3 {
		if next, _ := utf8.DecodeRuneInString(s[3:]); unicode.IsLetter(next) {
			return false
		}
	}
	_, ok := currencyutils.NormalizeCurrency(s[:3])
	return ok
}

func blank(s string) string {
	return strings.Repeat(" ", len(s))
}

// firstMoneyAfter returns the first money token starting at or after offset,
// falling back to the last token of the line.
func firstMoneyAfter(line string, offset int) (decimal.Decimal, bool) {
	tokens := summaryMoney(line)
	for _, tok := range tokens {
		if tok.start >= offset {
			return tok.value, true
		}
	}
	return lastMoney(line)
}

func lastMoney(line string) (decimal.Decimal, bool) {
	tokens := summaryMoney(line)
	if len(tokens) == 0 {
		return decimal.Zero, false
	}
	return tokens[len(tokens)-1].value, true
}

// isBareMoney reports a line holding nothing but one amount, as OCR produces
// when a label and its value land on separate lines.
func isBareMoney(line string) bool {
	tokens := summaryMoney(line)
	if len(tokens) != 1 {
		return false
	}
	rest := strings.TrimSpace(line[:tokens[0].start] + line[tokens[0].end:])
	return strings.Trim(rest, "฿$€£:") == ""
}
