// Package segmenter isolates the item and summary lines of noisy OCR receipt
// text. The heuristic segmenter never fails: when nothing item-like is found
// it returns an empty result with zero confidence and leaves rejection to
// validation.
package segmenter

import (
	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/models"
)

// Result sources.
const (
	SourceInvoice  = "invoice"
	SourceFallback = "fallback"
	SourceLLM      = "llm"
)

// Confidence levels reported by the heuristics.
const (
	ConfidenceReconciled = 0.9
	ConfidenceInvoice    = 0.7
	ConfidenceFallback   = 0.5
)

var reconcileTolerance = decimal.RequireFromString("0.01")

// Section records where the item and summary blocks were found, as indices
// into RawLines. ItemsEnd is exclusive.
type Section struct {
	ItemsStart   int `json:"items_start"`
	ItemsEnd     int `json:"items_end"`
	SummaryStart int `json:"summary_start"`
}

// Result is a segmented receipt.
type Result struct {
	Items      []models.ReceiptItem `json:"items"`
	Subtotal   decimal.NullDecimal  `json:"subtotal"`
	Tax        decimal.NullDecimal  `json:"tax"`
	Total      decimal.NullDecimal  `json:"total"`
	RawLines   []string             `json:"raw_lines"`
	Section    *Section             `json:"section,omitempty"`
	Confidence float64              `json:"confidence"`
	Source     string               `json:"source"`
}

// Receipt returns the receipt shape of the result.
func (r *Result) Receipt() models.Receipt {
	return models.Receipt{
		Items:    append([]models.ReceiptItem(nil), r.Items...),
		Subtotal: r.Subtotal,
		Tax:      r.Tax,
		Total:    r.Total,
	}
}

// ParseMoney2 parses a money string rounded to cents.
func ParseMoney2(s string) (decimal.Decimal, error) {
	return currencyutils.ParseMoney2(s)
}

// SegmentInvoice segments receipt lines bounded by a SUBTOTAL line.
//
// Items start at the first item-like line and run until SUBTOTAL (or
// SUB-TOTAL). The summary region after it yields the subtotal, the first
// TAX/VAT/GST amount and the sale total, preferring GRAND TOTAL, AMOUNT DUE,
// BALANCE DUE or TOTAL DUE over a plain TOTAL. Without a SUBTOTAL line the
// single-pass fallback is used.
func SegmentInvoice(lines []string) *Result {
	lines = NormalizeLines(lines)
	result := &Result{RawLines: lines, Source: SourceInvoice}

	itemsStart, firstItem := -1, -1
	for i := range lines {
		if _, start, ok := itemAt(lines, i); ok {
			itemsStart, firstItem = start, i
			break
		}
	}
	if itemsStart < 0 {
		return result
	}

	subtotalIdx := -1
	for i := itemsStart; i < len(lines); i++ {
		if isSubtotal(lines[i]) {
			subtotalIdx = i
			break
		}
	}
	if subtotalIdx < 0 {
		return fallbackLines(lines)
	}

	for i := firstItem; i < subtotalIdx; i++ {
		if item, _, ok := itemAt(lines, i); ok {
			result.Items = append(result.Items, item)
		}
	}

	result.Section = &Section{ItemsStart: itemsStart, ItemsEnd: subtotalIdx, SummaryStart: subtotalIdx}
	result.Subtotal, result.Tax, result.Total = extractSummary(lines, subtotalIdx)
	result.Confidence = confidenceFor(result, ConfidenceInvoice)
	return result
}

// FallbackSegment segments raw OCR text in a single pass: every item-like
// line before the first TOTAL-like line is an item, and summary values are
// read from the summary lines.
func FallbackSegment(text string) *Result {
	return fallbackLines(SplitLines(text))
}

func fallbackLines(lines []string) *Result {
	result := &Result{RawLines: lines, Source: SourceFallback}

	itemsStart, itemsEnd, summaryStart := -1, -1, -1
	for i, line := range lines {
		if isSummary(line) {
			if summaryStart < 0 {
				summaryStart = i
			}
			if isSaleTotal(line) || isLongTotal(line) {
				itemsEnd = i
				break
			}
			continue
		}
		if summaryStart >= 0 {
			continue
		}
		if item, start, ok := itemAt(lines, i); ok {
			if itemsStart < 0 {
				itemsStart = start
			}
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Items) == 0 {
		return result
	}
	if itemsEnd < 0 {
		itemsEnd = len(lines)
	}
	if summaryStart < 0 {
		summaryStart = itemsEnd
	}

	result.Section = &Section{ItemsStart: itemsStart, ItemsEnd: summaryStart, SummaryStart: summaryStart}
	result.Subtotal, result.Tax, result.Total = extractSummary(lines, summaryStart)
	result.Confidence = confidenceFor(result, ConfidenceFallback)
	return result
}

// extractSummary reads subtotal, tax and total from lines[from:].
func extractSummary(lines []string, from int) (subtotal, tax, total decimal.NullDecimal) {
	var plainTotal, longTotal decimal.NullDecimal

	for i := from; i < len(lines); i++ {
		line := lines[i]
		switch {
		case isSubtotal(line):
			if subtotal.Valid {
				continue
			}
			loc := subtotalRegex.FindStringIndex(line)
			if v, ok := firstMoneyAfter(line, loc[1]); ok {
				subtotal = models.Some(v)
			} else if i+1 < len(lines) && isBareMoney(lines[i+1]) {
				v, _ := lastMoney(lines[i+1])
				subtotal = models.Some(v)
			}
		case isLongTotal(line):
			if !longTotal.Valid {
				if v, ok := lastMoney(line); ok {
					longTotal = models.Some(v)
				}
			}
		case isSaleTotal(line):
			if !plainTotal.Valid {
				if v, ok := lastMoney(line); ok {
					plainTotal = models.Some(v)
				} else if i+1 < len(lines) && isBareMoney(lines[i+1]) {
					v, _ := lastMoney(lines[i+1])
					plainTotal = models.Some(v)
				}
			}
		case isTax(line):
			if !tax.Valid {
				if v, ok := lastMoney(line); ok {
					tax = models.Some(v)
				}
			}
		}
	}

	total = plainTotal
	if longTotal.Valid {
		total = longTotal
	}
	return subtotal, tax, total
}

// confidenceFor raises the base confidence when the items reconcile with the
// subtotal (or total) and reports zero when nothing was found.
func confidenceFor(r *Result, base float64) float64 {
	if len(r.Items) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.Price)
	}
	if r.Subtotal.Valid && currencyutils.WithinTolerance(sum, r.Subtotal.Decimal, reconcileTolerance) {
		return ConfidenceReconciled
	}
	if !r.Subtotal.Valid && r.Total.Valid {
		tax := decimal.Zero
		if r.Tax.Valid {
			tax = r.Tax.Decimal
		}
		if currencyutils.WithinTolerance(sum.Add(tax), r.Total.Decimal, reconcileTolerance) {
			return ConfidenceReconciled
		}
	}
	return base
}
