package models

import "github.com/shopspring/decimal"

// Posting is one signed account/amount line of a ledger entry.
type Posting struct {
	Account  AccountPath     `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// SumAmounts adds the amounts of all postings.
func SumAmounts(postings []Posting) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range postings {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// PostingRow is the normalized, persisted form of a posting.
type PostingRow struct {
	EntryID  string `json:"entry_id" csv:"entry_id"`
	LineNo   int    `json:"line_no" csv:"line_no"`
	Date     string `json:"date" csv:"date"`
	Payee    string `json:"payee" csv:"payee"`
	Account  string `json:"account" csv:"account"`
	Amount   string `json:"amount" csv:"amount"`
	Currency string `json:"currency" csv:"currency"`
}
