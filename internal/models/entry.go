package models

import (
	"time"

	"github.com/google/uuid"

	"fjacquet/receipt-ledger/internal/dateutils"
)

// LedgerEntry is a balanced group of postings sharing a date and payee,
// together with its rendered text.
type LedgerEntry struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	Payee     string    `json:"payee"`
	Currency  string    `json:"currency"`
	Business  string    `json:"business,omitempty"`
	Postings  []Posting `json:"postings"`
	Text      string    `json:"text"`
	Memo      *string   `json:"memo,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Rows converts the entry's postings into ordered posting rows.
func (e LedgerEntry) Rows() []PostingRow {
	rows := make([]PostingRow, 0, len(e.Postings))
	for i, p := range e.Postings {
		currency := p.Currency
		if currency == "" {
			currency = e.Currency
		}
		rows = append(rows, PostingRow{
			EntryID:  e.ID.String(),
			LineNo:   i + 1,
			Date:     e.Date.Format(dateutils.DateLayoutISO),
			Payee:    e.Payee,
			Account:  string(p.Account),
			Amount:   p.Amount.StringFixed(2),
			Currency: currency,
		})
	}
	return rows
}
