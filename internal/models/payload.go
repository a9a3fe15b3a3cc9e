package models

// EntryPayload is the structured input accepted for entry creation.
type EntryPayload struct {
	Date           string  `json:"date"`
	Payee          string  `json:"payee"`
	Currency       string  `json:"currency"`
	Receipt        Receipt `json:"receipt"`
	PaymentAccount string  `json:"paymentAccount,omitempty"`
	Memo           *string `json:"memo,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	Vendor         string  `json:"vendor,omitempty"`
	Business       string  `json:"business,omitempty"`
}
