package models

import "github.com/shopspring/decimal"

// ReceiptItem is one purchased line with its price.
type ReceiptItem struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Receipt is a normalized receipt: item lines plus optional summary values.
type Receipt struct {
	Items    []ReceiptItem       `json:"items"`
	Subtotal decimal.NullDecimal `json:"subtotal"`
	Tax      decimal.NullDecimal `json:"tax"`
	Total    decimal.NullDecimal `json:"total"`
}

// ItemsSum adds up the item prices.
func (r Receipt) ItemsSum() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.Price)
	}
	return sum
}

// TaxOrZero returns the tax amount, zero when absent.
func (r Receipt) TaxOrZero() decimal.Decimal {
	if r.Tax.Valid {
		return r.Tax.Decimal
	}
	return decimal.Zero
}

// Some wraps a value as a present nullable decimal.
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// None is an absent nullable decimal.
func None() decimal.NullDecimal {
	return decimal.NullDecimal{}
}
