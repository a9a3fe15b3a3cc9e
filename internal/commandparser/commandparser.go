// Package commandparser turns a free-text "new ..." command into a
// single-item receipt.
//
// Grammar, loosely:
//
//	[YYYY/MM/DD|YYYY-MM-DD] <description> [@ <payee>|<payee>] <amount with optional currency>
//
// The amount must be at the end. Without an "@" the last word before the
// amount is taken as the payee, which misreads multi-word payees such as
// "lunch Pizza Hut 200"; results built that way carry PayeeInferred.
package commandparser

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

const parserName = "command"

var (
	amountToken    = regexp.MustCompile(`^(?:\d[\d,]*(?:\.\d+)?|\.\d+)$`)
	amountCurrency = regexp.MustCompile(`^(\d[\d,]*(?:\.\d+)?|\.\d+)([฿$€£]|[A-Za-z]{3})$`)
	currencyAmount = regexp.MustCompile(`^([฿$€£]|[A-Za-z]{3})(\d[\d,]*(?:\.\d+)?|\.\d+)$`)
	commandWord    = regexp.MustCompile(`(?i)^/?new\b`)
)

// Result is a parsed command.
type Result struct {
	Date          time.Time       `json:"date"`
	Payee         string          `json:"payee"`
	Description   string          `json:"description"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Receipt       models.Receipt  `json:"receipt"`
	PayeeInferred bool            `json:"payee_inferred"`
}

// Parser parses "new" commands. The zero value uses THB, "Personal" and the
// local clock.
type Parser struct {
	DefaultCurrency string
	DefaultPayee    string
	// Now supplies the date used when the command has none.
	Now func() time.Time
}

// New returns a Parser with the given defaults.
func New(defaultCurrency, defaultPayee string) *Parser {
	return &Parser{DefaultCurrency: defaultCurrency, DefaultPayee: defaultPayee}
}

// StripCommand removes a leading "new" or "/new" command word.
func StripCommand(text string) string {
	text = strings.TrimSpace(text)
	return strings.TrimSpace(commandWord.ReplaceAllString(text, ""))
}

// Parse parses command text with the command word already stripped.
func (p *Parser) Parse(text string) (*Result, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "text", Err: parsererror.ErrEmptyInput}
	}

	date, tokens, err := p.leadingDate(tokens)
	if err != nil {
		return nil, err
	}

	amount, currency, tokens, ok := trailingAmount(tokens)
	if !ok {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "amount", Value: text, Err: parsererror.ErrAmountNotFound}
	}
	if !amount.IsPositive() {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "amount", Value: amount.String(), Err: parsererror.ErrInvalidAmount}
	}
	if currency == "" {
		currency = p.defaultCurrency()
	}

	description, payee, inferred := p.splitPayee(tokens)
	if description == "" {
		return nil, &parsererror.ParseError{Parser: parserName, Field: "description", Value: text, Err: parsererror.ErrDescriptionNotFound}
	}

	return &Result{
		Date:          date,
		Payee:         payee,
		Description:   description,
		Currency:      currency,
		Amount:        amount,
		PayeeInferred: inferred,
		Receipt: models.Receipt{
			Items:    []models.ReceiptItem{{Description: description, Price: amount}},
			Subtotal: models.Some(amount),
			Tax:      models.None(),
			Total:    models.Some(amount),
		},
	}, nil
}

func (p *Parser) leadingDate(tokens []string) (time.Time, []string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	today := now()

	if !dateutils.IsLedgerDateToken(tokens[0]) {
		return dateutils.LocalDate(today), tokens, nil
	}
	date, err := dateutils.ParseLedgerDate(tokens[0], today.Location())
	if err != nil {
		return time.Time{}, nil, &parsererror.ParseError{Parser: parserName, Field: "date", Value: tokens[0], Err: parsererror.ErrInvalidDate}
	}
	return date, tokens[1:], nil
}

// trailingAmount finds the amount at the end of tokens, trying
// "<amount><currency>", then "<currency><amount>", then a bare amount. Each
// pair may be written with or without a space.
func trailingAmount(tokens []string) (decimal.Decimal, string, []string, bool) {
	n := len(tokens)
	last := tokens[n-1]

	// <amount><currency>
	if m := amountCurrency.FindStringSubmatch(last); m != nil {
		if code, ok := currencyutils.NormalizeCurrency(m[2]); ok {
			if amount, err := currencyutils.ParseMoney2(m[1]); err == nil {
				return amount, code, tokens[:n-1], true
			}
		}
	}
	if n >= 2 && amountToken.MatchString(tokens[n-2]) {
		if code, ok := currencyutils.NormalizeCurrency(last); ok {
			if amount, err := currencyutils.ParseMoney2(tokens[n-2]); err == nil {
				return amount, code, tokens[:n-2], true
			}
		}
	}

	// <currency><amount>
	if m := currencyAmount.FindStringSubmatch(last); m != nil {
		if code, ok := currencyutils.NormalizeCurrency(m[1]); ok {
			if amount, err := currencyutils.ParseMoney2(m[2]); err == nil {
				return amount, code, tokens[:n-1], true
			}
		}
	}
	if n >= 2 && amountToken.MatchString(last) {
		if code, ok := currencyutils.NormalizeCurrency(tokens[n-2]); ok {
			if amount, err := currencyutils.ParseMoney2(last); err == nil {
				return amount, code, tokens[:n-2], true
			}
		}
	}

	// <amount>
	if amountToken.MatchString(last) {
		if amount, err := currencyutils.ParseMoney2(last); err == nil {
			return amount, "", tokens[:n-1], true
		}
	}
	return decimal.Zero, "", nil, false
}

func (p *Parser) splitPayee(tokens []string) (description, payee string, inferred bool) {
	rest := strings.Join(tokens, " ")
	if before, after, found := strings.Cut(rest, "@"); found {
		description = strings.TrimSpace(before)
		payee = strings.TrimSpace(after)
		if payee == "" {
			payee = p.defaultPayee()
		}
		if description == "" && strings.TrimSpace(after) != "" {
			description = payee
		}
		return description, payee, false
	}

	switch len(tokens) {
	case 0:
		return "", "", false
	case 1:
		return tokens[0], p.defaultPayee(), false
	default:
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1], len(tokens) >= 3
	}
}

func (p *Parser) defaultCurrency() string {
	if p.DefaultCurrency != "" {
		return strings.ToUpper(p.DefaultCurrency)
	}
	return models.DefaultCurrency
}

func (p *Parser) defaultPayee() string {
	if p.DefaultPayee != "" {
		return p.DefaultPayee
	}
	return models.DefaultPayee
}
