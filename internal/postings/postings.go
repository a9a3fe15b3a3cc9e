// Package postings turns a normalized receipt into balanced postings against
// a payment account.
package postings

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fjacquet/receipt-ledger/internal/categorizer"
	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/models"
)

// DefaultConcurrency bounds the parallel account mappings of one receipt.
const DefaultConcurrency = 4

// AccountMapper resolves one line item to an account.
type AccountMapper interface {
	MapAccount(ctx context.Context, description string, opts categorizer.Options) models.MappingResult
}

// Options controls posting construction.
type Options struct {
	Currency       string
	PaymentAccount models.AccountPath
	IncludeTaxLine bool
	Mapper         AccountMapper
	Vendor         string
	Business       string
	User           string
	// Concurrency limits parallel mapper calls; zero means DefaultConcurrency.
	Concurrency int
}

// Build maps every item (in parallel) to an expense posting, appends a tax
// posting when requested and closes with the payment posting for
// -(total ?? subtotal ?? sum of postings). Without a tax line the tax is
// folded into the largest item posting so the entry still balances.
func Build(ctx context.Context, receipt models.Receipt, opts Options) ([]models.Posting, error) {
	if len(receipt.Items) == 0 {
		return nil, errors.New("receipt has no items")
	}
	if opts.Mapper == nil {
		return nil, errors.New("no account mapper configured")
	}
	if opts.Currency == "" {
		opts.Currency = models.DefaultCurrency
	}
	if opts.PaymentAccount == "" {
		opts.PaymentAccount = models.DefaultPaymentAccount
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	mapOpts := categorizer.Options{Vendor: opts.Vendor, Business: opts.Business, User: opts.User}
	postings := make([]models.Posting, len(receipt.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range receipt.Items {
		g.Go(func() error {
			result := opts.Mapper.MapAccount(gctx, item.Description, mapOpts)
			postings[i] = models.Posting{
				Account:  result.Account,
				Amount:   currencyutils.Round2(item.Price),
				Currency: opts.Currency,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building postings: %w", err)
	}

	tax := currencyutils.Round2(receipt.TaxOrZero())
	if tax.IsPositive() {
		if opts.IncludeTaxLine {
			result := opts.Mapper.MapAccount(ctx, models.TaxDescription, mapOpts)
			postings = append(postings, models.Posting{Account: result.Account, Amount: tax, Currency: opts.Currency})
		} else {
			largest := 0
			for i := range postings {
				if postings[i].Amount.GreaterThan(postings[largest].Amount) {
					largest = i
				}
			}
			postings[largest].Amount = postings[largest].Amount.Add(tax)
		}
	}

	var total decimal.Decimal
	switch {
	case receipt.Total.Valid:
		total = receipt.Total.Decimal
	case receipt.Subtotal.Valid:
		total = receipt.Subtotal.Decimal.Add(tax)
	default:
		total = models.SumAmounts(postings)
	}

	postings = append(postings, models.Posting{
		Account:  opts.PaymentAccount,
		Amount:   currencyutils.Round2(total).Neg(),
		Currency: opts.Currency,
	})
	return postings, nil
}
