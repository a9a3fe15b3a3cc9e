// Package entry runs the full ledger entry pipeline: parse or segment the
// input, validate it, map line items to accounts, build and balance the
// postings, render the entry and persist it.
package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/balance"
	"fjacquet/receipt-ledger/internal/commandparser"
	"fjacquet/receipt-ledger/internal/currencyutils"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/entryparser"
	"fjacquet/receipt-ledger/internal/journal"
	"fjacquet/receipt-ledger/internal/ledger"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/metrics"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/postings"
	"fjacquet/receipt-ledger/internal/segmenter"
	"fjacquet/receipt-ledger/internal/validation"
)

// Input forms, used as metric labels.
const (
	InputCommand = "command"
	InputReceipt = "receipt"
	InputPayload = "payload"
)

// ReceiptSegmenter isolates items and summary values in OCR text.
type ReceiptSegmenter interface {
	Segment(ctx context.Context, text string) *segmenter.Result
}

// Config holds the ledger defaults of the pipeline.
type Config struct {
	DefaultCurrency  string
	DefaultPayee     string
	PaymentAccount   models.AccountPath
	IncludeTaxLine   bool
	// BalanceThreshold is the largest difference the auto-balancer absorbs.
	// Unset means balance.DefaultThreshold; a set zero means exact balance.
	BalanceThreshold decimal.NullDecimal
}

// Options are caller-supplied values for command and receipt input. Empty
// fields fall back to what the input or the configuration provides.
type Options struct {
	Date           time.Time
	Payee          string
	Vendor         string
	Business       string
	User           string
	Currency       string
	PaymentAccount string
	Memo           *string
	ImageURL       *string
}

// Result is a created entry.
type Result struct {
	Entry         models.LedgerEntry  `json:"entry"`
	Rows          []models.PostingRow `json:"rows"`
	Segmentation  *segmenter.Result   `json:"segmentation,omitempty"`
	PayeeInferred bool                `json:"payee_inferred,omitempty"`
	Persisted     bool                `json:"persisted"`
}

// Service creates ledger entries.
type Service struct {
	config    Config
	mapper    postings.AccountMapper
	segmenter ReceiptSegmenter
	repo      journal.Repository
	parser    *commandparser.Parser
	logger    logging.Logger
	now       func() time.Time
}

// NewService creates a Service. repo may be nil, in which case entries are
// built but not stored.
func NewService(config Config, mapper postings.AccountMapper, seg ReceiptSegmenter, repo journal.Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = models.DefaultCurrency
	}
	if config.DefaultPayee == "" {
		config.DefaultPayee = models.DefaultPayee
	}
	if config.PaymentAccount == "" {
		config.PaymentAccount = models.DefaultPaymentAccount
	}
	if !config.BalanceThreshold.Valid {
		config.BalanceThreshold = decimal.NewNullDecimal(balance.DefaultThreshold)
	}
	if seg == nil {
		seg = segmenter.New(logger)
	}
	s := &Service{
		config:    config,
		mapper:    mapper,
		segmenter: seg,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
	}
	s.parser = &commandparser.Parser{
		DefaultCurrency: config.DefaultCurrency,
		DefaultPayee:    config.DefaultPayee,
		Now:             func() time.Time { return s.now() },
	}
	return s
}

// SetClock replaces the clock used for default dates and timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// draft is a validated receipt with its entry header values.
type draft struct {
	input          string
	date           time.Time
	payee          string
	currency       string
	paymentAccount models.AccountPath
	receipt        models.Receipt
	vendor         string
	business       string
	user           string
	memo           *string
	imageURL       *string
}

// FromCommand creates an entry from a "new ..." command such as
// "coffee starbucks 150".
func (s *Service) FromCommand(ctx context.Context, text string, opts Options) (*Result, error) {
	start := time.Now()
	parsed, err := s.parser.Parse(commandparser.StripCommand(text))
	if err != nil {
		metrics.ObserveEntry(InputCommand, start, err)
		return nil, err
	}
	if parsed.PayeeInferred {
		s.logger.Info("Payee inferred from last word",
			logging.F(logging.FieldPayee, parsed.Payee),
			logging.F(logging.FieldDescription, parsed.Description))
	}

	d := s.draftFrom(InputCommand, opts)
	d.receipt = parsed.Receipt
	if opts.Date.IsZero() {
		d.date = parsed.Date
	}
	if opts.Payee == "" {
		d.payee = parsed.Payee
	}
	if opts.Currency == "" {
		d.currency = parsed.Currency
	}
	if d.vendor == "" && d.payee != s.config.DefaultPayee {
		d.vendor = d.payee
	}

	result, err := s.create(ctx, d)
	metrics.ObserveEntry(InputCommand, start, err)
	if err != nil {
		return nil, err
	}
	result.PayeeInferred = parsed.PayeeInferred
	return result, nil
}

// FromReceiptText creates an entry from OCR'd receipt text.
func (s *Service) FromReceiptText(ctx context.Context, text string, opts Options) (*Result, error) {
	start := time.Now()
	seg := s.segmenter.Segment(ctx, text)
	s.logger.Debug("Receipt segmented",
		logging.F(logging.FieldSource, seg.Source),
		logging.F(logging.FieldCount, len(seg.Items)),
		logging.F(logging.FieldConfidence, seg.Confidence))

	d := s.draftFrom(InputReceipt, opts)
	d.receipt = seg.Receipt()
	if d.vendor == "" && d.payee != s.config.DefaultPayee {
		d.vendor = d.payee
	}

	result, err := s.create(ctx, d)
	metrics.ObserveEntry(InputReceipt, start, err)
	if err != nil {
		return nil, err
	}
	result.Segmentation = seg
	return result, nil
}

// FromPayload creates an entry from a structured payload.
func (s *Service) FromPayload(ctx context.Context, p models.EntryPayload) (*Result, error) {
	start := time.Now()
	result, err := s.fromPayload(ctx, p)
	metrics.ObserveEntry(InputPayload, start, err)
	return result, err
}

func (s *Service) fromPayload(ctx context.Context, p models.EntryPayload) (*Result, error) {
	if err := validation.ValidatePayload(p); err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(dateutils.DateLayoutISO, p.Date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", p.Date, err)
	}
	d := s.draftFrom(InputPayload, Options{
		Date:           date,
		Payee:          p.Payee,
		Vendor:         p.Vendor,
		Business:       p.Business,
		Currency:       p.Currency,
		PaymentAccount: p.PaymentAccount,
		Memo:           p.Memo,
		ImageURL:       p.ImageURL,
	})
	d.receipt = p.Receipt
	if d.vendor == "" && d.payee != s.config.DefaultPayee {
		d.vendor = d.payee
	}
	return s.create(ctx, d)
}

// ParseText parses a rendered or hand-written ledger entry.
func (s *Service) ParseText(text string) (*entryparser.ParsedEntry, error) {
	return entryparser.ParseEntry(text)
}

func (s *Service) draftFrom(input string, opts Options) draft {
	d := draft{
		input:          input,
		date:           opts.Date,
		payee:          strings.TrimSpace(opts.Payee),
		currency:       s.config.DefaultCurrency,
		paymentAccount: s.config.PaymentAccount,
		vendor:         strings.TrimSpace(opts.Vendor),
		business:       strings.TrimSpace(opts.Business),
		user:           opts.User,
		memo:           opts.Memo,
		imageURL:       opts.ImageURL,
	}
	if d.date.IsZero() {
		d.date = dateutils.LocalDate(s.now())
	}
	if d.payee == "" {
		d.payee = s.config.DefaultPayee
	}
	if code, ok := currencyutils.CurrencyCode(opts.Currency); ok {
		d.currency = code
	}
	if opts.PaymentAccount != "" {
		d.paymentAccount = models.AccountPath(opts.PaymentAccount)
	}
	if d.business == "" {
		d.business = models.DefaultBusiness
	}
	return d
}

// create validates, builds, balances, renders and persists one entry.
func (s *Service) create(ctx context.Context, d draft) (*Result, error) {
	logger := s.logger.WithFields(
		logging.F(logging.FieldOperation, d.input),
		logging.F(logging.FieldPayee, d.payee))

	if err := validation.ValidateReceipt(d.receipt); err != nil {
		logger.WithError(err).Info("Receipt rejected")
		return nil, err
	}
	if err := validation.ValidateAccount(d.paymentAccount); err != nil {
		return nil, err
	}

	built, err := postings.Build(ctx, d.receipt, postings.Options{
		Currency:       d.currency,
		PaymentAccount: d.paymentAccount,
		IncludeTaxLine: s.config.IncludeTaxLine,
		Mapper:         s.mapper,
		Vendor:         d.vendor,
		Business:       d.business,
		User:           d.user,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build postings: %w", err)
	}

	balanced, err := balance.AutoBalanceAccount(built, d.paymentAccount, s.config.BalanceThreshold.Decimal)
	if err != nil {
		logger.WithError(err).Info("Entry out of balance")
		return nil, err
	}
	if err := validation.ValidatePostings(balanced); err != nil {
		return nil, err
	}
	if err := ledger.AssertBalanced(balanced); err != nil {
		return nil, err
	}

	e := models.LedgerEntry{
		ID:        uuid.New(),
		Date:      d.date,
		Payee:     d.payee,
		Currency:  d.currency,
		Business:  d.business,
		Postings:  balanced,
		Memo:      d.memo,
		ImageURL:  d.imageURL,
		CreatedAt: s.now().UTC(),
	}
	e.Text = ledger.RenderEntry(e)

	result := &Result{Entry: e, Rows: e.Rows()}
	if s.repo != nil {
		if err := s.repo.Save(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to persist entry: %w", err)
		}
		result.Persisted = true
	}

	logger.Info("Entry created",
		logging.F(logging.FieldEntryID, e.ID.String()),
		logging.F(logging.FieldCount, len(e.Postings)),
		logging.F(logging.FieldCurrency, e.Currency))
	return result, nil
}
