package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const (
	insertEntryQuery = `
		INSERT INTO ledger_entries (id, entry_date, payee, currency, business, raw_text, memo, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	insertPostingQuery = `
		INSERT INTO ledger_postings (entry_id, line_no, account, amount, currency)
		VALUES ($1, $2, $3, $4, $5)
	`

	getEntryQuery = `
		SELECT id, entry_date, payee, currency, business, raw_text, memo, image_url, created_at
		FROM ledger_entries
		WHERE id = $1
	`

	getPostingsQuery = `
		SELECT account, amount::text, currency
		FROM ledger_postings
		WHERE entry_id = $1
		ORDER BY line_no
	`

	listRowsQuery = `
		SELECT e.id::text, p.line_no, to_char(e.entry_date, 'YYYY-MM-DD'), e.payee, p.account, p.amount::text, p.currency
		FROM ledger_postings p
		JOIN ledger_entries e ON e.id = p.entry_id
		ORDER BY e.entry_date, e.created_at, p.line_no
	`
)

// PostgresRepository stores entries in PostgreSQL.
type PostgresRepository struct {
	pgpool PgxPool
	logger logging.Logger
}

// NewPostgresRepository creates a repository over an existing pool.
func NewPostgresRepository(pgpool PgxPool, logger logging.Logger) *PostgresRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PostgresRepository{pgpool: pgpool, logger: logger}
}

// OpenPostgres connects a pool to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgresRepository(pool, logger), nil
}

// Save inserts the header and every posting in one transaction. A failed
// posting insert rolls the header back.
func (r *PostgresRepository) Save(ctx context.Context, e models.LedgerEntry) (err error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.WithError(rbErr).Warn("Failed to roll back entry",
				logging.F(logging.FieldEntryID, e.ID.String()))
		}
	}()

	if _, err = tx.Exec(ctx, insertEntryQuery,
		e.ID, e.Date, e.Payee, e.Currency, e.Business, e.Text, e.Memo, e.ImageURL, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert entry header: %w", err)
	}

	for i, p := range e.Postings {
		currency := p.Currency
		if currency == "" {
			currency = e.Currency
		}
		if _, err = tx.Exec(ctx, insertPostingQuery,
			e.ID, i+1, p.Account.String(), p.Amount.StringFixed(2), currency,
		); err != nil {
			return fmt.Errorf("failed to insert posting %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	r.logger.Debug("Entry saved",
		logging.F(logging.FieldEntryID, e.ID.String()),
		logging.F(logging.FieldCount, len(e.Postings)))
	return nil
}

// Get returns one entry with its postings.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.pgpool.QueryRow(ctx, getEntryQuery, id).Scan(
		&e.ID, &e.Date, &e.Payee, &e.Currency, &e.Business, &e.Text, &e.Memo, &e.ImageURL, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %s: %w", id, err)
	}

	rows, err := r.pgpool.Query(ctx, getPostingsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load postings of %s: %w", id, err)
	}
	postings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Posting, error) {
		var (
			p       models.Posting
			account string
			amount  string
		)
		if err := row.Scan(&account, &amount, &p.Currency); err != nil {
			return p, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return p, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		p.Account = models.AccountPath(account)
		p.Amount = value
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read postings of %s: %w", id, err)
	}
	e.Postings = postings
	return &e, nil
}

// ListRows returns all posting rows.
func (r *PostgresRepository) ListRows(ctx context.Context) ([]models.PostingRow, error) {
	rows, err := r.pgpool.Query(ctx, listRowsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PostingRow, error) {
		var pr models.PostingRow
		err := row.Scan(&pr.EntryID, &pr.LineNo, &pr.Date, &pr.Payee, &pr.Account, &pr.Amount, &pr.Currency)
		return pr, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read postings: %w", err)
	}
	return result, nil
}

// Close releases the pool when it supports closing.
func (r *PostgresRepository) Close() error {
	if c, ok := r.pgpool.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
