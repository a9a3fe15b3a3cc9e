package journal

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

func sampleEntry() models.LedgerEntry {
	return models.LedgerEntry{
		ID:       uuid.MustParse("2b1f6c2e-8a0e-4f5b-9a59-3f9c1c1d2e01"),
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Payee:    "starbucks",
		Currency: "THB",
		Business: "Personal",
		Postings: []models.Posting{
			{Account: "Expenses:Personal:Food:Coffee", Amount: decimal.RequireFromString("150"), Currency: "THB"},
			{Account: "Assets:Cash", Amount: decimal.RequireFromString("-150"), Currency: "THB"},
		},
		Text:      "2024/03/01 starbucks\n",
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestPostgresRepository_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := sampleEntry()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEntryQuery)).
		WithArgs(e.ID, pgxmock.AnyArg(), "starbucks", "THB", "Personal", e.Text, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertPostingQuery)).
		WithArgs(e.ID, 1, "Expenses:Personal:Food:Coffee", "150.00", "THB").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertPostingQuery)).
		WithArgs(e.ID, 2, "Assets:Cash", "-150.00", "THB").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(mock, logging.NewMockLogger())
	require.NoError(t, repo.Save(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Save_RollsBackHeaderOnPostingFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := sampleEntry()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEntryQuery)).
		WithArgs(e.ID, pgxmock.AnyArg(), "starbucks", "THB", "Personal", e.Text, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertPostingQuery)).
		WithArgs(e.ID, 1, "Expenses:Personal:Food:Coffee", "150.00", "THB").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	repo := NewPostgresRepository(mock, nil)
	err = repo.Save(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert posting 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Save_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err = NewPostgresRepository(mock, nil).Save(context.Background(), sampleEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := sampleEntry()
	memo := "team coffee"
	mock.ExpectQuery(regexp.QuoteMeta(getEntryQuery)).
		WithArgs(e.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "entry_date", "payee", "currency", "business", "raw_text", "memo", "image_url", "created_at"}).
			AddRow(e.ID, e.Date, e.Payee, e.Currency, e.Business, e.Text, &memo, (*string)(nil), e.CreatedAt))
	mock.ExpectQuery(regexp.QuoteMeta(getPostingsQuery)).
		WithArgs(e.ID).
		WillReturnRows(pgxmock.NewRows([]string{"account", "amount", "currency"}).
			AddRow("Expenses:Personal:Food:Coffee", "150.00", "THB").
			AddRow("Assets:Cash", "-150.00", "THB"))

	got, err := NewPostgresRepository(mock, nil).Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "starbucks", got.Payee)
	require.NotNil(t, got.Memo)
	assert.Equal(t, "team coffee", *got.Memo)
	assert.Nil(t, got.ImageURL)
	require.Len(t, got.Postings, 2)
	assert.Equal(t, models.AccountPath("Assets:Cash"), got.Postings[1].Account)
	assert.True(t, decimal.RequireFromString("-150").Equal(got.Postings[1].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(getEntryQuery)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "entry_date", "payee", "currency", "business", "raw_text", "memo", "image_url", "created_at"}))

	_, err = NewPostgresRepository(mock, nil).Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listRowsQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "line_no", "entry_date", "payee", "account", "amount", "currency"}).
			AddRow("2b1f6c2e-8a0e-4f5b-9a59-3f9c1c1d2e01", 1, "2024-03-01", "starbucks", "Expenses:Personal:Food:Coffee", "150.00", "THB").
			AddRow("2b1f6c2e-8a0e-4f5b-9a59-3f9c1c1d2e01", 2, "2024-03-01", "starbucks", "Assets:Cash", "-150.00", "THB"))

	rows, err := NewPostgresRepository(mock, nil).ListRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sampleEntry().Rows(), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
