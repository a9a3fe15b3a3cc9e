// Package common provides posting-row import and export shared by the CLI
// and the HTTP API.
package common

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/ledger"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

// Output formats for posting rows.
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatLedger = "ledger"
)

// DefaultDelimiter is the CSV field separator.
const DefaultDelimiter = ','

// ReadCSVFile reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSVFile[TCSVRow any](filePath string, logger logging.Logger) ([]TCSVRow, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Info("Reading CSV file", logging.F(logging.FieldFile, filePath))

	file, err := os.Open(filePath) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var rows []TCSVRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	logger.Info("Successfully read CSV data", logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// WritePostingRowsCSV writes rows with a header line using delimiter. A zero
// delimiter means DefaultDelimiter.
func WritePostingRowsCSV(w io.Writer, rows []models.PostingRow, delimiter rune) error {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	if rows == nil {
		rows = []models.PostingRow{}
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// ReadPostingRowsCSV reads rows written by WritePostingRowsCSV.
func ReadPostingRowsCSV(r io.Reader, delimiter rune) ([]models.PostingRow, error) {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter

	var rows []models.PostingRow
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// WritePostingRowsJSON writes rows as an indented JSON array.
func WritePostingRowsJSON(w io.Writer, rows []models.PostingRow) error {
	if rows == nil {
		rows = []models.PostingRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WritePostingRowsLedger renders rows back into ledger entries. Consecutive
// rows with the same entry id form one entry; entries are separated by a
// blank line.
func WritePostingRowsLedger(w io.Writer, rows []models.PostingRow) error {
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].EntryID == rows[start].EntryID {
			end++
		}

		postings := make([]models.Posting, 0, end-start)
		for _, row := range rows[start:end] {
			amount, err := decimal.NewFromString(row.Amount)
			if err != nil {
				return fmt.Errorf("entry %s line %d: invalid amount %q: %w", row.EntryID, row.LineNo, row.Amount, err)
			}
			postings = append(postings, models.Posting{
				Account:  models.AccountPath(row.Account),
				Amount:   amount,
				Currency: row.Currency,
			})
		}

		if start > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		head := rows[start]
		if _, err := io.WriteString(w, ledger.RenderLedger(head.Date, head.Payee, postings, head.Currency)); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// WritePostingRows writes rows in format ("csv", "json" or "ledger").
func WritePostingRows(w io.Writer, rows []models.PostingRow, format string, delimiter rune) error {
	switch format {
	case FormatCSV, "":
		return WritePostingRowsCSV(w, rows, delimiter)
	case FormatJSON:
		return WritePostingRowsJSON(w, rows)
	case FormatLedger:
		return WritePostingRowsLedger(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// ExportPostingRows writes rows to outputFile, creating its directory.
func ExportPostingRows(outputFile string, rows []models.PostingRow, format string, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Info("Writing posting rows",
		logging.F(logging.FieldFile, outputFile),
		logging.F(logging.FieldCount, len(rows)))

	if err := os.MkdirAll(filepath.Dir(outputFile), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionDataFile) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	if err := WritePostingRows(file, rows, format, delimiter); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}
	return nil
}
