// Package batch imports a directory of OCR'd receipt text files as ledger
// entries
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/entry"
	"fjacquet/receipt-ledger/internal/logging"
)

// ReceiptExtensions are the file extensions picked up from a directory.
var ReceiptExtensions = []string{".txt", ".ocr"}

// ReceiptCreator creates an entry from OCR'd receipt text.
type ReceiptCreator interface {
	FromReceiptText(ctx context.Context, text string, opts entry.Options) (*entry.Result, error)
}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format(dateutils.DateLayoutISO),
		dr.End.Format(dateutils.DateLayoutISO))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// ReceiptFile is a receipt text file with the header values read from its
// name.
type ReceiptFile struct {
	Path  string
	Date  time.Time
	Payee string
}

// ParseReceiptFileName reads "2024-03-01_big-mart.txt" as date 2024-03-01 and
// payee "big mart". Both parts are optional.
func ParseReceiptFileName(path string) ReceiptFile {
	f := ReceiptFile{Path: path}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if len(base) >= 10 {
		if date, err := time.ParseInLocation(dateutils.DateLayoutISO, base[:10], time.Local); err == nil {
			f.Date = date
			base = strings.TrimLeft(base[10:], "_- ")
		}
	}
	f.Payee = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	return f
}

// FileResult is the outcome of importing one file.
type FileResult struct {
	File    string
	EntryID string
	Total   decimal.Decimal
	Err     error
}

// Summary is the outcome of an import run.
type Summary struct {
	Results   []FileResult
	Created   int
	Failed    int
	DateRange DateRange
}

// Importer creates one entry per receipt file.
type Importer struct {
	creator ReceiptCreator
	logger  logging.Logger
}

// NewImporter creates a new Importer instance
func NewImporter(creator ReceiptCreator, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Importer{creator: creator, logger: logger}
}

// ListReceiptFiles returns the receipt files of dir in name order.
func ListReceiptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range ReceiptExtensions {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Import creates entries for files in chronological order. A failing file is
// recorded and the run continues. Values from the file name fill in date and
// payee when opts leaves them empty.
func (im *Importer) Import(ctx context.Context, files []string, opts entry.Options) Summary {
	receipts := make([]ReceiptFile, 0, len(files))
	for _, file := range files {
		receipts = append(receipts, ParseReceiptFileName(file))
	}
	sortChronologically(receipts)

	var summary Summary
	for _, rf := range receipts {
		if ctx.Err() != nil {
			summary.Results = append(summary.Results, FileResult{File: rf.Path, Err: ctx.Err()})
			summary.Failed++
			continue
		}
		result := im.importFile(ctx, rf, opts)
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
			continue
		}
		summary.Created++
		if !rf.Date.IsZero() {
			summary.DateRange = summary.DateRange.Merge(DateRange{Start: rf.Date, End: rf.Date})
		}
	}

	im.logger.Info("Imported receipt files",
		logging.F(logging.FieldCount, len(files)),
		logging.F("created", summary.Created),
		logging.F("failed", summary.Failed))
	return summary
}

func (im *Importer) importFile(ctx context.Context, rf ReceiptFile, opts entry.Options) FileResult {
	logger := im.logger.WithField(logging.FieldFile, filepath.Base(rf.Path))

	data, err := os.ReadFile(rf.Path) // #nosec G304 -- files come from a user-chosen directory
	if err != nil {
		logger.WithError(err).Error("Failed to read receipt file")
		return FileResult{File: rf.Path, Err: err}
	}

	if opts.Date.IsZero() {
		opts.Date = rf.Date
	}
	if opts.Payee == "" {
		opts.Payee = rf.Payee
	}

	result, err := im.creator.FromReceiptText(ctx, string(data), opts)
	if err != nil {
		logger.WithError(err).Warn("Receipt not imported")
		return FileResult{File: rf.Path, Err: err}
	}

	total := decimal.Zero
	for _, p := range result.Entry.Postings {
		if p.Amount.IsPositive() {
			total = total.Add(p.Amount)
		}
	}
	logger.Debug("Receipt imported", logging.F(logging.FieldEntryID, result.Entry.ID.String()))
	return FileResult{File: rf.Path, EntryID: result.Entry.ID.String(), Total: total}
}

// sortChronologically sorts by date, undated files last, then by path.
func sortChronologically(receipts []ReceiptFile) {
	sort.SliceStable(receipts, func(i, j int) bool {
		di, dj := receipts[i].Date, receipts[j].Date
		if di.IsZero() != dj.IsZero() {
			return dj.IsZero()
		}
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return receipts[i].Path < receipts[j].Path
	})
}
