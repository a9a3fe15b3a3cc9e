// Package common contains shared functionality for command handlers
package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"fjacquet/receipt-ledger/internal/batch"
	"fjacquet/receipt-ledger/internal/categorizer"
	"fjacquet/receipt-ledger/internal/entry"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/parsererror"
	"fjacquet/receipt-ledger/internal/segmenter"
)

var (
	headerc  = color.New(color.BgGreen, color.FgBlack)
	warnc    = color.New(color.BgYellow, color.FgBlack)
	errc     = color.New(color.BgRed, color.FgWhite)
	fieldc   = color.New(color.FgYellow)
	accountc = color.New(color.FgCyan)
)

// EntryCreator is the part of entry.Service used by the new command.
type EntryCreator interface {
	FromCommand(ctx context.Context, text string, opts entry.Options) (*entry.Result, error)
	FromReceiptText(ctx context.Context, text string, opts entry.Options) (*entry.Result, error)
}

// CreateEntry creates an entry from command text, or from OCR text when
// receipt is true, and prints it.
func CreateEntry(ctx context.Context, creator EntryCreator, text string, receipt bool, opts entry.Options, w io.Writer) error {
	var (
		result *entry.Result
		err    error
	)
	if receipt {
		result, err = creator.FromReceiptText(ctx, text, opts)
	} else {
		result, err = creator.FromCommand(ctx, text, opts)
	}
	if err != nil {
		PrintError(w, err)
		return err
	}
	PrintEntry(w, result)
	return nil
}

// ReadInput returns args joined by spaces, or the content of file when set
// ("-" reads in).
func ReadInput(args []string, file string, in io.Reader) (string, error) {
	if file == "" {
		return strings.Join(args, " "), nil
	}
	if file == "-" {
		data, err := io.ReadAll(bufio.NewReader(in))
		if err != nil {
			return "", fmt.Errorf("error reading input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return "", fmt.Errorf("error reading input file: %w", err)
	}
	return string(data), nil
}

// PrintEntry prints a created entry with its id and storage status.
func PrintEntry(w io.Writer, result *entry.Result) {
	headerc.Fprintf(w, " %s ", result.Entry.ID.String())
	if result.Persisted {
		fmt.Fprint(w, " saved")
	}
	fmt.Fprintln(w)
	if result.PayeeInferred {
		warnc.Fprintf(w, " payee %q guessed from the last word; use \"@ payee\" to be explicit ", result.Entry.Payee)
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, result.Entry.Text)
}

// PrintError prints err; validation failures are listed per field.
func PrintError(w io.Writer, err error) {
	var verr *parsererror.ValidationError
	if errors.As(err, &verr) {
		errc.Fprintf(w, " invalid %s ", verr.Subject)
		fmt.Fprintln(w)
		for _, fe := range verr.Errors {
			fieldc.Fprintf(w, "  %s", fe.Field)
			fmt.Fprintf(w, ": %s\n", fe.Message)
		}
		return
	}
	errc.Fprintf(w, " error ")
	fmt.Fprintf(w, " %v\n", err)
}

// PrintMapping prints the chosen account and every strategy attempt.
func PrintMapping(w io.Writer, description string, result models.MappingResult, attempts categorizer.StrategyResults) {
	fmt.Fprintf(w, "%-12s %s\n", "description", description)
	fmt.Fprintf(w, "%-12s ", "account")
	accountc.Fprintf(w, "%s", result.Account)
	fmt.Fprintf(w, " (%s, %s, %.2f)\n", result.AccountType, result.Source, result.Confidence)
	fmt.Fprintf(w, "%-12s %s\n", "chain", attempts.Summary())
}

// PrintSegmentation prints the items and summary values found in a receipt.
func PrintSegmentation(w io.Writer, result *segmenter.Result) {
	headerc.Fprintf(w, " %s %.2f ", result.Source, result.Confidence)
	fmt.Fprintln(w)
	for _, item := range result.Items {
		fmt.Fprintf(w, "  %-40s %10s\n", item.Description, item.Price.StringFixed(2))
	}
	printSummary(w, "subtotal", result.Subtotal.Valid, result.Subtotal.Decimal.StringFixed(2))
	printSummary(w, "tax", result.Tax.Valid, result.Tax.Decimal.StringFixed(2))
	printSummary(w, "total", result.Total.Valid, result.Total.Decimal.StringFixed(2))
}

func printSummary(w io.Writer, label string, valid bool, value string) {
	if !valid {
		value = "-"
	}
	fmt.Fprintf(w, "  %-40s %10s\n", strings.ToUpper(label), value)
}

// PrintBatchSummary prints one line per imported file and the totals.
func PrintBatchSummary(w io.Writer, summary batch.Summary) {
	for _, r := range summary.Results {
		name := filepath.Base(r.File)
		if r.Err != nil {
			errc.Fprint(w, " fail ")
			fmt.Fprintf(w, " %-32s %v\n", name, r.Err)
			continue
		}
		headerc.Fprint(w, "  ok  ")
		fmt.Fprintf(w, " %-32s %s %10s\n", name, r.EntryID, r.Total.StringFixed(2))
	}
	fmt.Fprintf(w, "%d created, %d failed", summary.Created, summary.Failed)
	if dr := summary.DateRange.String(); dr != "" {
		fmt.Fprintf(w, " (%s)", dr)
	}
	fmt.Fprintln(w)
}
