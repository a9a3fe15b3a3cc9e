// Package export handles the export command
package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/common"
	"fjacquet/receipt-ledger/internal/validation"
)

var (
	outputFile string
	format     string
	delimiter  string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored posting rows as CSV, JSON or ledger text",
	Long:  `Export every posting row of the journal, ordered by entry date, to a file or stdout.`,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	Cmd.Flags().StringVarP(&format, "format", "f", common.FormatCSV, "Output format (csv, json, ledger)")
	Cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV delimiter")
}

func run(cmd *cobra.Command, args []string) error {
	if err := validation.IsValidOutputFormat(format); err != nil {
		return err
	}
	delim := []rune(delimiter)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}

	ctx := root.Context(cmd)
	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	repo := c.GetJournal()
	if repo == nil {
		return fmt.Errorf("no journal store configured (set store.driver to bolt or postgres)")
	}
	rows, err := repo.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list posting rows: %w", err)
	}

	if outputFile == "" {
		return common.WritePostingRows(cmd.OutOrStdout(), rows, format, delim[0])
	}
	return common.ExportPostingRows(outputFile, rows, format, delim[0], root.Log)
}
