// Package parse handles the parse command
package parse

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/common"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/entryparser"
)

var inputFile string

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a ledger entry and print its fields",
	Long:  `Parse a plain-text ledger entry (from --input or stdin) into date, payee, accounts, amount, currency and business.`,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "-", "Ledger entry file (\"-\" for stdin)")
}

func run(cmd *cobra.Command, args []string) error {
	text, err := common.ReadInput(nil, inputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	parsed, err := entryparser.ParseEntry(text)
	if err != nil {
		common.PrintError(cmd.OutOrStdout(), err)
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %s\n", "date", parsed.Date.Format(dateutils.DateLayoutISO))
	fmt.Fprintf(w, "%-10s %s\n", "payee", parsed.Payee)
	fmt.Fprintf(w, "%-10s %s\n", "expense", parsed.ExpenseAccount)
	fmt.Fprintf(w, "%-10s %s\n", "asset", parsed.AssetAccount)
	fmt.Fprintf(w, "%-10s %s\n", "amount", parsed.Amount.StringFixed(2))
	fmt.Fprintf(w, "%-10s %s\n", "currency", parsed.Currency)
	fmt.Fprintf(w, "%-10s %s\n", "business", parsed.Business)
	return nil
}
