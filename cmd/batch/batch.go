// Package batch handles batch import of receipt files
package batch

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/common"
	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/batch"
	"fjacquet/receipt-ledger/internal/entry"
)

// Flags holds the batch command flag values
type Flags struct {
	InputDir       string
	Business       string
	User           string
	Currency       string
	PaymentAccount string
}

var flags Flags

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Import a directory of OCR'd receipts",
	Long: `Import every receipt text file (*.txt, *.ocr) in a directory as one ledger entry each.

Files named YYYY-MM-DD_payee-name.txt supply the entry date and payee. A file
that cannot be turned into a balanced entry is reported and skipped.

Example:
  receipt-ledger batch -i scans/ --business MyBrick`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&flags.InputDir, "input-dir", "i", "", "Directory with receipt text files")
	Cmd.Flags().StringVarP(&flags.Business, "business", "b", "", "Business the expenses belong to")
	Cmd.Flags().StringVarP(&flags.User, "user", "u", "", "User whose overrides apply")
	Cmd.Flags().StringVar(&flags.Currency, "currency", "", "Currency code")
	Cmd.Flags().StringVarP(&flags.PaymentAccount, "account", "a", "", "Payment account")
	_ = Cmd.MarkFlagRequired("input-dir")
}

// Options converts the flag values into entry options.
func (f Flags) Options() entry.Options {
	return entry.Options{
		Business:       f.Business,
		User:           f.User,
		Currency:       f.Currency,
		PaymentAccount: f.PaymentAccount,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	files, err := batch.ListReceiptFiles(flags.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no receipt files in %s", flags.InputDir)
	}

	ctx := root.Context(cmd)
	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close resources")
		}
	}()

	summary := batch.NewImporter(c.GetService(), c.GetLogger()).Import(ctx, files, flags.Options())
	common.PrintBatchSummary(cmd.OutOrStdout(), summary)

	if summary.Created == 0 {
		return errors.New("no receipts imported")
	}
	return nil
}
