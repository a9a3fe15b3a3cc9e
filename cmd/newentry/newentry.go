// Package newentry handles the new command
package newentry

import (
	"time"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/common"
	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/entry"
)

// Flags holds the new command flag values
type Flags struct {
	ReceiptFile    string
	Date           string
	Payee          string
	Vendor         string
	Business       string
	User           string
	Currency       string
	PaymentAccount string
	Memo           string
}

var flags Flags

// Cmd represents the new command
var Cmd = &cobra.Command{
	Use:   "new [description] [payee] <amount>",
	Short: "Create a ledger entry from a quick note or receipt text",
	Long: `Create a balanced ledger entry.

  receipt-ledger new coffee starbucks 150
  receipt-ledger new 2024-03-01 lunch @ Pizza Hut 200 THB
  receipt-ledger new --receipt scan.txt --payee "Big Mart"

With --receipt the file holds OCR'd receipt text ("-" reads stdin).`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&flags.ReceiptFile, "receipt", "r", "", "File with OCR'd receipt text")
	Cmd.Flags().StringVarP(&flags.Date, "date", "d", "", "Entry date (YYYY-MM-DD)")
	Cmd.Flags().StringVarP(&flags.Payee, "payee", "p", "", "Payee")
	Cmd.Flags().StringVar(&flags.Vendor, "vendor", "", "Vendor used for account mapping (default: payee)")
	Cmd.Flags().StringVarP(&flags.Business, "business", "b", "", "Business the expense belongs to")
	Cmd.Flags().StringVarP(&flags.User, "user", "u", "", "User whose overrides apply")
	Cmd.Flags().StringVar(&flags.Currency, "currency", "", "Currency code")
	Cmd.Flags().StringVarP(&flags.PaymentAccount, "account", "a", "", "Payment account")
	Cmd.Flags().StringVarP(&flags.Memo, "memo", "m", "", "Memo stored with the entry")
}

// Options converts the flag values into entry options.
func (f Flags) Options() (entry.Options, error) {
	opts := entry.Options{
		Payee:          f.Payee,
		Vendor:         f.Vendor,
		Business:       f.Business,
		User:           f.User,
		Currency:       f.Currency,
		PaymentAccount: f.PaymentAccount,
	}
	if f.Memo != "" {
		memo := f.Memo
		opts.Memo = &memo
	}
	if f.Date != "" {
		date, err := time.ParseInLocation(dateutils.DateLayoutISO, f.Date, time.Local)
		if err != nil {
			return opts, err
		}
		opts.Date = date
	}
	return opts, nil
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := flags.Options()
	if err != nil {
		return err
	}
	text, err := common.ReadInput(args, flags.ReceiptFile, cmd.InOrStdin())
	if err != nil {
		return err
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

	return common.CreateEntry(ctx, c.GetService(), text, flags.ReceiptFile != "", opts, cmd.OutOrStdout())
}
