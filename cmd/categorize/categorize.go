// Package categorize handles account mapping commands
package categorize

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/common"
	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/categorizer"
	"fjacquet/receipt-ledger/internal/models"
)

var (
	vendor   string
	business string
	user     string
	learn    string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:     "categorize <description>",
	Aliases: []string{"classify"},
	Short:   "Show which account a line item maps to",
	Long: `Resolve a line item description to an account and show every mapping
strategy that was tried. With --learn the given account is saved as the
user's override for this description.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor of the receipt")
	Cmd.Flags().StringVarP(&business, "business", "b", "", "Business the expense belongs to")
	Cmd.Flags().StringVarP(&user, "user", "u", "", "User whose overrides apply")
	Cmd.Flags().StringVarP(&learn, "learn", "l", "", "Save this account as an override for the description")
}

func run(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	ctx := root.Context(cmd)
	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	mapper := c.GetMapper()
	w := cmd.OutOrStdout()

	if learn != "" {
		if err := mapper.LearnOverride(user, description, models.AccountPath(learn)); err != nil {
			common.PrintError(w, err)
			return err
		}
		fmt.Fprintf(w, "learned %q -> %s\n", description, learn)
	}

	result, attempts := mapper.Explain(ctx, description, categorizer.Options{Vendor: vendor, Business: business, User: user})
	common.PrintMapping(w, description, result, attempts)

	detected, confidence := categorizer.DetectAccountType(description)
	fmt.Fprintf(w, "%-12s %s (%.2f)\n", "type", detected, confidence)
	return nil
}
