// Package segment handles the segment command
package segment

import (
	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/common"
	"fjacquet/receipt-ledger/cmd/root"
)

var inputFile string

// Cmd represents the segment command
var Cmd = &cobra.Command{
	Use:   "segment",
	Short: "Find the items and totals in OCR'd receipt text",
	Long: `Segment OCR'd receipt text into item lines and summary values without
creating an entry. Uses the AI segmenter first when it is enabled.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "-", "Receipt text file (\"-\" for stdin)")
}

func run(cmd *cobra.Command, args []string) error {
	text, err := common.ReadInput(nil, inputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := root.Context(cmd)
	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	common.PrintSegmentation(cmd.OutOrStdout(), c.GetSegmenter().Segment(ctx, text))
	return nil
}
