package main

import (
	"fmt"
	"os"

	"fjacquet/receipt-ledger/cmd/batch"
	"fjacquet/receipt-ledger/cmd/categorize"
	"fjacquet/receipt-ledger/cmd/export"
	"fjacquet/receipt-ledger/cmd/migrate"
	"fjacquet/receipt-ledger/cmd/newentry"
	"fjacquet/receipt-ledger/cmd/parse"
	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/cmd/segment"
	"fjacquet/receipt-ledger/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(newentry.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(segment.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(migrate.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
