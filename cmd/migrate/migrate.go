// Package migrate handles the migrate command
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/container"
	"fjacquet/receipt-ledger/internal/journal"
)

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:       "migrate [up|down|status|version|reset]",
	Short:     "Apply the PostgreSQL journal schema migrations",
	Long:      `Run goose migrations against store.dsn (or DATABASE_URL). Defaults to "up".`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down", "status", "version", "reset"},
	RunE:      run,
}

func run(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}
	cfg := root.AppConfig
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if cfg.Store.Driver != container.StorePostgres || cfg.Store.DSN == "" {
		return fmt.Errorf("migrations need store.driver=postgres and store.dsn")
	}
	return journal.Migrate(root.Context(cmd), cfg.Store.DSN, command, root.Log)
}
