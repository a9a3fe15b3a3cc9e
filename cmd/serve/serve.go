// Package serve handles the serve command
package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/cmd/root"
	"fjacquet/receipt-ledger/internal/httpapi"
	"fjacquet/receipt-ledger/internal/logging"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the entry API over HTTP",
	Long:  `Serve POST /entries, /entries/command, /entries/receipt, /entries/parse, GET /entries/{id}, /entries/rows and /metrics.`,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(root.Context(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	listen := addr
	if listen == "" {
		listen = c.GetConfig().Server.Addr
	}
	logger := c.GetLogger()
	server := httpapi.NewServer(listen, httpapi.NewRouter(c.GetService(), c.GetJournal(), logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", logging.F("addr", listen))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
