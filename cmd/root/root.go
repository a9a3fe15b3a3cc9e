// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/receipt-ledger/internal/config"
	"fjacquet/receipt-ledger/internal/container"
	"fjacquet/receipt-ledger/internal/logging"
)

// CommonFlags represents the flags that are common to all commands
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the configuration loaded before any subcommand runs
	AppConfig *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "receipt-ledger",
		Short: "Turn receipts and quick notes into balanced ledger entries.",
		Long: `receipt-ledger builds double-entry ledger entries from "new ..." commands,
OCR'd receipt text or structured payloads. Line items are mapped to accounts
with user overrides, vendor and pattern tables, business defaults and optional AI help.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(Log)

			cfg, err := config.Load(SharedFlags.ConfigFile)
			if err != nil {
				return err
			}
			if SharedFlags.LogLevel != "" {
				cfg.Log.Level = SharedFlags.LogLevel
			}
			if SharedFlags.LogFormat != "" {
				cfg.Log.Format = SharedFlags.LogFormat
			}
			AppConfig = cfg
			Log = config.NewLogger(cfg)
			return nil
		},
	}

	// SharedFlags holds the persistent flag values
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.receipt-ledger, .receipt-ledger or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text, json)")
}

// NewContainer wires the application from AppConfig.
func NewContainer(ctx context.Context) (*container.Container, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return container.NewContainerWithLogger(ctx, AppConfig, Log)
}

// Context returns the command context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
