package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hiace/internal/backend"
	"hiace/internal/config"
	"hiace/internal/log"
)

// RootOptions holds global flags and the state prepared before any command
// runs.
type RootOptions struct {
	EnvFile string

	Config *config.Config
	Logger *log.Logger

	// Factory overrides backend creation, used by tests.
	Factory backend.Factory
	// Now is the clock of the one-shot commands.
	Now func() time.Time
}

// NewRootCommand creates the hiace command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hiace",
		Short: "Ledger for a vehicle-for-hire business",
		Long: `hiace keeps the daily journal, cash balance, debts, recurring charges and
objectives of a single vehicle, and keeps every running copy in step over AMQP.

One-shot commands open the same store as the server. Run them against a
separate DATA_BACKEND or while the server is stopped.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadEnvFile(opts.EnvFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Logger = SetupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newAutomationsCommand(opts))
	cmd.AddCommand(newObjectivesCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

// withApp opens the ledger for a one-shot command and closes it afterwards.
func withApp(ctx context.Context, opts *RootOptions, fn func(*App) error) (err error) {
	app, err := OpenApp(ctx, opts.Config, opts.Logger, opts.Factory)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func (o *RootOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
