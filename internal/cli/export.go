package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hiace/internal/config"
	"hiace/internal/log"
	"hiace/internal/sheets"
	gsheet "hiace/internal/sheets/google"
	mem "hiace/internal/sheets/memory"
)

// ExporterFactory builds the spreadsheet exporter from configuration.
type ExporterFactory func(ctx context.Context, cfg *config.Config) (sheets.EntryExporter, error)

func newExportCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal",
	}

	var dryRun bool
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Rewrite the journal sheet of the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newExporter := googleExporter
			if dryRun {
				newExporter = memoryExporter
			}
			return runExport(cmd, root, newExporter)
		},
	}
	sheetsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the rows without contacting Google")
	cmd.AddCommand(sheetsCmd)
	return cmd
}

func runExport(cmd *cobra.Command, root *RootOptions, newExporter ExporterFactory) error {
	ctx := cmd.Context()
	exporter, err := newExporter(ctx, root.Config)
	if err != nil {
		return err
	}
	return withApp(ctx, root, func(app *App) error {
		n, err := exporter.ExportEntries(ctx, app.Ledger.DailyEntries())
		if err != nil {
			return fmt.Errorf("export journal: %w", err)
		}
		root.Logger.InfoContext(ctx, "Journal exported",
			log.FieldOperation, log.OpExport,
			log.FieldCount, n)
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) exported\n", n)
		return err
	})
}

func googleExporter(ctx context.Context, cfg *config.Config) (sheets.EntryExporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, errors.New("sheets export is disabled: set GOOGLE_SPREADSHEET_ID")
	}
	return gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
}

func memoryExporter(context.Context, *config.Config) (sheets.EntryExporter, error) {
	return mem.New(), nil
}
