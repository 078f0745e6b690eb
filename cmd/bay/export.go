package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/Veraticus/aviation-bay/internal/config"
	"github.com/Veraticus/aviation-bay/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish filed reports",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export reports to Google Sheets",
		Long: `Write filed reports and a summary to a Google Sheets spreadsheet. The
spreadsheet is created on first export unless sheets.spreadsheet_id is set.

Authenticate first with 'bay auth sheets' or configure a service account.`,
		Example: `  bay export sheets
  bay export sheets --status approved --since 30d`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := opts.filter(time.Now())
			if err != nil {
				return err
			}

			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return err
			}

			identifier, err := loadIdentifier()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			writer, err := sheets.NewWriter(ctx, *sheetsConfig, identifier.Rules(), slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create sheets writer: %w", err)
			}

			svc := newReportService(identifier, store, nil)

			var spreadsheetID string
			err = cli.Spin(cmd.ErrOrStderr(), "Exporting to Google Sheets...", func() error {
				var exportErr error
				spreadsheetID, exportErr = svc.Export(ctx, writer, filter)
				return exportErr
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Reports exported"))
			fmt.Fprintln(out, sheets.SpreadsheetURL(spreadsheetID))
			return nil
		},
	}

	opts.bind(cmd)

	return cmd
}
