package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/elarabyomar/PFA-sub000/internal/backend"
	"github.com/elarabyomar/PFA-sub000/internal/export"
	"github.com/elarabyomar/PFA-sub000/internal/logging"
	"github.com/elarabyomar/PFA-sub000/internal/rows"
)

func newExportCmd(configFlag *string) *cobra.Command {
	var (
		urlFlag    string
		formatFlag string
		outputFlag string
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export every row of a table as CSV or JSON",
		Long: `export pages through a table on the backend and writes all of its
rows. Without --output the rows go to stdout. The format follows the
output extension unless --format is given.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			cfg := loadConfig(*configFlag)
			if urlFlag != "" {
				cfg.Backend.URL = urlFlag
			}
			if pageSize <= 0 {
				pageSize = cfg.Results.PageSize
			}
			logging.Init(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format), os.Stderr)

			format, err := exportFormat(formatFlag, outputFlag)
			if err != nil {
				return err
			}

			client, err := backend.NewClient(cfg.Backend.URL, backend.Options{
				Timeout: cfg.Backend.Timeout,
				Headers: cfg.Backend.Headers,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			st, err := client.Structure(ctx, table)
			if err != nil {
				return fmt.Errorf("structure of %s: %w", table, err)
			}
			req := export.Request{
				Table:    table,
				Columns:  st.ColumnNames(),
				PageSize: pageSize,
				Format:   format,
			}

			src := rows.New(client)
			if outputFlag == "" || outputFlag == "-" {
				_, err := export.Write(ctx, cmd.OutOrStdout(), src, req)
				return err
			}

			n, err := export.File(ctx, outputFlag, src, req)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Exported %d rows of %s to %s\n", n, table, outputFlag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&urlFlag, "url", "u", "", "Backend URL (defaults to backend.url)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: csv or json")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file, - for stdout")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows fetched per request")
	return cmd
}

// exportFormat resolves the format from the flag, else from the output
// path, else CSV.
func exportFormat(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if output != "" && output != "-" {
		return export.FormatFromPath(output), nil
	}
	return export.FormatCSV, nil
}
