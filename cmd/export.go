package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crmdash/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		q    gridQuery
		toS3 bool
	)
	cmd := &cobra.Command{
		Use:       "export <customers|leads|escalations|campaigns>",
		Short:     "Export the filtered rows of a table as CSV",
		Long:      "Export writes every row matching the search and filter, not just one page, to the export directory or the configured S3 bucket.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			g, cleanup, err := loadGrid(ctx, cmd, args[0], q)
			if err != nil {
				return err
			}
			defer cleanup()

			exp, err := g.ExportCSV(time.Now())
			if err != nil {
				return err
			}
			sink, err := export.New(ctx, cfg.Export, toS3)
			if err != nil {
				return err
			}
			location, err := sink.Write(ctx, exp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", g.Meta().TotalMatched, location)
			return nil
		},
	}
	q.bind(cmd)
	cmd.Flags().BoolVar(&toS3, "s3", false, "Upload to the configured S3 bucket instead of the export directory")
	return cmd
}
