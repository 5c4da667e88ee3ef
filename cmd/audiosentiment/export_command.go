package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write stored results to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(db *storage.MetadataDB) error {
				results, err := db.ListResults(cmd.Context(), limit)
				if err != nil {
					return err
				}

				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err := storage.WriteResultsXLSX(f, results); err != nil {
					f.Close()
					return fmt.Errorf("write workbook: %w", err)
				}
				if err := f.Close(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(results), args[0])
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 1000, "Maximum number of results to export")
	return cmd
}
