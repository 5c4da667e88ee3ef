package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analysis results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(db *storage.MetadataDB) error {
				results, err := db.ListResults(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), results)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results recorded")
					return nil
				}

				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						shortID(r.JobID),
						formatTime(r.CreatedAt),
						r.Filename,
						r.Status,
						string(r.Label),
						scoreCell(r.Scored(), r.SentimentScore),
						truncate(r.CleanedText, 40),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Job", "Created", "File", "Status", "Label", "Score", "Review"},
					rows,
					scoreColumn,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of results to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// scoreColumn is the index of Score in the history table.
const scoreColumn = 5

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func scoreCell(scored bool, score float64) string {
	if !scored {
		return "-"
	}
	return formatScore(score)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
