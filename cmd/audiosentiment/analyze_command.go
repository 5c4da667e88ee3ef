package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/audio-sentiment/internal/app"
	"github.com/codebuildervaibhav/audio-sentiment/internal/media"
	"github.com/codebuildervaibhav/audio-sentiment/internal/queue"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Transcribe one clip and print its sentiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !media.ValidateAudioFormat(args[0], cfg.Limits.AllowedFormats) {
				return fmt.Errorf("unsupported audio format %q (allowed: %s)",
					filepath.Ext(args[0]), strings.Join(cfg.Limits.AllowedFormats, ", "))
			}

			log := ctx.logger(cmd.ErrOrStderr())
			tr, err := app.NewTranscriber(cmd.Context(), cfg, log.Module("transcription"))
			if err != nil {
				return err
			}
			defer tr.Close()

			var history *storage.MetadataDB
			if save {
				if history, err = app.OpenHistory(cfg); err != nil {
					return err
				}
				if history != nil {
					defer history.Close()
				}
			}

			result, err := analyzeFile(cmd.Context(), app.NewPipeline(cfg, tr, log.Entry), cfg.Storage.TempDir, args[0])
			if err != nil {
				return err
			}
			if history != nil {
				if err := history.SaveResult(cmd.Context(), result); err != nil {
					log.WithError(err).Warn("failed to save result")
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(result))
			if result.Status == types.StatusFailed {
				return fmt.Errorf("analysis failed at %s: %s", result.FailedStage, result.Failure)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&save, "save", true, "Record the result in the history database")
	return cmd
}

// analyzeFile copies path into a fresh workspace under tempDir, runs it and
// removes the workspace again.
func analyzeFile(ctx context.Context, runner queue.Runner, tempDir, path string) (*types.AnalysisResult, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ws, err := storage.NewWorkspace(tempDir, "")
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	clipPath, err := ws.SaveClip(filepath.Base(path), src)
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx, types.Clip{
		JobID:    ws.ID,
		Filename: filepath.Base(path),
		Source:   types.SourceCLI,
		Path:     clipPath,
	}), nil
}

func renderResult(r *types.AnalysisResult) string {
	rows := [][]string{
		{"Job", r.JobID},
		{"File", r.Filename},
		{"Status", r.Status},
	}
	if r.FailedStage != "" {
		rows = append(rows, []string{"Failed stage", r.FailedStage}, []string{"Failure", r.Failure})
	}
	if r.Transcript != "" {
		rows = append(rows, []string{"Transcribed text", r.Transcript})
	}
	if r.Scored() {
		rows = append(rows,
			[]string{"Review", r.CleanedText},
			[]string{"Score", formatScore(r.SentimentScore)},
			[]string{"Label", string(r.Label)},
		)
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func formatScore(score float64) string {
	return fmt.Sprintf("%+.4f", score)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
