package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

const exportSheet = "Results"

var exportHeader = []any{
	"Job ID", "Filename", "Source", "Status", "Failed Stage", "Failure",
	"Transcript", "Cleaned Text", "Sentiment Score", "Label", "Created At", "Completed At",
}

// WriteResultsXLSX writes one row per result to a single-sheet workbook.
func WriteResultsXLSX(w io.Writer, results []*types.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.JobID, r.Filename, r.Source, r.Status, r.FailedStage, r.Failure,
			r.Transcript, r.CleanedText, r.SentimentScore, string(r.Label),
			exportTime(r.CreatedAt), exportTime(r.CompletedAt),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
