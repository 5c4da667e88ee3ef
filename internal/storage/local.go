package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// LocalStorage writes analysis reports to the local filesystem
type LocalStorage struct {
	outputDir string
	now       func() time.Time
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// ReportName is the base filename used for a result in every report sink:
// 20250123_143022_<clip name>_<job id prefix>
func ReportName(result *types.AnalysisResult, at time.Time) string {
	name := strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename))
	id := result.JobID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s", at.Format("20060102_150405"), sanitizeFilename(name), id)
}

// SaveReport writes <name>.json with the full result into a dated directory:
// outputs/2025/01/23/. It returns the report path.
func (ls *LocalStorage) SaveReport(result *types.AnalysisResult) (string, error) {
	now := ls.now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	reportPath := filepath.Join(dateDir, ReportName(result, now)+".json")

	report := *result
	report.ReportPath = reportPath
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return reportPath, nil
}

// sanitizeFilename keeps names safe as a single path segment.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	result := strings.Trim(replacer.Replace(name), "._")
	if result == "" {
		result = "clip"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
