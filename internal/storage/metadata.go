package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// ErrNotFound is returned when no result exists for a job id.
var ErrNotFound = errors.New("result not found")

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (or creates) the results database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer keeps SQLite away from SQLITE_BUSY under multiple workers.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		source_type TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_stage TEXT,
		failure TEXT,
		transcript TEXT,
		cleaned_text TEXT,
		sentiment_score REAL,
		label TEXT,
		report_path TEXT,
		archive_url TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
	CREATE INDEX IF NOT EXISTS idx_results_label ON results(label);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

const resultColumns = `job_id, filename, source_type, status, failed_stage, failure, transcript,
	cleaned_text, sentiment_score, label, report_path, archive_url, created_at, completed_at`

// SaveResult inserts or replaces the stored result for r.JobID
func (mdb *MetadataDB) SaveResult(ctx context.Context, r *types.AnalysisResult) error {
	query := `
	INSERT INTO results (` + resultColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(job_id) DO UPDATE SET
		status = excluded.status,
		failed_stage = excluded.failed_stage,
		failure = excluded.failure,
		transcript = excluded.transcript,
		cleaned_text = excluded.cleaned_text,
		sentiment_score = excluded.sentiment_score,
		label = excluded.label,
		report_path = excluded.report_path,
		archive_url = excluded.archive_url,
		completed_at = excluded.completed_at
	`

	_, err := mdb.db.ExecContext(ctx, query,
		r.JobID, r.Filename, r.Source, r.Status, r.FailedStage, r.Failure, r.Transcript,
		r.CleanedText, r.SentimentScore, string(r.Label), r.ReportPath, r.ArchiveURL,
		formatTime(r.CreatedAt), formatTime(r.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// GetResult retrieves a stored result by job ID
func (mdb *MetadataDB) GetResult(ctx context.Context, jobID string) (*types.AnalysisResult, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE job_id = ?`

	r, err := scanResult(mdb.db.QueryRowContext(ctx, query, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return r, nil
}

// ListResults returns the newest results first
func (mdb *MetadataDB) ListResults(ctx context.Context, limit int) ([]*types.AnalysisResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + resultColumns + ` FROM results ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := mdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*types.AnalysisResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*types.AnalysisResult, error) {
	var (
		r                                 types.AnalysisResult
		stage, failure, transcript, clean sql.NullString
		label, report, archive            sql.NullString
		score                             sql.NullFloat64
		created, completed                string
	)
	err := row.Scan(&r.JobID, &r.Filename, &r.Source, &r.Status, &stage, &failure, &transcript,
		&clean, &score, &label, &report, &archive, &created, &completed)
	if err != nil {
		return nil, err
	}

	r.FailedStage = stage.String
	r.Failure = failure.String
	r.Transcript = transcript.String
	r.CleanedText = clean.String
	r.SentimentScore = score.Float64
	r.Label = types.Label(label.String)
	r.ReportPath = report.String
	r.ArchiveURL = archive.String
	r.CreatedAt = parseTime(created)
	r.CompletedAt = parseTime(completed)
	return &r, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
