package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceGDrive = "gdrive"
	SourceStream = "stream"
	SourceCLI    = "cli"
)

// Pipeline stages that can fail
const (
	StageConvert    = "convert"
	StageTranscribe = "transcribe"
)

// Label is the discrete sentiment class derived from a compound score
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
)

// Clip is one uploaded audio file already persisted into a job workspace
type Clip struct {
	JobID    string
	Filename string
	Source   string
	Path     string
}

// AnalysisResult is everything one pipeline run produced
type AnalysisResult struct {
	JobID          string    `json:"job_id"`
	Filename       string    `json:"filename"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	FailedStage    string    `json:"failed_stage,omitempty"`
	Failure        string    `json:"failure,omitempty"`
	Transcript     string    `json:"transcript"`
	CleanedText    string    `json:"cleaned_text"`
	SentimentScore float64   `json:"sentiment_score"`
	Label          Label     `json:"label,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CompletedAt    time.Time `json:"completed_at"`
	ReportPath     string    `json:"report_path,omitempty"`
	ArchiveURL     string    `json:"archive_url,omitempty"`
}

// Scored reports whether the run reached the sentiment stage
func (r *AnalysisResult) Scored() bool {
	return r.Label != ""
}
