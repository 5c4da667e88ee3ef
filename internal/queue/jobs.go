package queue

import (
	"sync"
	"time"

	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// Job represents one clip waiting for or going through analysis
type Job struct {
	ID         string
	Filename   string
	SourceType string
	ClipPath   string
	Workspace  *storage.Workspace

	mu         sync.Mutex
	status     string
	result     *types.AnalysisResult
	err        error
	createdAt  time.Time
	finishedAt time.Time
	done       chan struct{}
}

// NewJob creates a queued job for a clip already saved in ws
func NewJob(ws *storage.Workspace, filename, sourceType, clipPath string) *Job {
	return &Job{
		ID:         ws.ID,
		Filename:   filename,
		SourceType: sourceType,
		ClipPath:   clipPath,
		Workspace:  ws,
		status:     types.StatusQueued,
		createdAt:  time.Now(),
		done:       make(chan struct{}),
	}
}

// Done is closed once the job has a result or an error.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Snapshot is a consistent copy of a job's externally visible state.
type Snapshot struct {
	JobID      string                `json:"job_id"`
	Filename   string                `json:"filename"`
	Source     string                `json:"source"`
	Status     string                `json:"status"`
	Error      string                `json:"error,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	FinishedAt time.Time             `json:"finished_at,omitempty"`
	Result     *types.AnalysisResult `json:"result,omitempty"`
}

func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		JobID:      j.ID,
		Filename:   j.Filename,
		Source:     j.SourceType,
		Status:     j.status,
		CreatedAt:  j.createdAt,
		FinishedAt: j.finishedAt,
		Result:     j.result,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

// Result returns the analysis result and any infrastructure error.
func (j *Job) Result() (*types.AnalysisResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	j.status = status
	j.mu.Unlock()
}

func (j *Job) finish(result *types.AnalysisResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.finishedAt.IsZero() {
		return
	}

	j.result = result
	j.err = err
	switch {
	case err != nil:
		j.status = types.StatusFailed
	case result != nil:
		j.status = result.Status
	default:
		j.status = types.StatusFailed
	}
	j.finishedAt = time.Now()
	close(j.done)
}

func (j *Job) finishedBefore(cutoff time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !j.finishedAt.IsZero() && j.finishedAt.Before(cutoff)
}
