package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrPoolStopped = errors.New("worker pool stopped")
)

// Runner analyzes one clip.
type Runner interface {
	Run(ctx context.Context, clip types.Clip) *types.AnalysisResult
}

// ReportWriter persists a report file and returns its path.
type ReportWriter interface {
	SaveReport(result *types.AnalysisResult) (string, error)
}

// ResultStore records finished results for later listing.
type ResultStore interface {
	SaveResult(ctx context.Context, result *types.AnalysisResult) error
}

// Sinks are the optional destinations a finished result is written to.
type Sinks struct {
	Reports  ReportWriter
	Archive  storage.Archiver
	Database ResultStore
}

// WorkerPool manages a pool of workers processing analysis jobs
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	runner      Runner
	sinks       Sinks
	log         *logrus.Entry

	mu      sync.RWMutex
	jobs    map[string]*Job
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, runner Runner, sinks Sinks, log *logrus.Entry) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, queueSize),
		workerCount: workerCount,
		runner:      runner,
		sinks:       sinks,
		log:         log,
		jobs:        make(map[string]*Job),
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	wp.log.WithField("workers", wp.workerCount).Info("starting worker pool")
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop stops accepting jobs and waits for queued ones to drain
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.log.Info("worker pool stopped")
}

// EnqueueJob adds a job to the queue without blocking. On error the caller
// still owns the job's workspace.
func (wp *WorkerPool) EnqueueJob(job *Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return ErrPoolStopped
	}
	select {
	case wp.jobQueue <- job:
	default:
		return ErrQueueFull
	}
	wp.jobs[job.ID] = job

	logger.WithJob(wp.log, job.ID).WithFields(logrus.Fields{
		"source":   job.SourceType,
		"filename": job.Filename,
	}).Info("job enqueued")
	return nil
}

// Get returns a tracked job by id
func (wp *WorkerPool) Get(id string) (*Job, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	job, ok := wp.jobs[id]
	return job, ok
}

// Prune forgets jobs that finished more than maxAge ago and returns how many
// were dropped.
func (wp *WorkerPool) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	wp.mu.Lock()
	defer wp.mu.Unlock()

	var n int
	for id, job := range wp.jobs {
		if job.finishedBefore(cutoff) {
			delete(wp.jobs, id)
			n++
		}
	}
	return n
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.WithField("worker", id)
	log.Debug("worker started")

	for job := range wp.jobQueue {
		wp.runJob(log, job)
	}
}

// runJob processes one job; the workspace is released on every exit path,
// including a panic inside the pipeline.
func (wp *WorkerPool) runJob(log *logrus.Entry, job *Job) {
	log = logger.WithJob(log, job.ID)
	defer func() {
		if err := job.Workspace.Close(); err != nil {
			log.WithError(err).Warn("failed to remove workspace")
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("panic processing job: %v", r)
			job.finish(nil, fmt.Errorf("worker panic: %v", r))
		}
	}()

	job.setStatus(types.StatusProcessing)
	result := wp.processJob(log, job)
	job.finish(result, nil)
}

// processJob runs the pipeline and fans the result out to the sinks
func (wp *WorkerPool) processJob(log *logrus.Entry, job *Job) *types.AnalysisResult {
	ctx := context.Background()
	log.Info("processing job")

	result := wp.runner.Run(ctx, types.Clip{
		JobID:    job.ID,
		Filename: job.Filename,
		Source:   job.SourceType,
		Path:     job.ClipPath,
	})

	if wp.sinks.Reports != nil {
		path, err := wp.sinks.Reports.SaveReport(result)
		if err != nil {
			log.WithError(err).Error("local report save failed")
		} else {
			result.ReportPath = path
		}
	}

	if wp.sinks.Archive != nil && result.Status == types.StatusCompleted {
		url, err := wp.sinks.Archive.Archive(ctx, result)
		if err != nil {
			log.WithError(err).Warn("report archive failed, keeping local copy only")
		} else {
			result.ArchiveURL = url
		}
	}

	if wp.sinks.Database != nil {
		if err := wp.sinks.Database.SaveResult(ctx, result); err != nil {
			log.WithError(err).Error("database save failed")
		}
	}

	log.WithFields(logrus.Fields{
		"status": result.Status,
		"label":  result.Label,
		"report": result.ReportPath,
	}).Info("job finished")
	return result
}
