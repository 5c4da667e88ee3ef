package handlers

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/media"
	"github.com/codebuildervaibhav/audio-sentiment/internal/queue"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

var (
	errTooLarge      = errors.New("clip exceeds size limit")
	errInvalidFormat = errors.New("unsupported audio format")
)

// Intake holds what every clip source needs to turn bytes into a queued job.
type Intake struct {
	pool           *queue.WorkerPool
	tempDir        string
	allowedFormats []string
	maxBytes       int64
	wait           time.Duration
	log            *logrus.Entry
}

// NewIntake creates the shared intake settings. wait bounds how long a
// synchronous request blocks for its result.
func NewIntake(pool *queue.WorkerPool, tempDir string, allowedFormats []string, maxSizeMB int, wait time.Duration, log *logrus.Entry) *Intake {
	return &Intake{
		pool:           pool,
		tempDir:        tempDir,
		allowedFormats: allowedFormats,
		maxBytes:       int64(maxSizeMB) * 1024 * 1024,
		wait:           wait,
		log:            log,
	}
}

// accept validates the clip, stores it in a fresh workspace and enqueues it.
// On success the pool owns the workspace.
func (in *Intake) accept(filename, source string, r io.Reader) (*queue.Job, error) {
	if !media.ValidateAudioFormat(filename, in.allowedFormats) {
		return nil, errInvalidFormat
	}

	ws, err := storage.NewWorkspace(in.tempDir, "")
	if err != nil {
		return nil, err
	}

	limited := &io.LimitedReader{R: r, N: in.maxBytes + 1}
	path, err := ws.SaveClip(filename, limited)
	if err != nil {
		ws.Close()
		return nil, err
	}
	if limited.N <= 0 {
		ws.Close()
		return nil, errTooLarge
	}

	job := queue.NewJob(ws, filename, source, path)
	if err := in.pool.EnqueueJob(job); err != nil {
		ws.Close()
		return nil, err
	}
	return job, nil
}

// await blocks until the job finishes or the wait budget runs out. A nil
// result with a nil error means the job is still running.
func (in *Intake) await(job *queue.Job) (*types.AnalysisResult, error) {
	timer := time.NewTimer(in.wait)
	defer timer.Stop()

	select {
	case <-job.Done():
		return job.Result()
	case <-timer.C:
		return nil, nil
	}
}

// respond writes the outcome of accept + await in the API's JSON shape.
func (in *Intake) respond(c *fiber.Ctx, job *queue.Job, async bool) error {
	if async {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id":  job.ID,
			"status":  "queued",
			"message": "Clip accepted, processing started",
		})
	}

	result, err := in.await(job)
	switch {
	case err != nil:
		logger.WithJob(in.log, job.ID).WithError(err).Error("job failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Processing failed", "ERR_PROCESSING_FAILED")
	case result == nil:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id":  job.ID,
			"status":  "processing",
			"message": "Still processing, poll /jobs/" + job.ID,
		})
	case result.Status == types.StatusFailed:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	default:
		return c.JSON(result)
	}
}

// intakeError maps accept errors to API responses.
func intakeError(c *fiber.Ctx, err error, maxBytes int64) error {
	switch {
	case errors.Is(err, errInvalidFormat):
		return errorJSON(c, fiber.StatusBadRequest, "Unsupported audio format", "ERR_INVALID_FORMAT")
	case errors.Is(err, errTooLarge):
		return errorJSON(c, fiber.StatusRequestEntityTooLarge,
			"File too large (max "+humanMB(maxBytes)+")", "ERR_FILE_TOO_LARGE")
	case errors.Is(err, queue.ErrQueueFull):
		return errorJSON(c, fiber.StatusServiceUnavailable, "Server busy, try again later", "ERR_QUEUE_FULL")
	case errors.Is(err, queue.ErrPoolStopped):
		return errorJSON(c, fiber.StatusServiceUnavailable, "Server shutting down", "ERR_SHUTTING_DOWN")
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save file", "ERR_SAVE_FAILED")
	}
}

func errorJSON(c *fiber.Ctx, status int, msg, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}

func humanMB(n int64) string {
	return fmt.Sprintf("%dMB", n/(1024*1024))
}
