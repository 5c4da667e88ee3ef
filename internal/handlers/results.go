package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/queue"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// ResultSource is the read side of the results database.
type ResultSource interface {
	GetResult(ctx context.Context, jobID string) (*types.AnalysisResult, error)
	ListResults(ctx context.Context, limit int) ([]*types.AnalysisResult, error)
}

// ResultsHandler serves job status and stored results
type ResultsHandler struct {
	pool *queue.WorkerPool
	db   ResultSource
	log  *logrus.Entry
}

// NewResultsHandler creates a results handler. db may be nil when history
// is disabled.
func NewResultsHandler(pool *queue.WorkerPool, db ResultSource, log *logrus.Entry) *ResultsHandler {
	return &ResultsHandler{pool: pool, db: db, log: log}
}

// Job reports the live state of a queued or recently finished job
func (h *ResultsHandler) Job(c *fiber.Ctx) error {
	job, ok := h.pool.Get(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Job not found", "ERR_NOT_FOUND")
	}
	return c.JSON(job.Snapshot())
}

// List returns stored results, newest first
func (h *ResultsHandler) List(c *fiber.Ctx) error {
	if h.db == nil {
		return errorJSON(c, fiber.StatusNotFound, "Result history disabled", "ERR_NO_HISTORY")
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 1000 {
		limit = 50
	}

	results, err := h.db.ListResults(c.UserContext(), limit)
	if err != nil {
		h.log.WithError(err).Error("list results failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to list results", "ERR_DB")
	}
	if results == nil {
		results = []*types.AnalysisResult{}
	}
	return c.JSON(results)
}

// Get returns one stored result
func (h *ResultsHandler) Get(c *fiber.Ctx) error {
	if h.db == nil {
		return errorJSON(c, fiber.StatusNotFound, "Result history disabled", "ERR_NO_HISTORY")
	}
	result, err := h.db.GetResult(c.UserContext(), c.Params("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Result not found", "ERR_NOT_FOUND")
	}
	if err != nil {
		h.log.WithError(err).Error("get result failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load result", "ERR_DB")
	}
	return c.JSON(result)
}

// Export streams stored results as an xlsx workbook
func (h *ResultsHandler) Export(c *fiber.Ctx) error {
	if h.db == nil {
		return errorJSON(c, fiber.StatusNotFound, "Result history disabled", "ERR_NO_HISTORY")
	}
	results, err := h.db.ListResults(c.UserContext(), c.QueryInt("limit", 1000))
	if err != nil {
		h.log.WithError(err).Error("export query failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to list results", "ERR_DB")
	}

	var buf bytes.Buffer
	if err := storage.WriteResultsXLSX(&buf, results); err != nil {
		h.log.WithError(err).Error("export failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to build export", "ERR_EXPORT")
	}

	name := fmt.Sprintf("sentiment_results_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}
