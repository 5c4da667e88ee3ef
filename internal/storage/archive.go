package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// Archiver copies a finished report to off-host storage and returns a link.
type Archiver interface {
	Archive(ctx context.Context, result *types.AnalysisResult) (string, error)
}

// RetryingArchiver retries a flaky archiver with exponential backoff.
type RetryingArchiver struct {
	next     Archiver
	attempts uint64
	initial  time.Duration
	log      *logrus.Entry
}

// NewRetryingArchiver wraps next with up to attempts tries.
func NewRetryingArchiver(next Archiver, attempts int, log *logrus.Entry) *RetryingArchiver {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingArchiver{next: next, attempts: uint64(attempts), initial: time.Second, log: log}
}

func (r *RetryingArchiver) Archive(ctx context.Context, result *types.AnalysisResult) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initial
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.attempts-1), ctx)

	var (
		url     string
		attempt int
	)
	operation := func() error {
		attempt++
		var err error
		url, err = r.next.Archive(ctx, result)
		if err != nil {
			r.log.WithError(err).WithField("attempt", attempt).Warn("report archive attempt failed")
		}
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("archive failed after %d attempts: %w", attempt, err)
	}
	return url, nil
}

func reportJSON(result *types.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}
