package cleanup

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler removes job workspaces left behind by crashed runs and lets
// other components prune their own stale state on the same tick.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	onSweep  []func(maxAge time.Duration)
	log      *logrus.Entry
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		log:      log,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// OnSweep registers fn to run after every sweep.
func (s *Scheduler) OnSweep(fn func(maxAge time.Duration)) {
	s.onSweep = append(s.onSweep, fn)
}

// Start runs one sweep immediately, then one per interval
func (s *Scheduler) Start() {
	s.log.Info("running initial temp cleanup")
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				return
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"interval": s.interval,
		"max_age":  s.maxAge,
	}).Info("cleanup scheduler started")
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.log.Info("cleanup scheduler stopped")
	})
}

// Sweep deletes entries directly under tempDir older than maxAge and returns
// how many were removed.
func (s *Scheduler) Sweep() int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("error reading temp directory")
		}
		return 0
	}

	now := s.now()
	var (
		deletedCount int
		deletedSize  int64
	)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		size := treeSize(path)
		if err := os.RemoveAll(path); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("failed to delete stale temp entry")
			continue
		}
		deletedCount++
		deletedSize += size
		s.log.WithFields(logrus.Fields{
			"entry": entry.Name(),
			"age":   age.Round(time.Minute),
			"kb":    size / 1024,
		}).Info("deleted stale temp entry")
	}

	if deletedCount > 0 {
		s.log.Infof("cleanup complete: %d entries deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}

	for _, fn := range s.onSweep {
		fn(s.maxAge)
	}
	return deletedCount
}

func treeSize(path string) int64 {
	var total int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string) error {
	return os.MkdirAll(tempDir, 0755)
}
