package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const bufferLines = 1000

type Logger struct {
	*logrus.Entry
	buffer *LogBuffer
}

// New builds the process logger. Output goes to stdout and to an in-memory
// buffer that backs the /logs endpoint.
func New() *Logger {
	base := logrus.New()

	// Local env = pretty console; others = JSON
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	buffer := NewLogBuffer(bufferLines)
	base.SetOutput(io.MultiWriter(os.Stdout, buffer))
	base.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))

	return &Logger{Entry: logrus.NewEntry(base), buffer: buffer}
}

// Discard returns a logger that writes nowhere. Used by tests.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base), buffer: NewLogBuffer(1)}
}

// ParseLevel maps LOG_LEVEL values onto logrus levels, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Module returns an entry tagged with the component name.
func (l *Logger) Module(name string) *logrus.Entry {
	return l.WithField("module", name)
}

// JobField is the log field carrying a job id.
const JobField = "job_id"

// WithJob tags entry with a job id.
func WithJob(entry *logrus.Entry, jobID string) *logrus.Entry {
	return entry.WithField(JobField, jobID)
}

// Writer exposes the logger as an io.Writer for libraries that want one.
func (l *Logger) Writer() io.Writer {
	return l.Logger.Out
}

// Lines returns the buffered log lines, oldest first.
func (l *Logger) Lines() []string {
	return l.buffer.GetLogs()
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	limit int
	mu    sync.Mutex
}

func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = bufferLines
	}
	return &LogBuffer{lines: make([]string, 0, limit), limit: limit}
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))
	if len(lb.lines) > lb.limit {
		lb.lines = lb.lines[len(lb.lines)-lb.limit:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
