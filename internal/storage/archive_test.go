package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

type flakyArchiver struct {
	failures int
	calls    int
}

func (f *flakyArchiver) Archive(context.Context, *types.AnalysisResult) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("503 backend unavailable")
	}
	return "https://example.test/report", nil
}

func newTestRetrying(next Archiver, attempts int) *RetryingArchiver {
	r := NewRetryingArchiver(next, attempts, logger.Discard().Entry)
	r.initial = time.Millisecond
	return r
}

func TestRetryingArchiverRecovers(t *testing.T) {
	next := &flakyArchiver{failures: 2}
	url, err := newTestRetrying(next, 3).Archive(context.Background(), &types.AnalysisResult{})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if url != "https://example.test/report" || next.calls != 3 {
		t.Fatalf("unexpected url=%q calls=%d", url, next.calls)
	}
}

func TestRetryingArchiverGivesUp(t *testing.T) {
	next := &flakyArchiver{failures: 10}
	_, err := newTestRetrying(next, 3).Archive(context.Background(), &types.AnalysisResult{})
	if err == nil {
		t.Fatal("expected failure")
	}
	if next.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", next.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestMinIOArchiverKeyAndPayload(t *testing.T) {
	var (
		gotKey  string
		gotBody []byte
	)
	m := newMinIOArchiver("reports-bucket", func(_ context.Context, key string, data []byte) error {
		gotKey, gotBody = key, data
		return nil
	})
	m.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	result := &types.AnalysisResult{JobID: "abcdef1234", Filename: "demo.mp3", Label: types.LabelNeutral}
	url, err := m.Archive(context.Background(), result)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	wantKey := "reports/2025/02/03/20250203_040506_demo_abcdef12.json"
	if gotKey != wantKey {
		t.Fatalf("expected key %s, got %s", wantKey, gotKey)
	}
	if url != "s3://reports-bucket/"+wantKey {
		t.Fatalf("unexpected url %s", url)
	}
	var decoded types.AnalysisResult
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded.Label != types.LabelNeutral {
		t.Fatalf("unexpected payload %s (%v)", gotBody, err)
	}
}

func TestFolderQueryEscapes(t *testing.T) {
	got := folderQuery("Bob's reports", "p1")
	want := `name='Bob\'s reports' and mimeType='application/vnd.google-apps.folder' and trashed=false and 'p1' in parents`
	if got != want {
		t.Fatalf("folderQuery:\n got %s\nwant %s", got, want)
	}
}
