package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/media"
	"github.com/codebuildervaibhav/audio-sentiment/internal/sentiment"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/transcription"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

type stubConverter struct {
	err   error
	calls int
}

func (s *stubConverter) ToWAV(_ context.Context, input string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	out := media.WaveformPath(input)
	return out, os.WriteFile(out, []byte("RIFF"), 0o644)
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
	path  string
}

func (s *stubTranscriber) Transcribe(_ context.Context, wavPath string) (string, error) {
	s.calls++
	s.path = wavPath
	return s.text, s.err
}

type stubScorer struct {
	score float64
	calls int
	text  string
}

func (s *stubScorer) Compound(text string) float64 {
	s.calls++
	s.text = text
	return s.score
}

func newClip(t *testing.T) types.Clip {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.Clip{JobID: "job-1", Filename: "review.mp3", Source: types.SourceUpload, Path: path}
}

func TestRunSuccess(t *testing.T) {
	conv := &stubConverter{}
	tr := &stubTranscriber{text: "The support team was GREAT!!"}
	sc := &stubScorer{score: 0.6249}
	p := New(conv, tr, sc, Options{}, logger.Discard().Entry)

	clip := newClip(t)
	res := p.Run(context.Background(), clip)

	if res.Status != types.StatusCompleted || res.FailedStage != "" {
		t.Fatalf("unexpected status %s/%s", res.Status, res.FailedStage)
	}
	if res.Transcript != "The support team was GREAT!!" {
		t.Fatalf("unexpected transcript %q", res.Transcript)
	}
	if res.CleanedText != "the support team was great" || sc.text != res.CleanedText {
		t.Fatalf("scorer should receive cleaned text, got %q / %q", res.CleanedText, sc.text)
	}
	if res.Label != types.LabelPositive || res.SentimentScore != 0.6249 {
		t.Fatalf("unexpected score/label %v/%s", res.SentimentScore, res.Label)
	}
	if tr.path != media.WaveformPath(clip.Path) {
		t.Fatalf("transcriber got %s", tr.path)
	}
	if res.JobID != "job-1" || res.Filename != "review.mp3" || res.CompletedAt.IsZero() {
		t.Fatalf("result metadata not populated: %+v", res)
	}
}

func TestRunConversionFailureShortCircuits(t *testing.T) {
	conv := &stubConverter{err: fmt.Errorf("%w: exit status 1", media.ErrConversion)}
	tr := &stubTranscriber{text: "unused"}
	sc := &stubScorer{}
	p := New(conv, tr, sc, Options{ScoreFailedTranscripts: true}, logger.Discard().Entry)

	res := p.Run(context.Background(), newClip(t))

	if tr.calls != 0 || sc.calls != 0 {
		t.Fatalf("transcriber/scorer must not run after conversion failure: %d/%d", tr.calls, sc.calls)
	}
	if res.Status != types.StatusFailed || res.FailedStage != types.StageConvert || res.Failure != ConversionFailure {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Scored() || res.CleanedText != "" {
		t.Fatal("failed conversion must not produce a label or cleaned text")
	}
}

func TestRunTranscriptionFailureStopsWhenScoringDisabled(t *testing.T) {
	tr := &stubTranscriber{err: transcription.ErrUnintelligible}
	sc := &stubScorer{}
	p := New(&stubConverter{}, tr, sc, Options{}, logger.Discard().Entry)

	res := p.Run(context.Background(), newClip(t))

	if sc.calls != 0 {
		t.Fatal("scorer must not run on a failed transcription")
	}
	if res.Status != types.StatusFailed || res.FailedStage != types.StageTranscribe {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Transcript != "Speech recognition could not understand the audio." || res.Failure != res.Transcript {
		t.Fatalf("unexpected failure text %q / %q", res.Transcript, res.Failure)
	}
	if res.Scored() {
		t.Fatal("failed transcription must not be labelled")
	}
}

func TestRunScoresSentinelTranscript(t *testing.T) {
	tr := &stubTranscriber{err: transcription.ErrUnintelligible}
	p := New(&stubConverter{}, tr, sentiment.NewAnalyzer(), Options{ScoreFailedTranscripts: true}, logger.Discard().Entry)

	res := p.Run(context.Background(), newClip(t))

	if res.Status != types.StatusCompleted {
		t.Fatalf("scoring failed transcripts completes the run, got %s", res.Status)
	}
	if res.CleanedText != "speech recognition could not understand the audio" {
		t.Fatalf("unexpected cleaned text %q", res.CleanedText)
	}
	switch res.Label {
	case types.LabelPositive, types.LabelNegative, types.LabelNeutral:
	default:
		t.Fatalf("expected a label for the sentinel transcript, got %q", res.Label)
	}
	if res.Label != sentiment.LabelFor(res.SentimentScore) {
		t.Fatalf("label %s does not match score %v", res.Label, res.SentimentScore)
	}
	if res.FailedStage != types.StageTranscribe || res.Failure == "" {
		t.Fatal("the transcription failure should still be recorded")
	}
}

func TestRunScoresRequestError(t *testing.T) {
	tr := &stubTranscriber{err: &transcription.RequestError{Err: errors.New("connection refused")}}
	sc := &stubScorer{score: -0.1}
	p := New(&stubConverter{}, tr, sc, Options{ScoreFailedTranscripts: true}, logger.Discard().Entry)

	res := p.Run(context.Background(), newClip(t))
	if sc.text != "error with the api connection refused" {
		t.Fatalf("unexpected scored text %q", sc.text)
	}
	if res.Label != types.LabelNegative {
		t.Fatalf("unexpected label %s", res.Label)
	}
}

func TestRunWithRealConverterStubAndWorkspaceCleanup(t *testing.T) {
	ws, err := storage.NewWorkspace(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	clipPath := ws.ClipPath("call.mp3")
	if err := os.WriteFile(clipPath, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := media.NewConverter("ffmpeg", 16000, logger.Discard().Entry)
	conv.WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		return nil, os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})
	tr := &stubTranscriber{text: "this is fine"}
	p := New(conv, tr, &stubScorer{score: 0}, Options{}, logger.Discard().Entry)

	res := p.Run(context.Background(), types.Clip{JobID: ws.ID, Filename: "call.mp3", Path: clipPath})
	if res.Label != types.LabelNeutral {
		t.Fatalf("unexpected label %s", res.Label)
	}
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{clipPath, media.WaveformPath(clipPath)} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist after the run", path)
		}
	}
}
