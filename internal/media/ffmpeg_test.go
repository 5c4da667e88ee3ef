package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
)

func writeClip(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("ID3 fake mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToWAVWritesSiblingWaveform(t *testing.T) {
	input := writeClip(t, "clip.mp3")
	conv := NewConverter("ffmpeg", 16000, logger.Discard().Entry)

	var gotArgs []string
	conv.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("RIFF....WAVE"), 0o644)
	})

	out, err := conv.ToWAV(context.Background(), input)
	if err != nil {
		t.Fatalf("ToWAV: %v", err)
	}
	want := filepath.Join(filepath.Dir(input), "clip.wav")
	if out != want {
		t.Fatalf("expected %s, got %s", want, out)
	}

	joined := map[string]string{}
	for i := 0; i+1 < len(gotArgs); i++ {
		joined[gotArgs[i]] = gotArgs[i+1]
	}
	if joined["-ar"] != "16000" || joined["-ac"] != "1" || joined["-c:a"] != "pcm_s16le" {
		t.Fatalf("unexpected ffmpeg args: %v", gotArgs)
	}
}

func TestToWAVReportsRunnerFailure(t *testing.T) {
	input := writeClip(t, "clip.mp3")
	conv := NewConverter("ffmpeg", 16000, logger.Discard().Entry)
	conv.WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	})

	out, err := conv.ToWAV(context.Background(), input)
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no waveform path, got %q", out)
	}
	if _, statErr := os.Stat(WaveformPath(input)); !os.IsNotExist(statErr) {
		t.Fatal("partial waveform should be removed on failure")
	}
}

func TestToWAVRequiresOutput(t *testing.T) {
	input := writeClip(t, "clip.mp3")
	conv := NewConverter("", 0, logger.Discard().Entry)
	conv.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	})

	if _, err := conv.ToWAV(context.Background(), input); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion when no file is produced, got %v", err)
	}
}

func TestToWAVMissingInput(t *testing.T) {
	conv := NewConverter("ffmpeg", 16000, logger.Discard().Entry)
	conv.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("runner must not be called for a missing input")
		return nil, nil
	})

	_, err := conv.ToWAV(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestWaveformPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/a/clip.mp3": "/tmp/a/clip.wav",
		"/tmp/a/clip.MP3": "/tmp/a/clip.wav",
		"/tmp/a/clip.wav": "/tmp/a/clip.16k.wav",
		"/tmp/a/clip":     "/tmp/a/clip.wav",
	}
	for in, want := range cases {
		if got := WaveformPath(in); got != want {
			t.Errorf("WaveformPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateAudioFormat(t *testing.T) {
	allowed := []string{".mp3", "wav"}
	cases := map[string]bool{
		"song.mp3":  true,
		"SONG.MP3":  true,
		"voice.wav": true,
		"voice.ogg": false,
		"noext":     false,
	}
	for name, want := range cases {
		if got := ValidateAudioFormat(name, allowed); got != want {
			t.Errorf("ValidateAudioFormat(%q) = %v, want %v", name, got, want)
		}
	}
}
