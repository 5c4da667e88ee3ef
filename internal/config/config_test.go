package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers.Count != 1 {
		t.Fatalf("expected a single worker by default, got %d", cfg.Workers.Count)
	}
	if !cfg.Pipeline.ScoreFailedTranscripts {
		t.Fatal("failed transcripts should be scored by default")
	}
	if got := cfg.Limits.AllowedFormats; len(got) != 1 || got[0] != ".mp3" {
		t.Fatalf("unexpected default formats: %v", got)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
pipeline:
  score_failed_transcripts: false
workers:
  count: 4
limits:
  allowed_formats: [".mp3", ".wav"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Workers.Count != 4 {
		t.Fatalf("file values not applied: port=%d workers=%d", cfg.Server.Port, cfg.Workers.Count)
	}
	if cfg.Pipeline.ScoreFailedTranscripts {
		t.Fatal("expected score_failed_transcripts: false from file")
	}
	if cfg.Storage.TempDir != "temp" {
		t.Fatalf("defaults should survive a partial file, got temp_dir=%q", cfg.Storage.TempDir)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Transcription.Backend = "openai"
	cfg.Transcription.OpenAIKey = ""
	cfg.Workers.Count = 0
	cfg.Workers.WaitSeconds = 0
	cfg.Archive.Backend = "s3"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"openai_api_key", "workers.count", "workers.wait_seconds", "archive.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MINIO_ACCESS_KEY", "ak")
	cfg := Default()
	cfg.applyEnv()
	if cfg.Transcription.OpenAIKey != "sk-test" || cfg.Archive.MinIO.AccessKey != "ak" {
		t.Fatalf("env overrides not applied: %+v", cfg.Transcription)
	}
}
