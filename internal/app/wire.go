// Package app builds the pipeline and its sinks from configuration. Both the
// HTTP server and the CLI start here.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/config"
	"github.com/codebuildervaibhav/audio-sentiment/internal/media"
	"github.com/codebuildervaibhav/audio-sentiment/internal/pipeline"
	"github.com/codebuildervaibhav/audio-sentiment/internal/sentiment"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
	"github.com/codebuildervaibhav/audio-sentiment/internal/transcription"
)

const archiveAttempts = 3

// Transcriber is a recognition backend that holds a client to release.
type Transcriber interface {
	transcription.Transcriber
	io.Closer
}

// NewTranscriber picks the recognition backend named in the config.
func NewTranscriber(ctx context.Context, cfg *config.Config, log *logrus.Entry) (Transcriber, error) {
	tc := cfg.Transcription
	switch tc.Backend {
	case "openai":
		return transcription.NewOpenAITranscriber(tc.OpenAIKey, tc.OpenAIModel, tc.LanguageCode, log), nil
	case "google", "":
		return transcription.NewGoogleTranscriber(ctx, tc.CredentialsFile, tc.LanguageCode, cfg.FFmpeg.SampleRate, log)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", tc.Backend)
	}
}

// NewPipeline wires ffmpeg, the given transcriber and VADER into a pipeline.
func NewPipeline(cfg *config.Config, tr transcription.Transcriber, log *logrus.Entry) *pipeline.Pipeline {
	conv := media.NewConverter(cfg.FFmpeg.Binary, cfg.FFmpeg.SampleRate, log.WithField("module", "ffmpeg"))
	opts := pipeline.Options{
		ScoreFailedTranscripts: cfg.Pipeline.ScoreFailedTranscripts,
		Timeout:                time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second,
	}
	return pipeline.New(conv, tr, sentiment.NewAnalyzer(), opts, log.WithField("module", "pipeline"))
}

// NewArchiver returns the configured remote archive wrapped in retries, or
// nil when archiving is off. A backend that cannot be reached at startup is
// logged and skipped so reports still land on local disk.
func NewArchiver(ctx context.Context, cfg *config.Config, log *logrus.Entry) storage.Archiver {
	var (
		next storage.Archiver
		err  error
	)

	switch cfg.Archive.Backend {
	case "gdrive":
		gd := cfg.Archive.GoogleDrive
		if _, statErr := os.Stat(gd.CredentialsFile); statErr != nil {
			log.Warn("Google Drive credentials not found, saving locally only")
			return nil
		}
		var client *storage.DriveClient
		client, err = storage.NewDriveClient(ctx, gd.CredentialsFile, gd.TokenFile, gd.FolderName, stdio{})
		if err == nil {
			next = client
		}
	case "minio":
		mc := cfg.Archive.MinIO
		var archiver *storage.MinIOArchiver
		archiver, err = storage.NewMinIOArchiver(ctx, mc.Endpoint, mc.Region, mc.Bucket, mc.AccessKey, mc.SecretKey, mc.UseSSL)
		if err == nil {
			next = archiver
		}
	default:
		return nil
	}

	if err != nil {
		log.WithError(err).Warnf("%s archive not available, saving locally only", cfg.Archive.Backend)
		return nil
	}
	log.Infof("%s archive enabled", cfg.Archive.Backend)
	return storage.NewRetryingArchiver(next, archiveAttempts, log.WithField("module", "archive"))
}

// OpenHistory opens the results database, or returns nil when the path is
// empty.
func OpenHistory(cfg *config.Config) (*storage.MetadataDB, error) {
	if cfg.Storage.Database == "" {
		return nil, nil
	}
	return storage.NewMetadataDB(cfg.Storage.Database)
}

// stdio is the terminal the OAuth consent prompt talks to.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
