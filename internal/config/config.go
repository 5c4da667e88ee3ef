package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Transcription struct {
		Backend         string `yaml:"backend"` // google | openai
		LanguageCode    string `yaml:"language_code"`
		CredentialsFile string `yaml:"credentials_file"`
		OpenAIKey       string `yaml:"openai_api_key"`
		OpenAIModel     string `yaml:"openai_model"`
	} `yaml:"transcription"`

	FFmpeg struct {
		Binary     string `yaml:"binary"`
		SampleRate int    `yaml:"sample_rate"`
	} `yaml:"ffmpeg"`

	Pipeline struct {
		ScoreFailedTranscripts bool `yaml:"score_failed_transcripts"`
		TimeoutSeconds         int  `yaml:"timeout_seconds"`
	} `yaml:"pipeline"`

	Workers struct {
		Count       int `yaml:"count"`
		QueueSize   int `yaml:"queue_size"`
		WaitSeconds int `yaml:"wait_seconds"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Archive struct {
		Backend string `yaml:"backend"` // none | gdrive | minio

		GoogleDrive struct {
			CredentialsFile string `yaml:"credentials_file"`
			TokenFile       string `yaml:"token_file"`
			FolderName      string `yaml:"folder_name"`
		} `yaml:"google_drive"`

		MinIO struct {
			Endpoint  string `yaml:"endpoint"`
			Region    string `yaml:"region"`
			Bucket    string `yaml:"bucket"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
	} `yaml:"archive"`

	Limits struct {
		MaxFileSizeMB  int      `yaml:"max_file_size_mb"`
		AllowedFormats []string `yaml:"allowed_formats"`
	} `yaml:"limits"`
}

// Default returns a configuration usable without any file on disk.
func Default() *Config {
	var c Config
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Transcription.Backend = "google"
	c.Transcription.LanguageCode = "en-US"
	c.Transcription.OpenAIModel = "whisper-1"
	c.FFmpeg.Binary = "ffmpeg"
	c.FFmpeg.SampleRate = 16000
	c.Pipeline.ScoreFailedTranscripts = true
	c.Workers.Count = 1
	c.Workers.QueueSize = 100
	c.Workers.WaitSeconds = 300
	c.Storage.TempDir = "temp"
	c.Storage.OutputDir = "outputs"
	c.Storage.Database = "data/results.db"
	c.Cleanup.IntervalMinutes = 30
	c.Cleanup.MaxAgeHours = 6
	c.Archive.Backend = "none"
	c.Archive.GoogleDrive.FolderName = "Sentiment Reports"
	c.Archive.MinIO.Bucket = "sentiment-reports"
	c.Limits.MaxFileSizeMB = 50
	c.Limits.AllowedFormats = []string{".mp3"}
	return &c
}

// Load reads .env, then the YAML file at path on top of the defaults, then
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("AUDIOSENTIMENT_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.Transcription.CredentialsFile == "" {
		c.Transcription.CredentialsFile = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Transcription.OpenAIKey = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Archive.MinIO.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Archive.MinIO.SecretKey = v
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transcription.Backend {
	case "google":
	case "openai":
		if c.Transcription.OpenAIKey == "" {
			problems = append(problems, "transcription.openai_api_key (or OPENAI_API_KEY) required for openai backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("transcription.backend %q must be google or openai", c.Transcription.Backend))
	}
	if c.FFmpeg.SampleRate <= 0 {
		problems = append(problems, "ffmpeg.sample_rate must be positive")
	}
	if c.Workers.Count < 1 {
		problems = append(problems, "workers.count must be at least 1")
	}
	if c.Workers.WaitSeconds < 1 {
		problems = append(problems, "workers.wait_seconds must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		problems = append(problems, "workers.queue_size must be at least 1")
	}
	if c.Storage.TempDir == "" {
		problems = append(problems, "storage.temp_dir is required")
	}
	if c.Cleanup.IntervalMinutes < 1 || c.Cleanup.MaxAgeHours < 1 {
		problems = append(problems, "cleanup interval and max age must be at least 1")
	}
	switch c.Archive.Backend {
	case "", "none", "gdrive":
	case "minio":
		if c.Archive.MinIO.Endpoint == "" || c.Archive.MinIO.Bucket == "" {
			problems = append(problems, "archive.minio endpoint and bucket are required")
		}
	default:
		problems = append(problems, fmt.Sprintf("archive.backend %q must be none, gdrive or minio", c.Archive.Backend))
	}
	if c.Limits.MaxFileSizeMB < 1 {
		problems = append(problems, "limits.max_file_size_mb must be at least 1")
	}
	if len(c.Limits.AllowedFormats) == 0 {
		problems = append(problems, "limits.allowed_formats must list at least one extension")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
