package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrConversion marks any failure to produce a waveform from the input clip.
var ErrConversion = errors.New("audio conversion failed")

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Converter turns uploaded clips into 16-bit mono PCM WAV files via ffmpeg.
type Converter struct {
	binary     string
	sampleRate int
	run        CommandRunner
	log        *logrus.Entry
}

// NewConverter creates a converter that invokes the given ffmpeg binary.
func NewConverter(binary string, sampleRate int, log *logrus.Entry) *Converter {
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Converter{
		binary:     binary,
		sampleRate: sampleRate,
		run:        execRunner,
		log:        log,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Converter) WithCommandRunner(run CommandRunner) {
	c.run = run
}

// WaveformPath returns where the WAV for inputPath is written: same directory
// and basename with a .wav extension. A .wav input gets a distinct sibling so
// ffmpeg never reads and writes the same file.
func WaveformPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	if strings.EqualFold(ext, ".wav") {
		return base + ".16k.wav"
	}
	return base + ".wav"
}

// ToWAV converts inputPath and returns the waveform path. Failures are logged
// with ffmpeg's output and returned wrapping ErrConversion.
func (c *Converter) ToWAV(ctx context.Context, inputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		c.log.WithError(err).WithField("input", inputPath).Error("conversion input missing")
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}

	outputPath := WaveformPath(inputPath)
	output, err := c.run(ctx, c.binary,
		"-hide_banner",
		"-i", inputPath,
		"-ar", strconv.Itoa(c.sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"input":  inputPath,
			"output": strings.TrimSpace(string(output)),
		}).Error("ffmpeg failed")
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: ffmpeg: %v", ErrConversion, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		c.log.WithField("output_path", outputPath).Error("ffmpeg produced no waveform")
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: no waveform written to %s", ErrConversion, outputPath)
	}

	c.log.WithFields(logrus.Fields{
		"input":  filepath.Base(inputPath),
		"output": filepath.Base(outputPath),
		"bytes":  info.Size(),
	}).Debug("converted clip to wav")
	return outputPath, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ValidateAudioFormat checks the filename extension against the allowed list.
func ValidateAudioFormat(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, format := range allowed {
		format = strings.ToLower(strings.TrimSpace(format))
		if !strings.HasPrefix(format, ".") {
			format = "." + format
		}
		if ext == format {
			return true
		}
	}
	return false
}
