// Package pipeline runs one clip through convert, transcribe, normalize,
// score and label.
//
// Stage failures are reported on the AnalysisResult rather than as errors.
// A failed conversion stops the run before transcription. A failed
// transcription has its display message scored like a transcript while
// ScoreFailedTranscripts is set (the default configuration); otherwise the
// run stops before scoring.
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/sentiment"
	"github.com/codebuildervaibhav/audio-sentiment/internal/textclean"
	"github.com/codebuildervaibhav/audio-sentiment/internal/transcription"
	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// ConversionFailure is shown when no waveform could be produced.
const ConversionFailure = "Failed to convert the audio file to WAV."

// Converter produces a waveform file from an uploaded clip.
type Converter interface {
	ToWAV(ctx context.Context, inputPath string) (string, error)
}

// Options tune pipeline behaviour.
type Options struct {
	// ScoreFailedTranscripts feeds transcription failure messages into the
	// normalizer and scorer instead of stopping the run.
	ScoreFailedTranscripts bool
	// Timeout bounds a whole run; zero leaves library defaults in charge.
	Timeout time.Duration
}

// Pipeline wires the stages together. It holds no per-run state.
type Pipeline struct {
	converter   Converter
	transcriber transcription.Transcriber
	scorer      sentiment.Scorer
	opts        Options
	log         *logrus.Entry
	now         func() time.Time
}

func New(converter Converter, transcriber transcription.Transcriber, scorer sentiment.Scorer, opts Options, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		converter:   converter,
		transcriber: transcriber,
		scorer:      scorer,
		opts:        opts,
		log:         log,
		now:         time.Now,
	}
}

// Run processes one clip. The clip and its waveform live in the caller's
// workspace, which the caller releases.
func (p *Pipeline) Run(ctx context.Context, clip types.Clip) *types.AnalysisResult {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	log := logger.WithJob(p.log, clip.JobID).WithField("filename", clip.Filename)
	result := &types.AnalysisResult{
		JobID:     clip.JobID,
		Filename:  clip.Filename,
		Source:    clip.Source,
		Status:    types.StatusProcessing,
		CreatedAt: p.now(),
	}

	wavPath, err := p.converter.ToWAV(ctx, clip.Path)
	if err != nil {
		log.WithError(err).Warn("conversion failed, skipping transcription")
		return p.fail(result, types.StageConvert, ConversionFailure)
	}

	text, err := p.transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		msg := transcription.DisplayMessage(err)
		log.WithError(err).Warn("transcription failed")
		result.Transcript = msg
		if !p.opts.ScoreFailedTranscripts {
			return p.fail(result, types.StageTranscribe, msg)
		}
		// The failure text is scored as if it were speech.
		result.FailedStage = types.StageTranscribe
		result.Failure = msg
		text = msg
	} else {
		result.Transcript = text
	}

	result.CleanedText = textclean.Normalize(text)
	result.SentimentScore = p.scorer.Compound(result.CleanedText)
	result.Label = sentiment.LabelFor(result.SentimentScore)
	result.Status = types.StatusCompleted
	result.CompletedAt = p.now()

	log.WithFields(logrus.Fields{
		"score": result.SentimentScore,
		"label": result.Label,
	}).Info("clip analyzed")
	return result
}

func (p *Pipeline) fail(result *types.AnalysisResult, stage, msg string) *types.AnalysisResult {
	result.Status = types.StatusFailed
	result.FailedStage = stage
	result.Failure = msg
	result.CompletedAt = p.now()
	return result
}
