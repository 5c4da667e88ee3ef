package transcription

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type audioTranscriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAITranscriber uses the Whisper transcription endpoint.
type OpenAITranscriber struct {
	client   audioTranscriber
	model    string
	language string
	log      *logrus.Entry
}

func NewOpenAITranscriber(apiKey, model, languageCode string, log *logrus.Entry) *OpenAITranscriber {
	return newOpenAITranscriber(openai.NewClient(apiKey), model, languageCode, log)
}

func newOpenAITranscriber(client audioTranscriber, model, languageCode string, log *logrus.Entry) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	// Whisper takes ISO-639-1, so "en-US" becomes "en".
	lang, _, _ := strings.Cut(languageCode, "-")
	return &OpenAITranscriber{
		client:   client,
		model:    model,
		language: strings.ToLower(lang),
		log:      log,
	}
}

func (o *OpenAITranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: wavPath,
		Language: o.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		o.log.WithError(err).Warn("openai transcription failed")
		return "", &RequestError{Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

func (o *OpenAITranscriber) Close() error {
	return nil
}
