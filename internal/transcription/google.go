package transcription

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// recognizer is the slice of the Speech client the transcriber uses.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type speechClient struct {
	client *speech.Client
}

func (s speechClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return s.client.Recognize(ctx, req)
}

// GoogleTranscriber sends mono LINEAR16 waveforms to Cloud Speech-to-Text.
type GoogleTranscriber struct {
	rec          recognizer
	closer       func() error
	languageCode string
	sampleRate   int32
	log          *logrus.Entry
}

// NewGoogleTranscriber dials the Speech API. An empty credentialsFile falls
// back to application default credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile, languageCode string, sampleRate int, log *logrus.Entry) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	t := newGoogleTranscriber(speechClient{client: client}, languageCode, sampleRate, log)
	t.closer = client.Close
	return t, nil
}

func newGoogleTranscriber(rec recognizer, languageCode string, sampleRate int, log *logrus.Entry) *GoogleTranscriber {
	if languageCode == "" {
		languageCode = "en-US"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &GoogleTranscriber{
		rec:          rec,
		closer:       func() error { return nil },
		languageCode: languageCode,
		sampleRate:   int32(sampleRate),
		log:          log,
	}
}

// Transcribe reads the waveform and makes a single synchronous Recognize call.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read waveform: %w", err)
	}

	resp, err := g.rec.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   g.sampleRate,
			AudioChannelCount: 1,
			LanguageCode:      g.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		g.log.WithError(err).Warn("speech recognize failed")
		return "", &RequestError{Err: err}
	}

	var phrases []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			phrases = append(phrases, text)
		}
	}
	if len(phrases) == 0 {
		return "", ErrUnintelligible
	}

	text := strings.Join(phrases, " ")
	g.log.WithField("chars", len(text)).Debug("speech recognize succeeded")
	return text, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTranscriber) Close() error {
	return g.closer()
}
