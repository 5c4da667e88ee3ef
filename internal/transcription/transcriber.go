package transcription

import (
	"context"
	"errors"
	"fmt"
)

// Transcriber turns a waveform file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// ErrUnintelligible is returned when the service found no recognizable speech.
var ErrUnintelligible = errors.New("Speech recognition could not understand the audio.")

// RequestError wraps a failure talking to the recognition service.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Error with the API: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DisplayMessage renders a transcription failure as the text shown to users.
func DisplayMessage(err error) string {
	var reqErr *RequestError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnintelligible):
		return ErrUnintelligible.Error()
	case errors.As(err, &reqErr):
		return reqErr.Error()
	default:
		return (&RequestError{Err: err}).Error()
	}
}
