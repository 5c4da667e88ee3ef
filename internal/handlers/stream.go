package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

const streamEnd = "END"

// StreamHandler accepts a clip over a WebSocket: an optional text frame with
// the filename, binary frames with audio, then a text "END" frame. The reply
// is one JSON text frame.
type StreamHandler struct {
	intake *Intake
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(intake *Intake) *StreamHandler {
	return &StreamHandler{intake: intake}
}

type streamReply struct {
	Error  string                `json:"error,omitempty"`
	Code   string                `json:"code,omitempty"`
	JobID  string                `json:"job_id,omitempty"`
	Status string                `json:"status,omitempty"`
	Result *types.AnalysisResult `json:"result,omitempty"`
}

// Handle processes WebSocket connections
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer   bytes.Buffer
		filename = "stream.mp3"
		ended    bool
	)
	log := h.intake.log.WithField("remote", c.RemoteAddr().String())
	log.Debug("websocket connection established")

	for !ended {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("websocket read ended")
			return
		}

		switch messageType {
		case websocket.TextMessage:
			msg := strings.TrimSpace(string(message))
			if msg == streamEnd {
				ended = true
				continue
			}
			if len(msg) > 0 && len(msg) < 200 {
				filename = msg
			}
		case websocket.BinaryMessage:
			if int64(buffer.Len()+len(message)) > h.intake.maxBytes {
				h.reply(c, streamReply{Error: "File too large", Code: "ERR_FILE_TOO_LARGE"})
				return
			}
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		h.reply(c, streamReply{Error: "No audio data received", Code: "ERR_NO_FILE"})
		return
	}

	job, err := h.intake.accept(filename, types.SourceStream, &buffer)
	if err != nil {
		log.WithError(err).Warn("failed to accept streamed clip")
		h.reply(c, streamReply{Error: err.Error(), Code: "ERR_REJECTED"})
		return
	}
	h.reply(c, streamReply{JobID: job.ID, Status: "queued"})

	result, err := h.intake.await(job)
	switch {
	case err != nil:
		h.reply(c, streamReply{JobID: job.ID, Error: "Processing failed", Code: "ERR_PROCESSING_FAILED"})
	case result == nil:
		h.reply(c, streamReply{JobID: job.ID, Status: "processing"})
	default:
		h.reply(c, streamReply{JobID: job.ID, Status: result.Status, Result: result})
	}
}

func (h *StreamHandler) reply(c *websocket.Conn, msg streamReply) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		h.intake.log.WithError(err).Debug("websocket write failed")
	}
}
