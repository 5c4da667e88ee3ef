package handlers

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Audio Sentiment Analyzer</title>
<style>
body { font-family: sans-serif; max-width: 42rem; margin: 2rem auto; }
.error { color: #b00020; }
.label-Positive { color: #1b7f3b; }
.label-Negative { color: #b00020; }
.label-Neutral { color: #555; }
</style>
</head>
<body>
<h1>Audio Sentiment Analyzer</h1>
<form method="post" action="/" enctype="multipart/form-data">
  <label>Upload {{.Accept}} file <input type="file" name="file" accept="{{.Accept}}" required></label>
  <button type="submit">Analyze</button>
</form>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{with .Pending}}<p>Still processing. Check <a href="/jobs/{{.}}">/jobs/{{.}}</a>.</p>{{end}}
{{with .Result}}
  {{if eq .FailedStage "convert"}}
  <p class="error">{{.Failure}}</p>
  {{else}}
  <p><strong>Transcribed Text:</strong> {{.Transcript}}</p>
  {{if .Label}}
  <p><strong>Review:</strong> {{.CleanedText}}</p>
  <p><strong>Sentiment Label:</strong> <span class="label-{{.Label}}">{{.Label}}</span> ({{printf "%.4f" .SentimentScore}})</p>
  {{else}}
  <p class="error">{{.Failure}}</p>
  {{end}}
  {{end}}
{{end}}
</body>
</html>
`))

type pageData struct {
	Accept  string
	Error   string
	Pending string
	Result  *types.AnalysisResult
}

// PageHandler is the browser front end: an upload form that renders the
// transcript, cleaned text and label of the submitted clip.
type PageHandler struct {
	intake *Intake
}

func NewPageHandler(intake *Intake) *PageHandler {
	return &PageHandler{intake: intake}
}

func (h *PageHandler) Form(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusOK, pageData{})
}

func (h *PageHandler) Submit(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return h.render(c, fiber.StatusBadRequest, pageData{Error: "No file uploaded."})
	}
	if file.Size > h.intake.maxBytes {
		return h.render(c, fiber.StatusRequestEntityTooLarge, pageData{Error: "File too large (max " + humanMB(h.intake.maxBytes) + ")."})
	}

	src, err := file.Open()
	if err != nil {
		return h.render(c, fiber.StatusInternalServerError, pageData{Error: "Failed to read upload."})
	}
	defer src.Close()

	job, err := h.intake.accept(file.Filename, types.SourceUpload, src)
	switch {
	case err == errInvalidFormat:
		return h.render(c, fiber.StatusBadRequest, pageData{Error: "Unsupported audio format."})
	case err == errTooLarge:
		return h.render(c, fiber.StatusRequestEntityTooLarge, pageData{Error: "File too large (max " + humanMB(h.intake.maxBytes) + ")."})
	case err != nil:
		h.intake.log.WithError(err).Error("page upload rejected")
		return h.render(c, fiber.StatusServiceUnavailable, pageData{Error: "Could not accept the file right now."})
	}

	result, err := h.intake.await(job)
	switch {
	case err != nil:
		return h.render(c, fiber.StatusInternalServerError, pageData{Error: "Processing failed."})
	case result == nil:
		return h.render(c, fiber.StatusAccepted, pageData{Pending: job.ID})
	default:
		return h.render(c, fiber.StatusOK, pageData{Result: result})
	}
}

func (h *PageHandler) render(c *fiber.Ctx, status int, data pageData) error {
	data.Accept = strings.Join(h.intake.allowedFormats, ",")
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
