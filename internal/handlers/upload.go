package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// UploadHandler handles multipart clip uploads
type UploadHandler struct {
	intake *Intake
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(intake *Intake) *UploadHandler {
	return &UploadHandler{intake: intake}
}

// Handle processes the upload request. An optional "name" form field
// replaces the uploaded filename. The run is synchronous unless ?async=true
// is given.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded", "ERR_NO_FILE")
	}

	if file.Size > h.intake.maxBytes {
		return intakeError(c, errTooLarge, h.intake.maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		h.intake.log.WithError(err).Error("failed to open uploaded file")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to read upload", "ERR_READ_FAILED")
	}
	defer src.Close()

	name := file.Filename
	if override := c.FormValue("name"); override != "" {
		name = override
	}

	job, err := h.intake.accept(name, types.SourceUpload, src)
	if err != nil {
		if err != errInvalidFormat {
			h.intake.log.WithError(err).Error("failed to accept upload")
		}
		return intakeError(c, err, h.intake.maxBytes)
	}

	return h.intake.respond(c, job, c.QueryBool("async"))
}
