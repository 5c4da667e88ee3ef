package handlers

import (
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

const driveDownloadURL = "https://drive.google.com/uc"

var (
	driveFilePath = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveIDParam  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	driveBareID   = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// GDriveHandler analyzes a clip shared by Google Drive link
type GDriveHandler struct {
	intake      *Intake
	client      *http.Client
	downloadURL string
}

// NewGDriveHandler creates a new Google Drive handler
func NewGDriveHandler(intake *Intake) *GDriveHandler {
	return &GDriveHandler{
		intake:      intake,
		client:      &http.Client{Timeout: 5 * time.Minute},
		downloadURL: driveDownloadURL,
	}
}

// GDriveRequest represents the request body. Name is the filename used for
// format validation and reports; it defaults to <file id>.mp3.
type GDriveRequest struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Async bool   `json:"async"`
}

// Handle downloads the shared file and runs it like an upload
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}
	if req.URL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "URL is required", "ERR_NO_URL")
	}

	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid Google Drive URL", "ERR_INVALID_URL")
	}
	if req.Name == "" {
		req.Name = fileID + ".mp3"
	}

	log := h.intake.log.WithField("drive_file", fileID)
	log.Info("downloading from Google Drive")

	q := url.Values{"export": {"download"}, "id": {fileID}}
	resp, err := h.client.Get(h.downloadURL + "?" + q.Encode())
	if err != nil {
		log.WithError(err).Error("failed to download from Google Drive")
		return errorJSON(c, fiber.StatusBadGateway, "Failed to download file from Google Drive", "ERR_DOWNLOAD_FAILED")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("google drive file not accessible")
		return errorJSON(c, fiber.StatusBadRequest, "File not accessible (may be private or doesn't exist)", "ERR_FILE_NOT_ACCESSIBLE")
	}

	job, err := h.intake.accept(req.Name, types.SourceGDrive, resp.Body)
	if err != nil {
		return intakeError(c, err, h.intake.maxBytes)
	}

	return h.intake.respond(c, job, req.Async || c.QueryBool("async"))
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(raw string) string {
	for _, re := range []*regexp.Regexp{driveFilePath, driveIDParam, driveBareID} {
		if m := re.FindStringSubmatch(raw); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
