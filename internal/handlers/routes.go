package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Routes bundles every handler the server mounts.
type Routes struct {
	Page    *PageHandler
	Upload  *UploadHandler
	GDrive  *GDriveHandler
	Stream  *StreamHandler
	Results *ResultsHandler
	Logs    func() []string
	Version string
}

// NewRoutes builds all handlers over one intake and results source.
func NewRoutes(intake *Intake, db ResultSource, logs func() []string, version string) Routes {
	return Routes{
		Page:    NewPageHandler(intake),
		Upload:  NewUploadHandler(intake),
		GDrive:  NewGDriveHandler(intake),
		Stream:  NewStreamHandler(intake),
		Results: NewResultsHandler(intake.pool, db, intake.log),
		Logs:    logs,
		Version: version,
	}
}

// Register mounts the routes on app.
func Register(app *fiber.App, r Routes) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": r.Version,
		})
	})

	app.Get("/", r.Page.Form)
	app.Post("/", r.Page.Submit)

	app.Post("/analyze", r.Upload.Handle)
	app.Post("/gdrive", r.GDrive.Handle)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/analyze", websocket.New(r.Stream.Handle))

	app.Get("/jobs/:id", r.Results.Job)
	app.Get("/results", r.Results.List)
	app.Get("/results/export", r.Results.Export)
	app.Get("/results/:id", r.Results.Get)

	app.Get("/logs", func(c *fiber.Ctx) error {
		var lines []string
		if r.Logs != nil {
			lines = r.Logs()
		}
		return c.JSON(fiber.Map{"logs": lines})
	})
}
