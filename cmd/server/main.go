package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/codebuildervaibhav/audio-sentiment/internal/app"
	"github.com/codebuildervaibhav/audio-sentiment/internal/cleanup"
	"github.com/codebuildervaibhav/audio-sentiment/internal/config"
	"github.com/codebuildervaibhav/audio-sentiment/internal/handlers"
	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/queue"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	log := logger.New()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	// Ensure directories exist
	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.WithError(err).Fatal("failed to create temp directory")
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		log.WithError(err).Fatal("failed to create output directory")
	}

	log.Info("initializing components")
	ctx := context.Background()

	transcriber, err := app.NewTranscriber(ctx, cfg, log.Module("transcription"))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize transcription backend")
	}
	defer transcriber.Close()
	log.WithField("backend", cfg.Transcription.Backend).Info("transcription backend ready")

	pipe := app.NewPipeline(cfg, transcriber, log.Entry)

	// Sinks. Interface fields stay nil unless the backing store exists.
	sinks := queue.Sinks{Reports: storage.NewLocalStorage(cfg.Storage.OutputDir)}
	if archiver := app.NewArchiver(ctx, cfg, log.Module("archive")); archiver != nil {
		sinks.Archive = archiver
	}

	db, err := app.OpenHistory(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	var results handlers.ResultSource
	if db != nil {
		defer db.Close()
		sinks.Database = db
		results = db
	}

	// Worker pool
	workerPool := queue.NewWorkerPool(cfg.Workers.Count, cfg.Workers.QueueSize, pipe, sinks, log.Module("queue"))
	workerPool.Start()

	// Cleanup scheduler
	scheduler := cleanup.NewScheduler(cfg.Storage.TempDir, cfg.Cleanup.IntervalMinutes, cfg.Cleanup.MaxAgeHours, log.Module("cleanup"))
	scheduler.OnSweep(func(maxAge time.Duration) {
		if n := workerPool.Prune(maxAge); n > 0 {
			log.WithField("jobs", n).Debug("pruned finished jobs")
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Create Fiber app
	server := fiber.New(fiber.Config{
		BodyLimit:             (cfg.Limits.MaxFileSizeMB + 1) * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	server.Use(recover.New())
	server.Use(fiberlogger.New(fiberlogger.Config{Output: log.Writer()}))
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	intake := handlers.NewIntake(
		workerPool,
		cfg.Storage.TempDir,
		cfg.Limits.AllowedFormats,
		cfg.Limits.MaxFileSizeMB,
		time.Duration(cfg.Workers.WaitSeconds)*time.Second,
		log.Module("handlers"),
	)
	handlers.Register(server, handlers.NewRoutes(intake, results, log.Lines, version))

	addr := cfg.Addr()
	log.WithField("addr", addr).Info("server starting")
	log.Info("endpoints: GET|POST / (page), POST /analyze, POST /gdrive, GET /ws/analyze, " +
		"GET /jobs/:id, GET /results, GET /results/:id, GET /results/export, GET /logs, GET /health")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("shutting down gracefully")
		if err := server.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.WithError(err).Warn("http shutdown incomplete")
		}
	}()

	if err := server.Listen(addr); err != nil {
		log.WithError(err).Error("server failed")
	}

	// Drain queued jobs before the deferred closes run.
	workerPool.Stop()
	log.Info("server stopped")
}
