package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/config"
	"github.com/insieme-app/insieme-api/internal/database"
	"github.com/insieme-app/insieme-api/internal/docstore"
	"github.com/insieme-app/insieme-api/internal/handler"
	"github.com/insieme-app/insieme-api/internal/middleware"
	"github.com/insieme-app/insieme-api/internal/repository"
	"github.com/insieme-app/insieme-api/internal/router"
	"github.com/insieme-app/insieme-api/internal/service"
	"github.com/insieme-app/insieme-api/pkg/ai"
	cloud "github.com/insieme-app/insieme-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := docstore.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	store := docstore.New(db)

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	aiClient, err := ai.NewClient(ai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.AIModel,
		VisionModel: cfg.AIVisionModel,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	worksheetRepo := repository.NewWorksheetRepository(store)
	submissionRepo := repository.NewSubmissionRepository(store)

	lifecycle := service.NewWorksheetLifecycle(worksheetRepo, logger)
	generationService := service.NewGenerationService(aiClient, uploader, lifecycle, validate, logger)
	gradingService := service.NewGradingService(aiClient, submissionRepo, lifecycle, validate, logger)
	extractionService := service.NewExtractionService(aiClient, uploader, submissionRepo, lifecycle, validate, logger)
	worksheetService := service.NewWorksheetService(worksheetRepo, submissionRepo, redisClient, cfg.WorksheetCacheTTL, logger)

	generateHandler := handler.NewGenerateHandler(generationService, validate, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, extractionService, validate, logger)
	worksheetHandler := handler.NewWorksheetHandler(worksheetService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GenerateHandler:  generateHandler,
		GradingHandler:   gradingHandler,
		WorksheetHandler: worksheetHandler,
		Store:            store,
		Logger:           logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
