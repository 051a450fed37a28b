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

	"github.com/eduassign/eduassign-gateway/internal/config"
	"github.com/eduassign/eduassign-gateway/internal/database"
	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/handler"
	"github.com/eduassign/eduassign-gateway/internal/identity"
	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/repository"
	"github.com/eduassign/eduassign-gateway/internal/router"
	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/session"
	"github.com/eduassign/eduassign-gateway/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var resolver service.URLResolver = storage.Disabled{}
	if cfg.CloudinaryCloudName != "" {
		storageService, err := storage.New(storage.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create storage client: %v", err)
		}
		resolver = storageService
	} else {
		logger.Warn().Msg("document storage credentials missing; document resolution disabled")
	}

	gradingClient := gradeapi.NewClient(cfg.GradingAPIBaseURL, cfg.GradingAPITimeout, logger)
	identityClient := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey, cfg.GradingAPITimeout, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	draftRepo := repository.NewDraftRepository(redisClient, cfg.DraftTTL)
	evaluationRepo := repository.NewEvaluationRepository(redisClient, cfg.EvaluationMarkerTTL)
	tokenRepo := repository.NewTokenRepository(redisClient)

	sessions := session.NewManager(identityClient, tokenRepo, cfg.JWTSecret, cfg.SessionTTL, logger)

	assignmentService := service.NewAssignmentService(gradingClient, validate, logger)
	submissionService := service.NewSubmissionService(gradingClient, evaluationRepo, validate, logger)
	feedbackService := service.NewFeedbackService(gradingClient, draftRepo, validate, logger)
	documentService := service.NewDocumentService(resolver, logger)

	authHandler := handler.NewAuthHandler(sessions, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		FeedbackHandler:   feedbackHandler,
		DocumentHandler:   documentHandler,
		SessionResolver:   sessions,
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
