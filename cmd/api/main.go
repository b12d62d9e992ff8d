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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/config"
	"github.com/lumora-hq/lumora-api/internal/database"
	"github.com/lumora-hq/lumora-api/internal/handler"
	"github.com/lumora-hq/lumora-api/internal/middleware"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
	"github.com/lumora-hq/lumora-api/internal/router"
	"github.com/lumora-hq/lumora-api/internal/service"
	"github.com/lumora-hq/lumora-api/pkg/certificate"
	"github.com/lumora-hq/lumora-api/pkg/mailer"
	"github.com/lumora-hq/lumora-api/pkg/storage"
)

const notificationSubject = "lumora.notifications"

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

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Video{},
		&models.VideoProgress{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Certificate{},
		&models.Contact{},
		&models.ContactList{},
		&models.ContactListMember{},
		&models.EmailTemplate{},
		&models.Workflow{},
		&models.WorkflowExecution{},
		&models.WorkflowScheduledStep{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, trigger deduplication disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, notification fan-out disabled")
	}

	uploader, err := storage.New(storage.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CertificateFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var mail mailer.Mailer
	if cfg.SendGridAPIKey != "" {
		mail, err = mailer.NewSendGridMailer(mailer.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromName:  cfg.MailFromName,
			FromEmail: cfg.MailFromEmail,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid mailer: %v", err)
		}
	} else {
		logger.Warn().Msg("sendgrid api key not configured, using log mailer")
		mail = mailer.NewLogMailer(logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	contactRepo := repository.NewContactRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	renderer := certificate.NewRenderer(uploader, logger)

	notificationService := service.NewNotificationService(notificationRepo, natsConn, notificationSubject, validate, logger)
	completionService := service.NewCourseCompletionService(courseRepo, quizRepo, certificateRepo, studentRepo, renderer, notificationService, logger)
	gradingService := service.NewQuizGradingService(quizRepo, completionService, validate, logger)
	progressService := service.NewVideoProgressService(courseRepo, completionService, validate, logger)
	quizAdminService := service.NewQuizAdminService(quizRepo, courseRepo, validate, logger)
	certificateService := service.NewCertificateService(certificateRepo, logger)
	contactService := service.NewContactService(contactRepo, validate, logger)

	engine := service.NewWorkflowEngine(workflowRepo, contactRepo, templateRepo, mail, notificationService, logger)
	workflowService := service.NewWorkflowService(workflowRepo, engine, redisClient, cfg.TriggerDedupeTTL, validate, logger)
	workflowAdminService := service.NewWorkflowAdminService(workflowRepo, validate, logger)

	scheduler := service.NewWorkflowScheduler(workflowRepo, engine, cfg.SchedulerBatchSize, logger)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("failed to start workflow scheduler: %v", err)
	}

	quizHandler := handler.NewQuizHandler(gradingService, quizAdminService, logger)
	courseHandler := handler.NewCourseHandler(progressService, completionService, certificateService, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowAdminService, workflowService, logger)
	contactHandler := handler.NewContactHandler(contactService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		QuizHandler:         quizHandler,
		CourseHandler:       courseHandler,
		WorkflowHandler:     workflowHandler,
		ContactHandler:      contactHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, scheduler)
}

func waitForShutdown(app *fiber.App, scheduler *service.WorkflowScheduler) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
