package main

import (
	"fmt"
	"os"
	"time"

	"github.com/artograph/artograph-backend/internal/clients/openai"
	"github.com/artograph/artograph-backend/internal/clients/sendgrid"
	"github.com/artograph/artograph-backend/internal/config"
	"github.com/artograph/artograph-backend/internal/db"
	"github.com/artograph/artograph-backend/internal/handlers"
	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/middleware"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/server"
	"github.com/artograph/artograph-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	clientRepo := repos.NewClientRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	assignmentRepo := repos.NewAssignmentRepo(thePG, log)
	templateRepo := repos.NewTemplateRepo(thePG, log)
	emailLogRepo := repos.NewEmailLogRepo(thePG, log)

	// Provider clients. The OpenAI client only exists outside mock
	// mode; a missing key means mock and never a startup failure.
	log.Info("Setting up provider clients from main...")
	generatorConfig := services.GeneratorConfigFromEnv()
	var openaiClient openai.Client
	if !generatorConfig.Mock {
		openaiClient, err = openai.New(log, openai.ConfigFromEnv(log, cfg.AIModel))
		if err != nil {
			log.Fatal("Could not init OpenAI client", "error", err)
		}
	}
	sendgridConfig := sendgrid.ConfigFromEnv(log)
	sendgridConfig.DefaultFromEmail = cfg.EmailFromAddr
	sendgridConfig.DefaultFromName = cfg.EmailFromName
	sendgridClient, err := sendgrid.New(log, sendgridConfig)
	if err != nil {
		log.Fatal("Could not init SendGrid client", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, cfg.JWTSecretKey, time.Duration(cfg.AccessTokenTTL)*time.Second)
	clientService := services.NewClientService(thePG, log, clientRepo, userRepo)
	sessionService := services.NewSessionService(thePG, log, sessionRepo, clientRepo)
	generatorService, err := services.NewGeneratorService(log, generatorConfig, openaiClient)
	if err != nil {
		log.Fatal("Could not init generator", "error", err)
	}
	assignmentService := services.NewAssignmentService(thePG, log, assignmentRepo, clientRepo, sessionRepo, templateRepo, userRepo, generatorService)
	emailService := services.NewEmailService(thePG, log, assignmentRepo, emailLogRepo, sendgridClient)
	templateService := services.NewTemplateService(thePG, log, templateRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	healthHandler := handlers.NewHealthHandler(thePG)
	authHandler := handlers.NewAuthHandler(authService)
	clientHandler := handlers.NewClientHandler(clientService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, emailService)
	templateHandler := handlers.NewTemplateHandler(templateService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:      cfg.AllowOrigins,
		AuthMiddleware:    authMiddleware,
		HealthHandler:     healthHandler,
		AuthHandler:       authHandler,
		ClientHandler:     clientHandler,
		SessionHandler:    sessionHandler,
		AssignmentHandler: assignmentHandler,
		TemplateHandler:   templateHandler,
	})

	log.Info("Starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
