package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/artograph/artograph-backend/internal/handlers"
	"github.com/artograph/artograph-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins      []string
	AuthMiddleware    *middleware.AuthMiddleware
	HealthHandler     *handlers.HealthHandler
	AuthHandler       *handlers.AuthHandler
	ClientHandler     *handlers.ClientHandler
	SessionHandler    *handlers.SessionHandler
	AssignmentHandler *handlers.AssignmentHandler
	TemplateHandler   *handlers.TemplateHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.POST("/auth/register", cfg.AuthHandler.Register)
	router.POST("/auth/login", cfg.AuthHandler.Login)

	// Practice routes run with optional auth: the desktop app talks to
	// them without a login, but a token still scopes template
	// visibility and audit fields when present.
	open := router.Group("/")
	open.Use(cfg.AuthMiddleware.OptionalAuth())
	// Clients
	open.GET("/clients", cfg.ClientHandler.ListClients)
	open.POST("/clients", cfg.ClientHandler.CreateClient)
	// Sessions
	open.GET("/sessions", cfg.SessionHandler.ListSessions)
	open.POST("/sessions", cfg.SessionHandler.CreateSession)
	// Assignments
	open.GET("/assignments", cfg.AssignmentHandler.ListAssignments)
	open.POST("/assignments", cfg.AssignmentHandler.CreateAssignment)
	open.POST("/assignments/generate", cfg.AssignmentHandler.GenerateAssignment)
	open.GET("/assignments/:id", cfg.AssignmentHandler.GetAssignment)
	open.PUT("/assignments/:id", cfg.AssignmentHandler.UpdateAssignment)
	open.DELETE("/assignments/:id", cfg.AssignmentHandler.DeleteAssignment)
	open.POST("/assignments/:id/clone", cfg.AssignmentHandler.CloneAssignment)
	open.POST("/assignments/:id/send", cfg.AssignmentHandler.SendAssignment)
	open.GET("/assignments/:id/emails", cfg.AssignmentHandler.ListEmailLogs)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Clients
	protected.GET("/clients/:id", cfg.ClientHandler.GetClient)
	protected.PUT("/clients/:id", cfg.ClientHandler.UpdateClient)
	// Templates (listing is further role-scoped inside the service)
	protected.GET("/templates", cfg.TemplateHandler.ListTemplates)
	protected.POST("/templates", cfg.TemplateHandler.CreateTemplate)
	protected.GET("/templates/:id", cfg.TemplateHandler.GetTemplate)
	protected.PUT("/templates/:id", cfg.TemplateHandler.UpdateTemplate)
	protected.POST("/assignments/:id/save-template", cfg.AssignmentHandler.SaveAsTemplate)

	return router
}
