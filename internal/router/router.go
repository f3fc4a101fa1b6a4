package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/config"
	"github.com/yukikurage/task-tracker/internal/handlers"
	"github.com/yukikurage/task-tracker/internal/logger"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/services"
)

// Services are the dependencies the route table is built from.
type Services struct {
	Auth  *services.AuthService
	Tasks *services.TaskService
	Audit *services.AuditService
	Users *services.UserService
}

// NewServices wires every service over one store.
func NewServices(store repository.Store, authService *services.AuthService) Services {
	audit := services.NewAuditService(store)
	return Services{
		Auth:  authService,
		Tasks: services.NewTaskService(store, audit),
		Audit: audit,
		Users: services.NewUserService(store.Users()),
	}
}

func NewRouter(cfg *config.Config, log *slog.Logger, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", "X-Requested-With", logger.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", logger.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(svc.Auth, cfg.IsProduction())
	taskHandler := handlers.NewTaskHandler(svc.Tasks)
	userHandler := handlers.NewUserHandler(svc.Users)
	auditHandler := handlers.NewAuditHandler(svc.Audit)

	requireAuth := middleware.RequireAuth(svc.Auth)
	leadOnly := middleware.RequireRole(models.RoleLead)
	teamOnly := middleware.RequireRole(models.RoleTeam)
	taskID := middleware.RequireTaskID()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
	}

	// Task routes (protected)
	tasks := r.Group("/tasks", requireAuth)
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", leadOnly, taskHandler.CreateTask)
		tasks.POST("/assign", leadOnly, taskHandler.AssignTask)
		tasks.GET("/:id", taskID, taskHandler.GetTask)
		tasks.PUT("/:id", taskID, taskHandler.UpdateTask)
		tasks.DELETE("/:id", leadOnly, taskID, taskHandler.DeleteTask)
		tasks.PATCH("/:id/status", teamOnly, taskID, taskHandler.UpdateTaskStatus)
	}

	r.GET("/users", requireAuth, leadOnly, userHandler.ListTeamMembers)
	r.GET("/log", requireAuth, leadOnly, auditHandler.ListLogs)

	return r
}
