package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yukikurage/task-tracker/internal/auth"
	"github.com/yukikurage/task-tracker/internal/config"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/database"
	"github.com/yukikurage/task-tracker/internal/logger"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/router"
	"github.com/yukikurage/task-tracker/internal/services"
)

func main() {
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.GinMode)
	slog.SetDefault(log)

	if envErr != nil {
		if errors.Is(envErr, fs.ErrNotExist) {
			log.Info("no .env file, using process environment")
		} else {
			log.Warn("failed to load .env file", "error", envErr)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, constants.SessionTTL)
	if err != nil {
		log.Error("failed to create token manager", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(database.GetDB())
	authService := services.NewAuthService(store.Users(), tokens, cfg.LoginIdentifier)

	r := router.NewRouter(cfg, log, router.NewServices(store, authService))

	// Start server
	log.Info("server starting", "port", cfg.Port, "db_driver", cfg.DBDriver)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
