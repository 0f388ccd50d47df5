package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"gastos/internal/config"
	"gastos/internal/database"
	"gastos/internal/logger"
	"gastos/internal/pagination"
	"gastos/internal/server"
	"gastos/internal/validator"
)

// @title           Gastos API
// @version         1.0
// @description     Personal finance backend: transactions, CSV bank statement import, auto-categorization rules and dashboard analytics.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()

	if err := run(appConfig); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(appConfig *config.Config) error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pagination.DefaultPageSize = appConfig.ListingDefaultPageSize

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	router := server.NewRouter(dbManager.DB(), server.Options{
		CORSAllowedOrigins: appConfig.CORSAllowedOrigins,
		MaxUploadBytes:     appConfig.MaxUploadBytes(),
		RequestLogging:     true,
	})

	log.Infof("Starting gastos server on port %s (db: %s)", appConfig.Port, dbConfig.Driver)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return server.Run(ctx, ":"+appConfig.Port, router)
}
