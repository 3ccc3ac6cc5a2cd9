package main

import (
	"context"
	"os"
	"time"

	"membership-api/internal/api"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		logging.InitLogging()
		logging.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Missing secrets are a configuration error; fail at startup, never
	// per-request.
	if err := config.AppConfig.Validate(); err != nil {
		logging.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}

	if err := os.MkdirAll(config.AppConfig.ReceiptUploadDir, 0o755); err != nil {
		logging.Fatalf("Failed to create receipt upload dir: %v", err)
	}

	// Set Gin mode
	gin.SetMode(config.AppConfig.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	if err := api.SetupRoutes(r); err != nil {
		logging.Fatalf("Failed to set up routes: %v", err)
	}

	// Start the background sweeps (scheduled unfreezes, expiry reminders)
	reminders := services.NewReminderService(
		config.AppConfig.BrevoAPIKey,
		config.AppConfig.BrevoFromEmail,
		config.AppConfig.BrevoFromName,
	)
	scheduler := services.NewSchedulerService(
		services.NewFreezeService(),
		reminders,
		time.Duration(config.AppConfig.SweepIntervalMinutes)*time.Minute,
		config.AppConfig.ReminderDaysBeforeExpiry,
	)
	scheduler.Start(context.Background())

	// Start server
	port := config.AppConfig.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		logging.Fatalf("Failed to start server: %v", err)
	}
}
