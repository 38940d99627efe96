package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"audiochamber/internal/adapters/http/middleware"
	"audiochamber/internal/adapters/http/routes"
	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/config"
	"audiochamber/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "audiochamber/docs" // Swagger docs
)

// @title Audio Chamber API
// @version 1.0
// @description Booking API for the Audio Chamber recording room
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@audiochamber.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:5000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed data: %v", err)
		}
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Audio Chamber API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	svcs, err := routes.Setup(app, db, cfg, routes.Options{})
	if err != nil {
		log.Fatalf("❌ Failed to setup routes: %v", err)
	}

	// Start Cron Service for reminders and token cleanup
	cronService := services.NewCronService(svcs.Booking, svcs.Auth, cfg.Location())
	if err := cronService.Register(cfg.Booking.ReminderSpec, cfg.Booking.CleanupSpec); err != nil {
		log.Fatalf("❌ Invalid cron spec: %v", err)
	}
	cronService.Start()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	cronService.Stop()
	svcs.Notification.Wait()
	log.Println("✅ Server stopped gracefully")
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
}
