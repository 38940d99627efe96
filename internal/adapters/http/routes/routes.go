package routes

import (
	"fmt"
	"log"
	"time"

	"audiochamber/internal/adapters/http/handlers"
	"audiochamber/internal/adapters/http/middleware"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/config"
	"audiochamber/internal/core/services"
	"audiochamber/internal/pkg/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services are the long-lived services main drives after wiring
type Services struct {
	Auth         *services.AuthService
	Booking      *services.BookingService
	Notification *services.NotificationService
}

// Options overrides collaborators, mainly for tests
type Options struct {
	Mailer   mailer.Mailer
	Calendar services.CalendarClient
	Identity services.IdentityProvider
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, opts Options) (*Services, error) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)

	// External collaborators
	if opts.Mailer == nil {
		opts.Mailer = newMailer(cfg.Mail)
	}
	if cfg.GoogleEnabled() && (opts.Calendar == nil || opts.Identity == nil) {
		google, err := services.NewGoogleService(cfg.Google, userRepo)
		if err != nil {
			return nil, fmt.Errorf("google service: %w", err)
		}
		if opts.Calendar == nil {
			opts.Calendar = google
		}
		if opts.Identity == nil {
			opts.Identity = google
		}
		log.Println("✅ Google sign-in and calendar enabled")
	}

	// Initialize services
	notificationService := services.NewNotificationService(opts.Mailer, cfg.Booking.OwnerEmails, cfg.FrontendURL, cfg.Mail.Timeout)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, opts.Identity, cfg)
	userService := services.NewUserService(userRepo, refreshTokenRepo)
	bookingService := services.NewBookingService(bookingRepo, userRepo, notificationService, opts.Calendar)
	dashboardService := services.NewDashboardService(db, cfg.Location())

	// OAuth state lives in a short server-side session
	sessions := session.New(session.Config{
		Expiration:     10 * time.Minute,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Cookie.Secure,
		CookieSameSite: "Lax",
	})

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, userService, sessions, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	requireAuth := middleware.AuthMiddleware(cfg, userRepo)
	optionalAuth := middleware.OptionalAuth(cfg, userRepo)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)
	apiV1.Get("/health", healthHandler.HealthCheck)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, requireAuth)
	setupBookingRoutes(apiV1.Group("/bookings"), bookingHandler, requireAuth, optionalAuth)

	// Dashboard routes
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(requireAuth, middleware.PrivateCacheHeaders(0))
	dashboardRoutes.Get("/", dashboardHandler.GetMyDashboard)
	dashboardRoutes.Get("/approver", middleware.ApproverOnly(), dashboardHandler.GetApproverDashboard)

	// User management routes (Admin/Owner only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(requireAuth, middleware.ApproverOnly(), middleware.NoCacheHeaders())
	setupUserRoutes(userRoutes, userHandler)

	return &Services{
		Auth:         authService,
		Booking:      bookingService,
		Notification: notificationService,
	}, nil
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, requireAuth fiber.Handler) {
	// Public routes (5 req/min/IP on credential endpoints)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Google sign-in
	router.Get("/google/url", handler.GoogleURL)
	router.Get("/google/callback", handler.GoogleCallback)

	// Protected routes
	router.Get("/me", requireAuth, middleware.NoCacheHeaders(), handler.Me)
	router.Post("/logout-all", requireAuth, handler.LogoutAll)
	router.Put("/password", requireAuth, middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupBookingRoutes configures booking routes.
// Static paths are registered before /:id so they are not read as ids.
func setupBookingRoutes(router fiber.Router, handler *handlers.BookingHandler, requireAuth, optionalAuth fiber.Handler) {
	// Public routes
	router.Get("/slots", middleware.CacheControl(time.Hour), handler.Slots)
	router.Get("/availability/:date", middleware.NoCacheHeaders(), handler.Availability)
	router.Get("/token/:token", handler.GetByToken)
	router.Get("/", optionalAuth, handler.ListBookings)
	router.Post("/", optionalAuth, handler.CreateBooking)

	// Authenticated routes
	router.Get("/my", requireAuth, middleware.PrivateCacheHeaders(0), handler.MyBookings)
	router.Get("/:id", requireAuth, handler.GetBooking)
	router.Delete("/:id", requireAuth, handler.DeleteBooking)

	// Approver routes
	router.Post("/:id/approve", requireAuth, middleware.ApproverOnly(), handler.ApproveBooking)
	router.Post("/:id/reject", requireAuth, middleware.ApproverOnly(), handler.RejectBooking)
}

// setupUserRoutes configures user management routes (Admin/Owner only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id/role", handler.UpdateRole)
	router.Put("/:id/status", handler.UpdateStatus)
	router.Delete("/:id", handler.DeleteUser)
}

func newMailer(cfg config.MailConfig) mailer.Mailer {
	if cfg.Host == "" {
		log.Println("⚠️ SMTP_HOST not set, emails will be logged instead of sent")
		return mailer.LogMailer{}
	}
	return mailer.NewSMTP(mailer.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	})
}
