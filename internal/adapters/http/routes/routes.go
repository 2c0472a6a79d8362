package routes

import (
	"escolapay/internal/adapters/http/handlers"
	"escolapay/internal/adapters/http/middleware"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/config"
	"escolapay/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	schoolRepo := repositories.NewSchoolRepository(db)
	productRepo := repositories.NewProductRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, accountRepo, refreshTokenRepo, cfg)
	studentService := services.NewStudentService(userRepo, accountRepo, schoolRepo, productRepo, paymentRepo)
	schoolService := services.NewSchoolService(schoolRepo, userRepo)
	productService := services.NewProductService(productRepo, userRepo, settingsRepo)
	paymentService := services.NewPaymentService(paymentRepo, userRepo)
	checkoutService := services.NewCheckoutService(paymentRepo, userRepo, cfg)
	settingsService := services.NewSettingsService(settingsRepo)
	lateFeeService := services.NewLateFeeService(db, settingsRepo)
	dashboardService := services.NewDashboardService(db, userRepo, paymentRepo, paymentService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	studentHandler := handlers.NewStudentHandler(studentService)
	schoolHandler := handlers.NewSchoolHandler(schoolService)
	productHandler := handlers.NewProductHandler(productService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	cronHandler := handlers.NewCronHandler(lateFeeService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public + protected)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Gateway webhook (public; the gateway authenticates with its payload,
	// and only PENDING rows can transition)
	apiV1.Post("/webhooks/payments", checkoutHandler.Webhook)

	// Cron trigger (shared-secret bearer)
	cronRoutes := apiV1.Group("/cron")
	cronRoutes.Use(middleware.CronAuth(cfg.Cron.Secret))
	cronRoutes.Post("/apply-late-fees", cronHandler.ApplyLateFees)

	// Admin routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, studentHandler, schoolHandler, productHandler,
		paymentHandler, settingsHandler, dashboardHandler)

	// Student dashboard routes
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.StudentOnly())
	setupDashboardRoutes(dashboardRoutes, dashboardHandler, checkoutHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited: credentials endpoints are brute-force bait)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/setup-password", middleware.StrictRateLimiter(), handler.SetupPassword)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Get("/check-temp-password", middleware.AuthMiddleware(cfg), handler.CheckTempPassword)
	router.Post("/change-password", middleware.AuthMiddleware(cfg), middleware.StrictRateLimiter(), handler.ChangePassword)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupAdminRoutes configures the admin panel routes
func setupAdminRoutes(
	router fiber.Router,
	studentHandler *handlers.StudentHandler,
	schoolHandler *handlers.SchoolHandler,
	productHandler *handlers.ProductHandler,
	paymentHandler *handlers.PaymentHandler,
	settingsHandler *handlers.SettingsHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	// Students
	router.Post("/students", studentHandler.Create)
	router.Get("/students", middleware.NoCacheHeaders(), studentHandler.List)
	router.Post("/students/import", middleware.StrictRateLimiter(), studentHandler.Import)
	router.Get("/students/:id", middleware.NoCacheHeaders(), studentHandler.Get)
	router.Put("/students/:id", studentHandler.Update)
	router.Delete("/students/:id", studentHandler.Delete)
	router.Get("/students/:id/schedule", middleware.NoCacheHeaders(), paymentHandler.GetStudentSchedule)

	// Schools and divisions
	router.Post("/schools", schoolHandler.Create)
	router.Get("/schools", middleware.CatalogCache(), schoolHandler.List)
	router.Get("/schools/:id", schoolHandler.Get)
	router.Put("/schools/:id", schoolHandler.Update)
	router.Delete("/schools/:id", schoolHandler.Delete)
	router.Post("/schools/:id/divisions", schoolHandler.CreateDivision)
	router.Get("/schools/:id/divisions", schoolHandler.ListDivisions)

	// Products
	router.Post("/products", productHandler.Create)
	router.Get("/products", middleware.CatalogCache(), productHandler.List)
	router.Get("/products/:id", productHandler.Get)
	router.Put("/products/:id", productHandler.Update)
	router.Put("/products/:id/price", productHandler.UpdatePrice)
	router.Delete("/products/:id", productHandler.Delete)

	// Payments
	router.Get("/payments", middleware.NoCacheHeaders(), paymentHandler.List)
	router.Post("/payments/cash", paymentHandler.SubmitCash)
	router.Get("/payments/:id", paymentHandler.Get)
	router.Post("/payments/:id/reject", paymentHandler.Reject)

	// Settings
	router.Get("/settings", settingsHandler.List)
	router.Put("/settings/:key", settingsHandler.Update)

	// Overview
	router.Get("/stats", middleware.NoCacheHeaders(), dashboardHandler.AdminStats)
}

// setupDashboardRoutes configures the student-facing routes
func setupDashboardRoutes(
	router fiber.Router,
	dashboardHandler *handlers.DashboardHandler,
	checkoutHandler *handlers.CheckoutHandler,
) {
	router.Get("/", middleware.NoCacheHeaders(), dashboardHandler.Student)
	router.Post("/checkout", checkoutHandler.Create)
}
