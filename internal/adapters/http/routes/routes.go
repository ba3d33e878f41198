package routes

import (
	"time"

	"koperasi-bci/internal/adapters/http/handlers"
	"koperasi-bci/internal/adapters/http/middleware"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/config"
	"koperasi-bci/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. It returns the cron
// service so main can start and stop it with the server lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	savingRepo := repositories.NewSavingRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(userRepo, refreshTokenRepo, savingRepo, cfg)
	userService := services.NewUserService(userRepo)
	loanService := services.NewLoanService(loanRepo, paymentRepo, userRepo, notifyService, cfg.App.DefaultRatePercent)
	savingService := services.NewSavingService(savingRepo)
	dashboardService := services.NewDashboardService(db)
	cronService := services.NewCronService(loanRepo, refreshTokenRepo, notifyService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService)
	savingHandler := handlers.NewSavingHandler(savingService, userService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	eventHandler := handlers.NewEventHandler(notifyService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, loanHandler,
		savingHandler, dashboardHandler, eventHandler, cfg)

	return cronService
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	loanHandler *handlers.LoanHandler,
	savingHandler *handlers.SavingHandler,
	dashboardHandler *handlers.DashboardHandler,
	eventHandler *handlers.EventHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	authRoutes.Use(middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Installment estimator (public)
	router.Post("/loans/estimate", loanHandler.Estimate)

	// Loan routes (authenticated members)
	loanRoutes := router.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLoanRoutes(loanRoutes, loanHandler)

	// Payment routes (authenticated members)
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg))
	paymentRoutes.Get("/my", loanHandler.MyPayments)

	// Saving routes (authenticated members)
	savingRoutes := router.Group("/savings")
	savingRoutes.Use(middleware.AuthMiddleware(cfg))
	setupSavingRoutes(savingRoutes, savingHandler)

	// Profile routes (authenticated members)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.PrivateCacheHeaders(30 * time.Second))
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)

	// Event stream (authenticated members)
	eventRoutes := router.Group("/events")
	eventRoutes.Use(middleware.AuthMiddleware(cfg))
	eventRoutes.Use(middleware.NoCacheHeaders())
	eventRoutes.Get("/", eventHandler.Stream)

	// Admin routes
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, userHandler, loanHandler, savingHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes with strict rate limiting
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupLoanRoutes configures member-facing loan routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Post("/", handler.Apply)
	router.Get("/my", handler.ListMine)
	router.Get("/:id", handler.GetByID)
	router.Get("/:id/payments", handler.ListPayments)
	router.Post("/:id/payments", handler.Pay)
}

// setupSavingRoutes configures savings routes
func setupSavingRoutes(router fiber.Router, handler *handlers.SavingHandler) {
	router.Post("/", handler.Deposit)
	router.Get("/", handler.History)
	router.Get("/balance", handler.Balance)
}

// setupProfileRoutes configures profile routes (authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Patch("/", handler.UpdateProfile)
	router.Post("/password", handler.ChangePassword)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	// Member dashboard (all authenticated members)
	router.Get("/member", handler.GetMemberDashboard)

	// Admin dashboard (admin only)
	router.Get("/admin", middleware.AdminOnly(), handler.GetAdminDashboard)
}

// setupAdminRoutes configures admin-only routes
func setupAdminRoutes(router fiber.Router, userHandler *handlers.UserHandler, loanHandler *handlers.LoanHandler, savingHandler *handlers.SavingHandler) {
	// Member management
	router.Get("/users", userHandler.ListUsers)
	router.Get("/users/:id", userHandler.GetUser)
	router.Patch("/users/:id", userHandler.UpdateUser)
	router.Delete("/users/:id", userHandler.DeleteUser)

	// Member savings
	router.Get("/users/:id/savings", savingHandler.AdminHistory)
	router.Post("/users/:id/savings", savingHandler.AdminDeposit)

	// Loan review
	router.Get("/loans", loanHandler.ListAll)
	router.Get("/loans/pending", loanHandler.ListPending)
	router.Post("/loans/:id/approve", loanHandler.Approve)
	router.Post("/loans/:id/reject", loanHandler.Reject)
}
