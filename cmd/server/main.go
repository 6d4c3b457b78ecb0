package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/cache"
	"github.com/shubilet/expedition-service/internal/config"
	"github.com/shubilet/expedition-service/internal/database"
	"github.com/shubilet/expedition-service/internal/events"
	"github.com/shubilet/expedition-service/internal/handlers"
	"github.com/shubilet/expedition-service/internal/middleware"
	"github.com/shubilet/expedition-service/internal/services"
	"github.com/shubilet/expedition-service/pkg/jwt"
	"github.com/shubilet/expedition-service/pkg/payment"
	"github.com/shubilet/expedition-service/pkg/pnr"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Shubilet Expedition Service")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(context.Background(), db.DB, logger); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	// Initialize repositories
	expeditionRepository := database.NewExpeditionRepository(db.DB)
	seatRepository := database.NewSeatRepository(db.DB)
	ticketRepository := database.NewTicketRepository(db.DB)
	cityRepository := database.NewCityRepository(db.DB)
	paymentAuditRepository := database.NewPaymentAuditRepository(db.DB, logger)
	transactor := database.NewTransactor(db.DB)

	// Ticket cache is optional
	var ticketCache services.TicketCache
	if redisCache := cache.NewTicketCache(cfg.Redis); redisCache != nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.WithError(err).Warn("Redis unreachable, ticket cache disabled")
			redisCache.Close()
		} else {
			ticketCache = redisCache
			defer redisCache.Close()
			logger.Info("Ticket cache enabled")
		}
		cancel()
	}

	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	// Initialize services
	logger.Info("Initializing services...")
	loc := cfg.Booking.Location()
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.Timeout, logger)

	availabilityService := services.NewAvailabilityService(expeditionRepository, seatRepository)
	ticketService := services.NewTicketService(
		ticketRepository,
		pnr.NewGenerator(),
		ticketCache,
		loc,
		cfg.Booking.MaxPNRAttempts,
		logger,
	)
	expeditionService := services.NewExpeditionService(
		expeditionRepository,
		seatRepository,
		cityRepository,
		transactor,
		loc,
		logger,
	)
	orchestratorService := services.NewBookingOrchestratorService(
		expeditionRepository,
		seatRepository,
		transactor,
		availabilityService,
		ticketService,
		paymentClient,
		paymentAuditRepository,
		publisher,
		services.BookingOrchestratorConfig{
			HoldTTL:  cfg.Booking.HoldTTL,
			Currency: cfg.Payment.Currency,
		},
		logger,
	)

	// Start hold sweeper
	holdExpirationService := services.NewHoldExpirationService(seatRepository, cfg.Booking.HoldSweep, logger)
	if err := holdExpirationService.Start(); err != nil {
		logger.Fatalf("Failed to start hold expiration service: %v", err)
	}

	// Initialize handlers
	reservationHandler := handlers.NewReservationHandler(orchestratorService, ticketService, logger)
	expeditionHandler := handlers.NewExpeditionHandler(expeditionService, availabilityService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, holdExpirationService))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Reservation routes (public, called through the gateway)
		reservation := v1.Group("/reservation")
		{
			reservation.POST("/buy_ticket", reservationHandler.BuyTicket)
			reservation.GET("/tickets/:pnr", reservationHandler.GetTicket)
			reservation.GET("/customers/:customer_id/tickets", reservationHandler.GetCustomerTickets)
			reservation.GET("/customers/:customer_id/cards", reservationHandler.GetCustomerCards)
		}

		// Expedition routes (public)
		expeditions := v1.Group("/expeditions")
		{
			expeditions.GET("", expeditionHandler.SearchExpeditions)
			expeditions.GET("/:id", expeditionHandler.GetExpedition)
			expeditions.GET("/:id/seats", expeditionHandler.GetSeats)
			expeditions.GET("/:id/availability", expeditionHandler.GetAvailability)
		}

		// Company routes (protected)
		company := v1.Group("")
		company.Use(middleware.AuthMiddleware(jwtService, logger))
		company.Use(middleware.RequireRole(jwt.RoleCompany, jwt.RoleAdmin))
		{
			company.POST("/expeditions", expeditionHandler.CreateExpedition)
			company.GET("/company/expeditions", expeditionHandler.ListCompanyExpeditions)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Payment.Timeout*2 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	holdExpirationService.Stop()

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, sweeper *services.HoldExpirationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"database":     "healthy",
			"hold_sweeper": sweeper.Status(),
			"version":      version,
			"timestamp":    time.Now().Unix(),
		})
	}
}
