package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"rentspace-backend/internal/api"
	"rentspace-backend/internal/config"
	"rentspace-backend/internal/gateway"
	"rentspace-backend/internal/logger"
	"rentspace-backend/internal/repository/postgres"
	"rentspace-backend/internal/security"
	"rentspace-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentspace Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Gateway configuration", "type", cfg.Gateway.Type, "currency", cfg.Gateway.Currency)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Payment Gateway
	var gw gateway.PaymentGateway
	switch cfg.Gateway.Type {
	case "stripe":
		gw = gateway.NewStripeGateway(cfg.Gateway.SecretKey)
		logger.Info("Using Stripe payment gateway")
	default:
		gw = gateway.NewFakeGateway()
		logger.Info("Using fake payment gateway")
	}

	// Initialize Services
	notifySvc := service.NewNotifyService(
		store.NotificationRepository,
		store.UserRepository,
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)
	availabilitySvc := service.NewAvailabilityService(store.ProductRepository, store.BookingRepository)
	bookingSvc := service.NewBookingService(
		store.BookingRepository,
		store.ProductRepository,
		store.SettlementRepository,
		gw,
		notifySvc,
		cfg.Payout.HoldDays,
	)
	paymentSvc := service.NewPaymentService(
		store.SettlementRepository,
		store.BookingRepository,
		store.CommissionPolicyRepository,
		gw,
		notifySvc,
		cfg.Gateway.Currency,
	)
	payoutSvc := service.NewPayoutService(
		store.SettlementRepository,
		store.BookingRepository,
		store.PayoutAccountRepository,
		gw,
		notifySvc,
		cfg.Gateway.Currency,
	)
	commissionSvc := service.NewCommissionService(store.CommissionPolicyRepository)

	// Initialize HTTP handlers
	availabilityHandler := api.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)
	paymentHandler := api.NewPaymentHandler(paymentSvc)
	adminHandler := api.NewAdminHandler(commissionSvc, payoutSvc)

	router := api.NewRouter(tokenManager, availabilityHandler, bookingHandler, paymentHandler, adminHandler)

	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	if err := srv.Close(); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
