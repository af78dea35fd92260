package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/karunahealth/earnings-reconciler/internal/api_gateway"
	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/service"
	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/data/mongo"
	"github.com/karunahealth/earnings-reconciler/internal/data/postgres"
	"github.com/karunahealth/earnings-reconciler/internal/logger"
	"github.com/karunahealth/earnings-reconciler/internal/platform/persistence"
	"github.com/karunahealth/earnings-reconciler/internal/platform/razorpay"
	"github.com/karunahealth/earnings-reconciler/internal/reconciler"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	ledgerRepo := postgres.NewEarningsRepository(log, postgresDB)
	payoutRepo := postgres.NewPayoutRepository(log, postgresDB)
	payeeDirectory := postgres.NewPayeeDirectory(log, postgresDB)
	reportRepo := mongo.NewReportRepository(log, mongoDB.Database())

	// Initialize settlement authority clients
	queryClient := razorpay.NewQueryClient(log, &cfg.Razorpay)
	transferClient := razorpay.NewTransferClient(log, &cfg.Razorpay)

	// Initialize the reconciliation engine for manual triggers
	engine := reconciler.NewEngine(log, ledgerRepo, queryClient, reportRepo, &cfg.Reconciliation)

	// Initialize services
	earningsService := service.NewEarningsService(ledgerRepo, &cfg.Payout)
	reconciliationService := service.NewReconciliationService(engine, reportRepo, &cfg.Reconciliation)
	payoutService, err := service.NewPayoutService(log, ledgerRepo, payoutRepo, payeeDirectory, transferClient, postgresDB, &cfg.Payout, cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize payout service", "error", err)
		os.Exit(1)
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, earningsService, reconciliationService, payoutService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight payouts finish against live pools
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Release the payout worker pool
	payoutService.Shutdown()

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
