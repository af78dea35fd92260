package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/data/mongo"
	"github.com/karunahealth/earnings-reconciler/internal/data/postgres"
	"github.com/karunahealth/earnings-reconciler/internal/logger"
	"github.com/karunahealth/earnings-reconciler/internal/platform/messaging/consumers"
	"github.com/karunahealth/earnings-reconciler/internal/platform/messaging/producers"
	"github.com/karunahealth/earnings-reconciler/internal/platform/persistence"
	"github.com/karunahealth/earnings-reconciler/internal/platform/razorpay"
	"github.com/karunahealth/earnings-reconciler/internal/reconciler"
	"github.com/karunahealth/earnings-reconciler/internal/reconciler/consumer"
	"github.com/karunahealth/earnings-reconciler/internal/reconciler/sweeper"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("settlement_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Settlement Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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
	reportRepo := mongo.NewReportRepository(log, mongoDB.Database())

	// Initialize settlement authority query client
	queryClient := razorpay.NewQueryClient(log, &cfg.Razorpay)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer is nil if DLQTopic is not configured. The handler is
	// nil-safe, but a typed nil must not reach the interface.
	var dlq producers.DeadLetterPublisher
	if dlqProducer != nil {
		dlq = dlqProducer
	}

	// Initialize the reconciliation engine
	engine := reconciler.NewEngine(log, ledgerRepo, queryClient, reportRepo, &cfg.Reconciliation)

	// Initialize the settlement event handler
	settlementEventHandler := consumer.NewSettlementEventHandler(log, engine, ledgerRepo, dlq)

	// Initialize the periodic sweeper
	sweep := sweeper.NewSweeper(log, engine, cfg.Reconciliation.SweepInterval)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.SettlementTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.SettlementTopic, cfg.Kafka.ConsumerGroup, settlementEventHandler.Handle); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start the sweep loop
	log.Info("Starting reconciliation sweeper", "interval", cfg.Reconciliation.SweepInterval.String())
	sweep.Start(appCtx)

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop the sweeper and wait for an in-flight pass to finish
	sweep.Stop()

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Settlement worker shutdown with errors", "error", serviceErr)
	} else {
		log.Info("Settlement worker shutdown completed successfully")
	}
}
