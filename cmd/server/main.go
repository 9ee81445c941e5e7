package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "bnpl-debt-service/internal/api/http"
	"bnpl-debt-service/internal/config"
	"bnpl-debt-service/internal/dispatch"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/repository/postgres"
	"bnpl-debt-service/internal/service"
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
	logger.Info("Starting BNPL debt service...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

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

	// Initialize Services
	guard := service.NewIdempotencyGuard(store, time.Duration(cfg.Idempotency.TTLHours)*time.Hour)
	userSvc := service.NewUserService(store.UserRepository)
	planSvc := service.NewPlanService(store, store.PlanRepository, store.InstallmentRepository, guard)
	debtSvc := service.NewDebtService(store, store.UserRepository, store.InstallmentRepository, guard, cfg.Scheduler.SweepBatchSize)
	refundSvc := service.NewRefundService(store, store.RefundRepository, guard)

	// Initialize webhook dispatch. With a broker configured, status updates
	// are queued and a consumer applies them; otherwise they apply inline.
	inline := dispatch.NewInlineDispatcher(refundSvc)
	var dispatcher dispatch.Dispatcher = inline
	if cfg.AMQP.URL != "" {
		amqpDispatcher, err := dispatch.NewAMQPDispatcher(
			cfg.AMQP.URL,
			cfg.AMQP.Queue,
			time.Duration(cfg.AMQP.EnqueueTimeoutSeconds)*time.Second,
			inline,
		)
		if err != nil {
			logger.Error("Failed to connect to message broker, falling back to inline dispatch", "error", err)
		} else {
			dispatcher = amqpDispatcher

			consumer, err := dispatch.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, refundSvc)
			if err != nil {
				logger.Error("Failed to start refund status consumer", "error", err)
				log.Fatalf("Failed to start refund status consumer: %v", err)
			}
			defer consumer.Close()
			if err := consumer.Start(context.Background()); err != nil {
				logger.Error("Failed to start refund status consumer", "error", err)
				log.Fatalf("Failed to start refund status consumer: %v", err)
			}
			logger.Info("Refund status consumer started", "queue", cfg.AMQP.Queue)
		}
	}
	defer dispatcher.Close()

	// Initialize HTTP API
	handler := httpapi.NewHandler(userSvc, planSvc, debtSvc, refundSvc, dispatcher, store)
	router := httpapi.NewRouter(handler)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("HTTP server error: %v", err)
	case sig := <-sigCh:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}
}
