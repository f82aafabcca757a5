/**
 * @description
 * This is the main entry point for the verification service. Its
 * responsibility is to initialize all necessary components and start the
 * HTTP server that hosts the wizard sessions for the 4Zee mobile apps.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database
 *   (bank directory cache only; wizard sessions are never persisted).
 * - Initializes clients for external services (platform API, file storage)
 *   and the RabbitMQ event producer.
 * - Wires up the core application logic with its dependencies and starts
 *   the periodic maintenance scheduler.
 * - Starts the HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and external clients.
 * - pgxpool for database connection, godotenv for local config, and rabbitmq for messaging.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/4zee/verification-service/internal/api"
	"github.com/4zee/verification-service/internal/app"
	"github.com/4zee/verification-service/internal/config"
	"github.com/4zee/verification-service/internal/store"
	"github.com/4zee/verification-service/pkg/platformclient"
	"github.com/4zee/verification-service/pkg/rabbitmq"
	"github.com/4zee/verification-service/pkg/storageclient"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool for the bank directory cache.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}

	dbConfig.MaxConns = 20
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	bankRepo := store.NewPostgresBankRepository(dbpool)
	platformClient := platformclient.NewClient(cfg.PlatformAPIBaseURL, cfg.PlatformAPIKey)
	storageClient := storageclient.NewClient(cfg.StorageAPIBaseURL, cfg.StorageAPIKey)

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer producer.Close()

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	service := app.NewVerificationService(platformClient, storageClient, producer, bankRepo, sessionTTL)

	// Start periodic maintenance jobs (session sweep, bank cache cleanup).
	scheduler, err := app.NewScheduler(service)
	if err != nil {
		log.Fatalf("Failed to set up scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup and start HTTP server.
	router := api.NewRouter(cfg, service)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Verification service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down verification-service...")

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
