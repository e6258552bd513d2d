/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Scenario Compute Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize structured logging (zap)
  3. Initialize SQLite store
  4. Wire the compute engine and API handler
  5. Start the recompute scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port                HTTP server port (default: 8080)
  -db                  SQLite database path (default: scenarios.db)
                       Use ":memory:" for an in-memory database
  -recompute-interval  Active scenario recompute interval (default: 15m,
                       0 disables the scheduler)
  -dev                 Human-readable console logging instead of JSON

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the recompute scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/scenarios.db"

  # Run with in-memory database and fast recomputes
  ./server -db=":memory:" -recompute-interval=1m

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/scenario-engine/api"
	"github.com/warp/scenario-engine/engine"
	"github.com/warp/scenario-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "scenarios.db", "SQLite database path")
	recomputeInterval := flag.Duration("recompute-interval", 15*time.Minute, "active scenario recompute interval (0 disables)")
	dev := flag.Bool("dev", false, "console logging for development")
	flag.Parse()

	// Logging
	var logger *zap.Logger
	var err error
	if *dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire the engine; the store serves all three collaborator roles.
	eng := engine.NewEngine(store, store, engine.NewWorkweekCalendar())
	eng.Audit = store
	eng.Logger = logger

	handler := api.NewHandler(store, eng, logger)
	router := api.NewRouter(handler)

	// Recompute scheduler
	scheduler := api.NewRecomputeScheduler(store, eng, logger)
	if *recomputeInterval <= 0 {
		scheduler.Enabled = false
	} else {
		scheduler.CheckInterval = *recomputeInterval
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
