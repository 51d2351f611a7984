package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spot-attendance-backend/config"
	"spot-attendance-backend/internal/api"
	"spot-attendance-backend/internal/db"
	"spot-attendance-backend/internal/notification"
	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/seat"
	"spot-attendance-backend/internal/store"
	"spot-attendance-backend/internal/upstream"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "spotd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Printf("Warning: VAPID keys are not configured; seat change notifications are disabled.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	var source seat.Source = appStore
	if cfg.SeatPlan.Source == config.SeatSourceUpstream {
		client, err := upstream.NewClient(cfg.Upstream)
		if err != nil {
			logger.Fatalf("failed to create upstream client: %v", err)
		}
		source = client
		logger.Printf("seat plans are read from upstream %s", cfg.Upstream.BaseURL)
	}

	reconstructor := seat.NewReconstructor(
		cfg.SeatPlan.FallbackRows,
		cfg.SeatPlan.FallbackColumns,
		cfg.SeatPlan.Probes(),
		cfg.SeatPlan.ProbeConcurrency,
	)
	loader := seat.NewLoader(source, reconstructor)
	matcher := schedule.NewMatcher(schedule.SystemClock{Location: cfg.Attendance.Location}, cfg.Attendance.Buffer())

	var notifier api.Notifier
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
		workerPool.Start(ctx)
		notifier = workerPool
	}

	handler := api.NewHandler(appStore, loader, matcher, notifier, &webpushOptions, api.SeatDefaults{
		Rows:    cfg.SeatPlan.DefaultRows,
		Columns: cfg.SeatPlan.DefaultColumns,
	})
	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	logger.Println("Server gracefully stopped")
}
