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

	"github.com/SherClockHolmes/webpush-go"

	"growthai-backend/config"
	"growthai-backend/internal/alertlog"
	"growthai-backend/internal/api"
	"growthai-backend/internal/monitor"
	"growthai-backend/internal/notification"
	"growthai-backend/internal/oracle"
	"growthai-backend/internal/status"
	"growthai-backend/internal/store"
	"growthai-backend/internal/ws"
)

func main() {
	logger := log.New(os.Stdout, "gardend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured, web push disabled")
	}

	gormDB, err := alertlog.Open(cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	alerts := alertlog.New(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sensorStore store.Store
	switch cfg.Storage.Backend {
	case "firestore":
		sensorStore, err = store.NewFirestore(ctx, cfg.Storage.ProjectID, cfg.Storage.CredentialsFile)
		if err != nil {
			logger.Fatalf("failed to connect to firestore: %v", err)
		}
		logger.Printf("using firestore backend, project %s", cfg.Storage.ProjectID)
	case "local":
		sensorStore = store.NewLocal(cfg.Storage.LocalPath)
		logger.Printf("using local simulation backend at %s", cfg.Storage.LocalPath)
	default:
		logger.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	var decisionOracle oracle.Oracle = oracle.NewDisabled()
	if cfg.Oracle.APIKey != "" {
		decisionOracle = oracle.NewGenAI(oracle.Config{
			APIKey:         cfg.Oracle.APIKey,
			Model:          cfg.Oracle.Model,
			Endpoint:       cfg.Oracle.Endpoint,
			TimeoutSeconds: cfg.Oracle.TimeoutSeconds,
			MaxRetries:     cfg.Oracle.MaxRetries,
		})
	} else {
		logger.Println("oracle api key not configured, decisions disabled")
	}

	notifier := notification.New(cfg.Notification, gormDB, webpushOptions)
	notifier.Start(ctx)

	hub := ws.NewHub()
	statusSvc := status.NewService(sensorStore)

	monitorSvc := monitor.New(cfg.Monitor, sensorStore, decisionOracle, hub, notifier, alerts)
	go monitorSvc.Run(ctx)

	handler := api.NewHandler(sensorStore, statusSvc, monitorSvc, alerts, gormDB, webpushOptions)
	router := api.NewRouter(handler, hub, api.RouterOptions{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Stop the monitor and workers before the HTTP surface.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	logger.Println("Server gracefully stopped")
}
