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

	"github.com/vishnu-krishna/pump-master/config"
	"github.com/vishnu-krishna/pump-master/internal/api"
	"github.com/vishnu-krishna/pump-master/internal/db"
	"github.com/vishnu-krishna/pump-master/internal/kv"
	"github.com/vishnu-krishna/pump-master/internal/notify"
	"github.com/vishnu-krishna/pump-master/internal/pump"
	"github.com/vishnu-krishna/pump-master/internal/remote"
	"github.com/vishnu-krishna/pump-master/internal/session"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "pumpd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Mock mode when the flag says so, or when there is no upstream to
	// talk to.
	mockMode := cfg.Mock.Enabled
	if !mockMode && cfg.Remote.BaseURL == "" {
		logger.Println("remote.base_url not configured, falling back to mock mode")
		mockMode = true
	}

	storage, err := kv.NewFile(cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("failed to open storage at %s: %v", cfg.Storage.Path, err)
	}

	tokens := session.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick the data source once; everything downstream sees only the
	// store interface.
	var (
		dataStore store.Store
		sessions  *session.Provider
		delays    pump.Delays
	)
	if mockMode {
		sessions = session.NewProvider(storage, tokens, cfg.Auth.DemoUsername, cfg.Auth.DemoPassword)
		local := store.NewLocal(storage)
		if err := local.Initialize(); err != nil {
			logger.Fatalf("failed to initialize local store: %v", err)
		}
		dataStore = local
		delays = pump.MockDelays
		logger.Println("mock mode: serving demo data from local store")
	} else {
		sessions = session.NewRemoteProvider(storage, tokens, cfg.Remote.BaseURL, cfg.Remote.Timeout)
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, sessions, func() {
			logger.Println("upstream session expired, clients must log in again")
		})
		dataStore = remote.NewAdapter(client)
		logger.Printf("remote mode: proxying %s", cfg.Remote.BaseURL)
	}

	service := pump.New(dataStore, delays)

	// Push notifications are optional; without VAPID keys the service
	// runs with the subscription endpoints disabled.
	var (
		subs           notify.SubscriptionStore
		webpushOptions *webpush.Options
	)
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		subs, err = notify.NewGormStore(gormDB)
		if err != nil {
			logger.Fatalf("failed to initialize subscription store: %v", err)
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}

		pool := notify.NewWorkerPool(cfg.WorkerPool.Size, subs, webpushOptions)
		pool.Start(ctx)

		if cfg.Monitor.Enabled {
			monitor := notify.NewMonitor(service, pool, cfg.Monitor.Interval)
			go monitor.Run(ctx)
		}
	} else {
		logger.Println("VAPID keys not configured, push notifications disabled")
	}

	cache := api.NewResponseCache(&cfg.Server)
	handler := api.NewHandler(service, sessions, subs, webpushOptions, cache)
	router := api.NewRouter(&cfg.Server, handler)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
