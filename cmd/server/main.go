package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
	"fedauth/internal/events"
	"fedauth/internal/handler"
	"fedauth/internal/middleware"
	"fedauth/pkg/config"
	"fedauth/pkg/logger"
	"fedauth/pkg/validator"
)

func main() {
	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger
	log := logger.NewWithLevel("auth-broker", cfg.LogLevel)

	// In-memory state: everything lives for the process lifetime only
	registry := device.NewRegistry()
	store := authreq.NewStore()
	demo := authreq.NewDemoGenerator(cfg.Broker.DemoQuietPeriod)
	hub := events.NewHub(log)

	service := authreq.NewService(registry, store, demo, hub, log)

	sweeper := authreq.NewSweeper(store, cfg.Broker.SweepInterval, cfg.Broker.RequestMaxAge, log)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	val := validator.New()
	deviceHandler := handler.NewDeviceHandler(registry, val, hub, log)
	pollHandler := handler.NewPollHandler(service, log)
	respondHandler := handler.NewRespondHandler(service, val, log)
	triggerHandler := handler.NewTriggerHandler(service, log)
	adminHandler := handler.NewAdminHandler(registry, store)
	systemHandler := handler.NewSystemHandler(registry, store)
	eventsHandler := handler.NewEventsHandler(hub, log)
	pagesHandler := handler.NewPagesHandler(registry, store, log)
	qrHandler := handler.NewQRHandler(log)

	// Setup router
	r := mux.NewRouter()

	// Middleware; Recovery first so a panic anywhere below it still maps
	// to a 500 response
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Limit)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

	// Modern API
	r.HandleFunc("/api/register", deviceHandler.Register).Methods("POST")
	r.HandleFunc("/api/poll/{deviceId}", pollHandler.Poll).Methods("GET")
	r.HandleFunc("/api/respond", respondHandler.Respond).Methods("POST")
	r.HandleFunc("/api/test/trigger", triggerHandler.Trigger).Methods("POST")
	r.HandleFunc("/api/admin/devices", adminHandler.Devices).Methods("GET")
	r.HandleFunc("/api/admin/requests", adminHandler.Requests).Methods("GET")

	// Legacy API, preserved for the existing mobile client
	r.HandleFunc("/fhrnavigator/device/register", deviceHandler.RegisterLegacy).Methods("POST")
	r.HandleFunc("/fhrnavigator/device/poll-auth-requests", pollHandler.PollLegacy).Methods("POST")
	r.HandleFunc("/fhrnavigator/device/auth-response", respondHandler.RespondLegacy).Methods("POST")

	// System, observers, and pages
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ws/events", eventsHandler.Stream).Methods("GET")
	r.HandleFunc("/qr", qrHandler.QRPage).Methods("GET")
	r.HandleFunc("/test", pagesHandler.TestPage).Methods("GET")
	r.HandleFunc("/", pagesHandler.Home).Methods("GET")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Auth broker starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", nil)
}
