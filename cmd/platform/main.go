package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/crime-ease/platform/internal/adapters/legacy"
	caseapi "github.com/crime-ease/platform/internal/case/api"
	caseinfra "github.com/crime-ease/platform/internal/case/infrastructure"
	"github.com/crime-ease/platform/internal/identity"
	"github.com/crime-ease/platform/internal/notification"
	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/config"
	"github.com/crime-ease/platform/internal/shared/database"
	"github.com/crime-ease/platform/internal/shared/events"
	"github.com/crime-ease/platform/internal/shared/metrics"
	secmiddleware "github.com/crime-ease/platform/internal/shared/middleware"
	"github.com/crime-ease/platform/internal/station"
	"github.com/crime-ease/platform/internal/stats"
	"github.com/crime-ease/platform/internal/user"
)

// App holds the long-lived application dependencies
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *database.DB
	Bus    events.EventBus
	Legacy *legacy.Adapter
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &App{Config: cfg, Logger: logger}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database not available", zap.Error(err))
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// Event bus: EventStoreDB when configured, in-process otherwise
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore, logger)
		if err != nil {
			logger.Fatal("event store not available", zap.Error(err))
		}
		app.Bus = bus
		logger.Info("event bus connected",
			zap.String("host", cfg.EventStore.Host),
			zap.Int("port", cfg.EventStore.Port))
	} else {
		app.Bus = events.NewMemoryBus(logger)
		logger.Info("using in-process event bus")
	}
	defer app.Bus.Close()

	// Repositories
	caseRepo := caseinfra.NewPostgresRepository(db.Pool)
	stationRepo := station.NewRepository(db.Pool)
	userRepo := user.NewRepository(db.Pool)
	notifRepo := notification.NewRepository(db.Pool)

	// Notification fan-out off the event bus
	subscriber := notification.NewSubscriber(notifRepo, logger)
	if err := subscriber.Register(ctx, app.Bus); err != nil {
		logger.Fatal("failed to register notification subscriber", zap.Error(err))
	}

	// Stats with optional Redis cache
	statsCache := stats.NewCache(cfg.Redis, logger)
	if statsCache != nil {
		defer statsCache.Close()
		logger.Info("stats cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	statsService := stats.NewService(caseRepo, stationRepo, statsCache)

	// Legacy occurrence-book importer
	if cfg.Legacy.Enabled {
		legacyStation, err := stationRepo.GetStationByCode(ctx, cfg.Legacy.StationCode)
		if err != nil {
			logger.Fatal("legacy import enabled but station not found",
				zap.String("station_code", cfg.Legacy.StationCode), zap.Error(err))
		}

		legacyCfg := legacy.DefaultConfig()
		legacyCfg.Host = cfg.Legacy.Host
		legacyCfg.Port = cfg.Legacy.Port
		legacyCfg.Database = cfg.Legacy.Database
		legacyCfg.User = cfg.Legacy.User
		legacyCfg.Password = cfg.Legacy.Password
		legacyCfg.StationCode = cfg.Legacy.StationCode
		legacyCfg.PollInterval = time.Duration(cfg.Legacy.PollIntervalSeconds) * time.Second

		adapter := legacy.New(legacyCfg, legacyStation.ID, caseRepo, logger)
		if err := adapter.Start(ctx); err != nil {
			logger.Error("legacy register adapter failed to start", zap.Error(err))
		} else {
			app.Legacy = adapter
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				adapter.Stop(stopCtx)
			}()
		}
	}

	// Handlers
	directory := station.NewDirectory(stationRepo)
	caseHandler := caseapi.NewHandler(caseRepo, directory, app.Bus)
	stationHandler := station.NewHandler(stationRepo)
	userHandler := user.NewHandler(userRepo)
	notifHandler := notification.NewHandler(notifRepo)
	statsHandler := stats.NewHandler(statsService)
	webhookHandler := identity.NewWebhookHandler(userRepo, cfg.Auth, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS)
	r.Use(secmiddleware.MaxBody(1 << 20))
	r.Use(metrics.Middleware)

	rateLimiter := secmiddleware.NewIPRateLimiter(20, 40)
	r.Use(rateLimiter.Middleware)

	// Health checks and metrics (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	// Identity webhooks authenticate by signature, not bearer token
	r.Mount("/api/webhook", webhookHandler.Routes())

	// Authenticated API
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))

		r.Mount("/cases", caseHandler.Routes())
		r.Mount("/users", userHandler.Routes())
		r.Mount("/notifications", notifHandler.Routes())
		r.Mount("/stats", statsHandler.Routes())
		r.Mount("/", stationHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("crime-ease platform listening",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("event_store", cfg.EventStore.Enabled),
		zap.Bool("legacy_import", cfg.Legacy.Enabled))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	<-done
	logger.Info("server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Crime Ease Platform",
		"version": "0.1.0",
		"docs":    "/api",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if err := app.Bus.Health(); err != nil {
			checks["events"] = "not ready: " + err.Error()
		} else {
			checks["events"] = "ready"
		}

		if app.Legacy != nil {
			if err := app.Legacy.Health(r.Context()); err != nil {
				checks["legacy_register"] = "not ready: " + err.Error()
			} else {
				checks["legacy_register"] = "ready"
			}
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
