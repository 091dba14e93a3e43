package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connexa-backend/internal/cache"
	"connexa-backend/internal/config"
	"connexa-backend/internal/handlers"
	"connexa-backend/internal/middleware"
	"connexa-backend/internal/monitoring"
	"connexa-backend/internal/repository"
	"connexa-backend/internal/services"
	"connexa-backend/internal/token"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to Redis (degrades to no cache when unreachable)
	listingCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password)
	defer listingCache.Close()

	// Initialize repositories
	authRepo := repository.NewAuthRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendeeRepo := repository.NewAttendeeRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Initialize core components
	codec := token.NewCodec(cfg.JWT.Secret)
	metrics := monitoring.NewMetrics()
	feedHub := services.NewFeedHub()

	// Initialize services
	authService := services.NewAuthService(authRepo, codec)
	accessService := services.NewAccessService(eventRepo, adminRepo, metrics)
	eventService := services.NewEventService(eventRepo, attendeeRepo, listingCache, feedHub)
	attendeeService := services.NewAttendeeService(attendeeRepo, eventRepo)
	adminService := services.NewAdminService(adminRepo)
	uploadService, err := services.NewUploadService(context.Background(), cfg.Storage, eventRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload service")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService, accessService)
	attendeeHandler := handlers.NewAttendeeHandler(attendeeService, accessService)
	adminHandler := handlers.NewAdminHandler(adminService, accessService)
	uploadHandler := handlers.NewUploadHandler(uploadService, accessService)
	wsHandler := handlers.NewWebSocketHandler(feedHub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.Metrics(metrics))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimit))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Public routes
		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)
		r.Post("/events/{id}/attendees", attendeeHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(codec))
			r.Post("/events", eventHandler.Create)
			r.Put("/events/{id}", eventHandler.Update)
			r.Delete("/events/{id}", eventHandler.Delete)
			r.Get("/events/{id}/attendees", attendeeHandler.List)
			r.Get("/events/{id}/admins", adminHandler.List)
			r.Post("/events/{id}/admins", adminHandler.Grant)
			r.Delete("/events/{id}/admins", adminHandler.Revoke)
			r.Post("/uploads/events/{id}", uploadHandler.Upload)
		})
	})

	// Live feed WebSocket route
	r.Get("/ws", wsHandler.HandleFeed)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server; feed connections drop with it
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
