package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/config"
	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/middleware"
	"github.com/curator/console/internal/refdata"
	"github.com/curator/console/internal/services/auth"
	"github.com/curator/console/internal/services/live"
	"github.com/curator/console/internal/services/logs"
	"github.com/curator/console/internal/services/media"
	"github.com/curator/console/internal/table"
	"github.com/curator/console/pkg/database"
	"github.com/curator/console/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load reference data (modes, groups, operators, risk weights)
	ref, err := refdata.Load(cfg.RefData.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reference data")
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Connect to Redis
	redisClient, err := database.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Connect to MinIO
	minioClient, err := storage.ConnectMinIO(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MinIO")
	}

	// Initialize services
	resolver := identity.NewResolver(ref)
	renderer := table.NewRenderer(ref, resolver)
	mediaService := media.NewService(minioClient, cfg.Storage.Bucket, cfg.Media.PreviewTimeout)
	logsService := logs.NewService(db, redisClient, ref, mediaService)
	authService := auth.NewService(db, ref, resolver, cfg.JWT.Secret, cfg.JWT.SessionTTL)

	// Initialize live feed hub
	liveHub := live.NewHub(redisClient)
	go liveHub.Run(context.Background())

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	logsHandler := logs.NewHandler(logsService, renderer, ref)
	mediaHandler := media.NewHandler(mediaService)
	liveHandler := live.NewHandler(liveHub, cfg.JWT.Secret)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RedirectSlashes)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Origin"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Debug:            cfg.Environment == "development",
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Public routes
		r.Mount("/auth", authHandler.Routes())

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
			r.Use(middleware.RateLimitMiddleware(redisClient, cfg.Server.RateLimitRPS))

			r.Mount("/", logsHandler.Routes())
			r.Mount("/media", mediaHandler.Routes())
		})
	})

	// WebSocket endpoint (separate from the API prefix)
	r.Mount("/ws", liveHandler.Routes())

	// Create HTTP server
	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.Port,
		Handler: r,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting moderation console")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
