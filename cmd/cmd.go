package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lingoconnect-backend/internal/config"
	"lingoconnect-backend/internal/handlers"
	"lingoconnect-backend/internal/middleware"
	"lingoconnect-backend/internal/repository"
	"lingoconnect-backend/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	// Connect to storage
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Storage ready")

	// Initialize rate limiter
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, rate limiting fails open")
		}
	}
	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window, "ratelimit:friend-request:", true)

	// Initialize services
	wsHub := services.NewWSHub()

	var pusher services.Pusher
	if cfg.APNs.Enabled {
		apns, err := services.NewAPNsPusher(cfg.APNs.KeyPath, cfg.APNs.KeyID, cfg.APNs.TeamID, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
	}

	var avatarService *services.AvatarService
	if cfg.AWS.Enabled {
		avatarService, err = services.NewAvatarService(context.Background(), services.AvatarConfig{
			Region:        cfg.AWS.Region,
			Bucket:        cfg.AWS.S3Bucket,
			AccessKey:     cfg.AWS.AccessKey,
			SecretKey:     cfg.AWS.SecretKey,
			Endpoint:      cfg.AWS.Endpoint,
			PublicBaseURL: cfg.AWS.PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create avatar service")
		}
	}

	notifier := services.NewNotificationService(wsHub, pusher, store.Users())
	friendService := services.NewFriendService(store, notifier)
	userService := services.NewUserService(store.Users())
	sessionService := services.NewSessionService(cfg.Session.Secret, cfg.Session.TTL)

	// Setup router
	router := handlers.NewRouter(handlers.RouterDeps{
		FriendService:  friendService,
		UserService:    userService,
		AvatarService:  avatarService,
		Sessions:       sessionService,
		Hub:            wsHub,
		Store:          store,
		RateLimiter:    rateLimiter,
		CookieName:     cfg.Session.CookieName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore connects the configured storage backend and prepares its schema
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := repository.MigratePostgres(cfg.Database.MigrateURL()); err != nil {
			return nil, err
		}
		pool, err := repository.ConnectPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(pool), nil

	case config.DriverMongo:
		store, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.ToLower(format) != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

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
