package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/config"
	"github.com/liamwears/reelcatalog/internal/database"
	"github.com/liamwears/reelcatalog/internal/handlers"
	"github.com/liamwears/reelcatalog/internal/middleware"
	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
	"github.com/liamwears/reelcatalog/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "reelcatalog",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.IsProduction(),
	})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		down := len(os.Args) > 2 && os.Args[2] == "down"
		if err := runMigrations(cfg, logger, down); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger hclog.Logger) error {
	logger.Info("starting server", "env", cfg.Server.Env)
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		TLS:      cfg.Redis.TLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// Stores
	movieStore := store.NewMovieStore(db.Pool)
	directorStore := store.NewPersonStore(db.Pool, models.KindDirector)
	actorStore := store.NewPersonStore(db.Pool, models.KindActor)
	userStore := store.NewUserStore(db.Pool)
	responseCache := database.NewResponseCache(redisClient.Client, cfg.Cache.TTL)
	revocations := database.NewRevocationStore(redisClient.Client)

	// Services
	tmdbService := services.NewTMDBService(services.TMDBConfig{
		APIKey:       cfg.TMDB.APIKey,
		ReadToken:    cfg.TMDB.ReadToken,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Timeout:      cfg.TMDB.Timeout,
	}, logger)
	movieService := services.NewMovieService(movieStore, directorStore, actorStore, tmdbService, responseCache, logger.Named("movies"))
	directorService := services.NewPersonService(models.KindDirector, directorStore, responseCache, logger.Named("directors"))
	actorService := services.NewPersonService(models.KindActor, actorStore, responseCache, logger.Named("actors"))
	userService := services.NewUserService(userStore, logger.Named("users"))
	tokenService := services.NewTokenService(services.TokenConfig{
		Secret:     cfg.Auth.SecretKey,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	}, revocations, logger.Named("tokens"))

	// 100 req/min in production, unlimited in local/dev
	maxRequests := 1000
	if cfg.IsProduction() {
		maxRequests = 100
	}
	rateLimiter := middleware.NewRateLimiter(redisClient.Client, maxRequests, time.Minute, cfg.IsProduction(), logger)

	router := &handlers.Router{
		Auth:      handlers.NewAuthHandler(userService, tokenService, logger),
		Movies:    handlers.NewMovieHandler(movieService, logger),
		Directors: handlers.NewPersonHandler(directorService, logger),
		Actors:    handlers.NewPersonHandler(actorService, logger),
		Metadata:  handlers.NewMetadataHandler(tmdbService, logger),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"database": db,
			"redis":    redisClient,
		}),
		AuthMiddleware: middleware.NewAuthMiddleware(tokenService, userService, logger),
		RateLimiter:    rateLimiter,
		Cache:          responseCache,
		Logger:         logger,
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// runMigrations applies pending migrations, or rolls back the latest one
func runMigrations(cfg *config.Config, logger hclog.Logger, down bool) error {
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Pool, logger)
	if down {
		return migrator.Down(ctx)
	}
	return migrator.Up(ctx)
}
