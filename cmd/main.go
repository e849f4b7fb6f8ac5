package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"posts-api/config"
	"posts-api/db"
	"posts-api/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Error loading config")
	}

	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server exited gracefully")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("service", "posts-api").Logger()
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := db.Open(initCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info().Msg("Database connection initialized")

	if cfg.Database.Migrate {
		if err := db.Migrate(initCtx, conn, logger); err != nil {
			return err
		}
		logger.Info().Msg("Database migrations are up to date")
	}

	posts, closePosts, err := newPosts(initCtx, cfg, conn, logger)
	if err != nil {
		return err
	}
	defer closePosts()

	handler := routes.SetupRoutes(ctx, routes.Deps{
		Config: cfg,
		Logger: logger,
		Posts:  posts,
		DB:     conn,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 16,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}

// newPosts returns the posts accessor, wrapped in the Redis cache when one
// is configured.
func newPosts(ctx context.Context, cfg *config.Config, conn *sql.DB, logger zerolog.Logger) (db.Posts, func(), error) {
	store := db.NewPostStore(conn)
	if !cfg.CacheEnabled() {
		return store, func() {}, nil
	}

	client, err := db.NewRedisClient(ctx, db.DefaultRedisConfig(cfg.Cache.RedisURL))
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("Redis cache enabled")

	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing Redis client")
		}
	}
	return db.NewCachedPostStore(store, client, cfg.Cache.TTL, logger), closeClient, nil
}
