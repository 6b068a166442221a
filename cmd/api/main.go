package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/ai"
	"resumebuilder/internal/api"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/config"
	"resumebuilder/internal/database"
	"resumebuilder/internal/imagehost"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/storage"
	"resumebuilder/internal/tasks"
	"resumebuilder/internal/users"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
		slog.String("image_provider", cfg.Image.Provider),
	)

	db, err := database.InitDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled until it recovers", slog.Any("error", err))
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()
	dispatcher := tasks.NewDispatcher(queue)

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	deps := api.Deps{
		Config: cfg,
		Logger: logger,
		Redis:  redisClient,
		Tokens: tokens,
		Users:  users.NewService(db),
	}

	var objectStore imagehost.ObjectStore
	if cfg.MinIO.Enabled() {
		storageClient, err := storage.NewClient(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init storage client: %w", err)
		}
		objectStore = storageClient
		deps.Exports = dispatcher
		deps.Links = storageClient
		logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))
	} else {
		logger.Warn("minio not configured, pdf export disabled")
	}

	resumeOpts := []resume.Option{resume.WithLogger(logger), resume.WithOrphanReaper(dispatcher)}
	images, err := imagehost.FromConfig(cfg, objectStore)
	if err != nil {
		logger.Warn("image hosting disabled", slog.Any("error", err))
	} else {
		resumeOpts = append(resumeOpts, resume.WithImages(images))
	}
	deps.Resumes = resume.NewService(db, resumeOpts...)

	if cfg.SMTP.Enabled() {
		deps.Mailer = dispatcher
	}

	if llm, err := ai.NewClient(cfg.LLM); err != nil {
		logger.Warn("ai features disabled", slog.Any("error", err))
	} else {
		deps.AI = ai.NewRelay(llm, deps.Resumes, logger)
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
