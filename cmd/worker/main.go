package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/config"
	"resumebuilder/internal/database"
	"resumebuilder/internal/imagehost"
	"resumebuilder/internal/mail"
	"resumebuilder/internal/metrics"
	"resumebuilder/internal/pdf"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/storage"
	"resumebuilder/internal/tasks"
	"resumebuilder/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.InitDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()
	// 导出完成时被替换的旧 PDF 由清理任务删除。
	resumes := resume.NewService(db, resume.WithLogger(logger), resume.WithOrphanReaper(tasks.NewDispatcher(queue)))
	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())

	var objectStore imagehost.ObjectStore
	if cfg.MinIO.Enabled() {
		storageClient, err := storage.NewClient(ctx, cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		objectStore = storageClient
		logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

		printer := pdf.RodPrinter{Timeout: cfg.Worker.PDFTimeout, Bin: cfg.Worker.BrowserBin}
		mux.Handle(tasks.TypePDFExport, worker.NewPDFTaskHandler(resumes, printer, storageClient, redisClient, logger))
		mux.Handle(tasks.TypeExportCleanup, worker.NewExportCleanupHandler(storageClient, logger))
	} else {
		logger.Warn("minio not configured, pdf export and export cleanup tasks will not be consumed")
	}

	if images, err := imagehost.FromConfig(cfg, objectStore); err != nil {
		logger.Warn("image hosting disabled, cleanup tasks will not be consumed", slog.Any("error", err))
	} else {
		mux.Handle(tasks.TypeImageCleanup, worker.NewImageCleanupHandler(images, logger))
	}

	if cfg.SMTP.Enabled() {
		sender, err := mail.NewSender(cfg.SMTP, logger)
		if err != nil {
			log.Fatalf("init mail sender: %v", err)
		}
		mux.Handle(tasks.TypeWelcomeMail, worker.NewWelcomeMailHandler(sender, logger))
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
