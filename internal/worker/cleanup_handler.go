package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"resumebuilder/internal/tasks"
)

// ImageDeleter 删除托管图片，imagehost.Uploader 满足该接口。
type ImageDeleter interface {
	Delete(ctx context.Context, fileID string) error
}

// ImageCleanupHandler 删除不再被任何简历引用的头像。
type ImageCleanupHandler struct {
	images ImageDeleter
	logger *slog.Logger
}

func NewImageCleanupHandler(images ImageDeleter, logger *slog.Logger) *ImageCleanupHandler {
	return &ImageCleanupHandler{images: images, logger: logger}
}

// ProcessTask 实现 asynq.Handler，删除失败交给 asynq 退避重试。
func (h *ImageCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.FileID == "" {
		return nil
	}

	log := h.logger.With(slog.String("file_id", payload.FileID))
	if err := h.images.Delete(ctx, payload.FileID); err != nil {
		log.Warn("delete orphaned image failed", slog.Any("error", err))
		return err
	}
	log.Info("orphaned image deleted")
	return nil
}

// ObjectDeleter 删除对象存储中的文件，storage.Client 满足该接口。
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, objectName string) error
}

// ExportCleanupHandler 删除被新导出替换或随简历删除的 PDF。
type ExportCleanupHandler struct {
	objects ObjectDeleter
	logger  *slog.Logger
}

func NewExportCleanupHandler(objects ObjectDeleter, logger *slog.Logger) *ExportCleanupHandler {
	return &ExportCleanupHandler{objects: objects, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ExportCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ObjectKey == "" {
		return nil
	}

	log := h.logger.With(slog.String("object_key", payload.ObjectKey))
	if err := h.objects.DeleteObject(ctx, payload.ObjectKey); err != nil {
		log.Warn("delete stale export failed", slog.Any("error", err))
		return err
	}
	log.Info("stale export deleted")
	return nil
}
