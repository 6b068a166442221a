package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"resumebuilder/internal/errcode"
	"resumebuilder/internal/pdf"
	"resumebuilder/internal/render"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/tasks"
)

// ResumeStore 是导出任务依赖的简历读写能力。
type ResumeStore interface {
	LoadByID(ctx context.Context, id string) (resume.Resume, error)
	FinishExport(ctx context.Context, id, objectKey string, exportErr error) error
}

// ObjectUploader 保存导出的 PDF。
type ObjectUploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

// PDFTaskHandler 负责消费 PDF 导出任务。
type PDFTaskHandler struct {
	resumes   ResumeStore
	printer   pdf.Printer
	storage   ObjectUploader
	publisher Publisher
	logger    *slog.Logger
}

// NewPDFTaskHandler 创建任务处理器。
func NewPDFTaskHandler(
	resumes ResumeStore,
	printer pdf.Printer,
	storage ObjectUploader,
	publisher Publisher,
	logger *slog.Logger,
) *PDFTaskHandler {
	return &PDFTaskHandler{
		resumes:   resumes,
		printer:   printer,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PDFTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("resume_id", payload.ResumeID),
		slog.String("user_id", payload.UserID),
	)
	log.Info("starting pdf export task")

	doc, err := h.resumes.LoadByID(ctx, payload.ResumeID)
	if err != nil {
		if errors.Is(err, resume.ErrNotFound) {
			log.Warn("resume not found, skipping task")
			h.notify(ctx, log, payload, ExportNotifyMessage{
				Status:       "error",
				ErrorCode:    errcode.ResourceMissing,
				ErrorMessage: "resume no longer exists",
			})
			return nil
		}
		log.Error("load resume failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		if err := h.resumes.FinishExport(context.WithoutCancel(ctx), doc.ID, "", retErr); err != nil {
			log.Error("mark export failed", slog.Any("error", err))
		}
		h.notify(ctx, log, payload, ExportNotifyMessage{
			Status:       "error",
			ErrorCode:    errcode.SystemError,
			ErrorMessage: strings.TrimSpace(retErr.Error()),
		})
	}()

	html, err := render.HTML(doc)
	if err != nil {
		log.Error("render resume html failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := h.printer.PrintHTML(ctx, html)
	if err != nil {
		log.Error("print pdf failed", slog.Any("error", err))
		return err
	}

	objectName := ExportObjectKey(doc.UserID, doc.ID)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.resumes.FinishExport(ctx, doc.ID, objectName, nil); err != nil {
		if errors.Is(err, resume.ErrNotFound) {
			// 导出期间简历被删除，刚上传的文件已交给清理任务。
			log.Warn("resume deleted during export", slog.String("object_key", objectName))
			h.notify(ctx, log, payload, ExportNotifyMessage{
				Status:       "error",
				ErrorCode:    errcode.ResourceMissing,
				ErrorMessage: "resume no longer exists",
			})
			return nil
		}
		log.Error("update export state failed", slog.Any("error", err))
		return err
	}

	h.notify(ctx, log, payload, ExportNotifyMessage{Status: "completed", ErrorCode: errcode.OK})

	log.Info("pdf export task completed", slog.String("object_key", objectName))
	return nil
}

// ExportObjectKey 为每次导出生成唯一的对象名。
func ExportObjectKey(userID, resumeID string) string {
	return fmt.Sprintf("exports/%s/%s/%s.pdf", userID, resumeID, uuid.NewString())
}

// notify 的失败只记录日志，PDF 已经落库，前端仍可通过下载链接获取。
func (h *PDFTaskHandler) notify(ctx context.Context, log *slog.Logger, payload tasks.PDFExportPayload, msg ExportNotifyMessage) {
	if h.publisher == nil || payload.UserID == "" {
		return
	}
	msg.ResumeID = payload.ResumeID
	msg.CorrelationID = payload.CorrelationID
	if err := publishNotify(context.WithoutCancel(ctx), h.publisher, payload.UserID, msg); err != nil {
		log.Error("publish export notification failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
