package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePDFExport     = "resume:pdf_export"
	TypeImageCleanup  = "image:cleanup"
	TypeExportCleanup = "export:cleanup"
	TypeWelcomeMail   = "mail:welcome"
)

// PDFExportPayload 描述导出 PDF 所需的最小信息。
type PDFExportPayload struct {
	ResumeID      string `json:"resume_id"`
	UserID        string `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
}

// ImageCleanupPayload 指向一张需要删除的托管图片。
type ImageCleanupPayload struct {
	FileID string `json:"file_id"`
}

// ExportCleanupPayload 指向一个被替换或随简历删除的导出 PDF 对象。
type ExportCleanupPayload struct {
	ObjectKey string `json:"object_key"`
}

// WelcomeMailPayload 是注册欢迎邮件的收件信息。
type WelcomeMailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewPDFExportTask 构造一个新的简历 PDF 导出任务。
func NewPDFExportTask(p PDFExportPayload) (*asynq.Task, error) {
	return newTask(TypePDFExport, p, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute))
}

// NewImageCleanupTask 构造孤儿图片清理任务，失败会按退避重试。
func NewImageCleanupTask(fileID string) (*asynq.Task, error) {
	return newTask(TypeImageCleanup, ImageCleanupPayload{FileID: fileID}, asynq.MaxRetry(10))
}

// NewExportCleanupTask 构造旧导出文件的清理任务。
func NewExportCleanupTask(objectKey string) (*asynq.Task, error) {
	return newTask(TypeExportCleanup, ExportCleanupPayload{ObjectKey: objectKey}, asynq.MaxRetry(10))
}

// NewWelcomeMailTask 构造欢迎邮件任务。
func NewWelcomeMailTask(email, name string) (*asynq.Task, error) {
	return newTask(TypeWelcomeMail, WelcomeMailPayload{Email: email, Name: name}, asynq.MaxRetry(5))
}

func newTask(typename string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, data, opts...), nil
}

// Enqueuer 是 asynq.Client 的最小子集。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher 把领域事件转换为队列任务。
type Dispatcher struct {
	client Enqueuer
}

// NewDispatcher 创建 Dispatcher。
func NewDispatcher(client Enqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

// ScheduleImageCleanup 实现 resume.OrphanReaper。
func (d *Dispatcher) ScheduleImageCleanup(ctx context.Context, fileID string) error {
	task, err := NewImageCleanupTask(fileID)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue image cleanup: %w", err)
	}
	return nil
}

// ScheduleExportCleanup 实现 resume.OrphanReaper。
func (d *Dispatcher) ScheduleExportCleanup(ctx context.Context, objectKey string) error {
	task, err := NewExportCleanupTask(objectKey)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue export cleanup: %w", err)
	}
	return nil
}

// SchedulePDFExport 入队导出任务并返回任务 ID。
func (d *Dispatcher) SchedulePDFExport(ctx context.Context, p PDFExportPayload) (string, error) {
	task, err := NewPDFExportTask(p)
	if err != nil {
		return "", err
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue pdf export: %w", err)
	}
	return info.ID, nil
}

// ScheduleWelcomeMail 入队欢迎邮件。
func (d *Dispatcher) ScheduleWelcomeMail(ctx context.Context, email, name string) error {
	task, err := NewWelcomeMailTask(email, name)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue welcome mail: %w", err)
	}
	return nil
}

// NotifyChannelPrefix 是 worker 发布、WebSocket 订阅的用户通知频道前缀。
const NotifyChannelPrefix = "user_notify:"

// NotifyChannel 返回用户的通知频道。
func NotifyChannel(userID string) string {
	return NotifyChannelPrefix + userID
}
