package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"resumebuilder/internal/imagehost"
)

var (
	// ErrNotFound 同时覆盖“不存在”和“不属于当前用户”，避免泄露他人简历是否存在。
	ErrNotFound = errors.New("resume not found")
	// ErrImageUnavailable 表示未配置图片托管。
	ErrImageUnavailable = errors.New("image hosting is not configured")
)

// OrphanReaper 异步清理不再被引用的托管图片和导出文件。
type OrphanReaper interface {
	ScheduleImageCleanup(ctx context.Context, fileID string) error
	ScheduleExportCleanup(ctx context.Context, objectKey string) error
}

// ImageInput 是随更新一同提交的头像文件。
type ImageInput struct {
	Body             io.Reader
	Size             int64
	ContentType      string
	RemoveBackground bool
}

// Service 负责简历的持久化与所有权校验。
type Service struct {
	db     *gorm.DB
	images imagehost.Uploader
	reaper OrphanReaper
	logger *slog.Logger
}

// Option 配置 Service 的可选依赖。
type Option func(*Service)

// WithImages 设置头像托管。
func WithImages(u imagehost.Uploader) Option {
	return func(s *Service) { s.images = u }
}

// WithOrphanReaper 设置孤儿图片的异步清理。
func WithOrphanReaper(r OrphanReaper) Option {
	return func(s *Service) { s.reaper = r }
}

// WithLogger 设置日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService 返回 Service。
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create 新建一份带默认值的空简历。
func (s *Service) Create(ctx context.Context, ownerID, title string) (Resume, error) {
	rec := newRecord(New(ownerID, title))
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}
	return rec.Resume(), nil
}

// CreateFromExtraction 用抽取到的内容新建简历，其余字段取默认值。
func (s *Service) CreateFromExtraction(ctx context.Context, ownerID, title string, content Content) (Resume, error) {
	r := New(ownerID, title)
	r.ProfessionalSummary = content.ProfessionalSummary
	r.Skills = content.Skills
	r.PersonalInfo = content.PersonalInfo
	r.Experience = content.Experience
	r.Projects = content.Projects
	r.Education = content.Education

	rec := newRecord(r)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}
	return rec.Resume(), nil
}

// Get 返回属于 ownerID 的简历。
func (s *Service) Get(ctx context.Context, ownerID, id string) (Resume, error) {
	rec, err := s.load(ctx, "id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return Resume{}, err
	}
	return rec.Resume(), nil
}

// GetPublic 返回公开的简历，不校验身份。
func (s *Service) GetPublic(ctx context.Context, id string) (Resume, error) {
	rec, err := s.load(ctx, "id = ? AND public = ?", id, true)
	if err != nil {
		return Resume{}, err
	}
	return rec.Resume(), nil
}

// LoadByID 供后台任务使用，不做所有权校验。
func (s *Service) LoadByID(ctx context.Context, id string) (Resume, error) {
	rec, err := s.load(ctx, "id = ?", id)
	if err != nil {
		return Resume{}, err
	}
	return rec.Resume(), nil
}

// ListByOwner 返回用户的全部简历，最近更新的在前。
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	var records []Record
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	out := make([]Resume, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Resume())
	}
	return out, nil
}

// Delete 删除简历，并异步清理其头像和已导出的 PDF。
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	rec, err := s.load(ctx, "id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&Record{})
	if result.Error != nil {
		return fmt.Errorf("delete resume: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.retireImage(ctx, rec.ImageFileID)
	s.retireExport(ctx, rec.PdfObjectKey)
	return nil
}

// Update 按补丁覆盖顶层字段。
// 携带图片时先上传再写库；写库失败会删除刚上传的图片，删除失败则交给异步清理。
func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch, image *ImageInput) (Resume, error) {
	if err := patch.Validate(); err != nil {
		return Resume{}, err
	}

	rec, err := s.load(ctx, "id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return Resume{}, err
	}
	if image != nil && s.images == nil {
		return Resume{}, ErrImageUnavailable
	}

	var uploaded *imagehost.Result
	if image != nil {
		res, err := s.images.Upload(ctx, imagehost.Upload{
			OwnerID:          ownerID,
			ContentType:      image.ContentType,
			Size:             image.Size,
			Body:             image.Body,
			RemoveBackground: image.RemoveBackground,
		})
		if err != nil {
			return Resume{}, fmt.Errorf("upload image: %w", err)
		}
		uploaded = &res

		info := rec.PersonalInfo.Data()
		if patch.PersonalInfo != nil {
			info = *patch.PersonalInfo
		}
		info.Image = res.URL
		patch.PersonalInfo = &info
	}

	updates := patch.columns()
	staleImage := ""
	switch {
	case uploaded != nil:
		updates["image_file_id"] = uploaded.FileID
		staleImage = rec.ImageFileID
	case patch.PersonalInfo != nil && rec.ImageFileID != "" &&
		patch.PersonalInfo.Image != rec.PersonalInfo.Data().Image:
		// 客户端替换或清空了头像地址，原托管文件不再被引用。
		updates["image_file_id"] = ""
		staleImage = rec.ImageFileID
	}

	result := s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil || result.RowsAffected == 0 {
		if uploaded != nil {
			s.discardImage(ctx, uploaded.FileID)
		}
		if result.Error != nil {
			return Resume{}, fmt.Errorf("update resume: %w", result.Error)
		}
		return Resume{}, ErrNotFound
	}

	if uploaded == nil || staleImage != uploaded.FileID {
		s.retireImage(ctx, staleImage)
	}

	return s.Get(ctx, ownerID, id)
}

// Edit 在服务器端执行一组编辑操作并整体保存。
func (s *Service) Edit(ctx context.Context, ownerID, id string, actions []Action) (Resume, error) {
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Resume{}, err
	}

	editor := NewEditor(current)
	if err := editor.ApplyAll(actions); err != nil {
		return Resume{}, err
	}
	return s.Update(ctx, ownerID, id, PatchFromResume(editor.Resume()), nil)
}

// ExportState 描述 PDF 导出进度。
type ExportState struct {
	Status    string
	ObjectKey string
	UpdatedAt time.Time
}

// BeginExport 将导出状态置为 pending 并返回简历。
func (s *Service) BeginExport(ctx context.Context, ownerID, id string) (Resume, error) {
	result := s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		UpdateColumns(map[string]any{"export_status": ExportStatusPending})
	if result.Error != nil {
		return Resume{}, fmt.Errorf("begin export: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return Resume{}, ErrNotFound
	}
	return s.Get(ctx, ownerID, id)
}

// FinishExport 记录导出结果，供后台任务调用。
// 成功时被替换下来的旧 PDF 交给异步清理；简历已被删除则清理刚上传的文件并返回 ErrNotFound。
func (s *Service) FinishExport(ctx context.Context, id, objectKey string, exportErr error) error {
	if exportErr != nil {
		result := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).
			UpdateColumns(map[string]any{"export_status": ExportStatusFailed})
		if result.Error != nil {
			return fmt.Errorf("finish export: %w", result.Error)
		}
		return nil
	}

	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Select("id", "pdf_object_key").Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		previous = rec.PdfObjectKey
		return tx.Model(&Record{}).Where("id = ?", id).UpdateColumns(map[string]any{
			"export_status":  ExportStatusCompleted,
			"pdf_object_key": objectKey,
		}).Error
	})
	switch {
	case errors.Is(err, ErrNotFound):
		s.retireExport(ctx, objectKey)
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("finish export: %w", err)
	}
	if previous != objectKey {
		s.retireExport(ctx, previous)
	}
	return nil
}

// Export 返回导出状态。
func (s *Service) Export(ctx context.Context, ownerID, id string) (ExportState, error) {
	rec, err := s.load(ctx, "id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return ExportState{}, err
	}
	return ExportState{Status: rec.ExportStatus, ObjectKey: rec.PdfObjectKey, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *Service) load(ctx context.Context, query string, args ...any) (Record, error) {
	var rec Record
	if err := s.db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("load resume: %w", err)
	}
	return rec, nil
}

// discardImage 立即删除刚上传但未能落库的图片，失败则转为异步清理。
func (s *Service) discardImage(ctx context.Context, fileID string) {
	if fileID == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), fileID); err != nil {
		s.logger.Warn("discard uploaded image",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		s.scheduleCleanup(ctx, fileID)
	}
}

// retireImage 清理不再被引用的旧图片。
func (s *Service) retireImage(ctx context.Context, fileID string) {
	if fileID == "" {
		return
	}
	if s.reaper != nil {
		s.scheduleCleanup(ctx, fileID)
		return
	}
	if s.images == nil {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), fileID); err != nil {
		s.logger.Warn("delete stale image",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}

// retireExport 把不再被引用的导出文件交给异步清理。
func (s *Service) retireExport(ctx context.Context, objectKey string) {
	if objectKey == "" {
		return
	}
	if s.reaper == nil {
		s.logger.Warn("stale export left behind", slog.String("object_key", objectKey))
		return
	}
	if err := s.reaper.ScheduleExportCleanup(context.WithoutCancel(ctx), objectKey); err != nil {
		s.logger.Error("schedule export cleanup",
			slog.String("object_key", objectKey),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) scheduleCleanup(ctx context.Context, fileID string) {
	if s.reaper == nil {
		s.logger.Error("orphaned image left behind", slog.String("file_id", fileID))
		return
	}
	if err := s.reaper.ScheduleImageCleanup(context.WithoutCancel(ctx), fileID); err != nil {
		s.logger.Error("schedule image cleanup",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}
