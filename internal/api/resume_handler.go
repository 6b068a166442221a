package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/imagehost"
	"resumebuilder/internal/metrics"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/tasks"
)

// ExportQueue 将 PDF 导出交给后台 worker。
type ExportQueue interface {
	SchedulePDFExport(ctx context.Context, p tasks.PDFExportPayload) (string, error)
}

// LinkSigner 为导出的 PDF 生成临时下载链接。
type LinkSigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration, downloadName string) (string, error)
}

const downloadLinkTTL = 5 * time.Minute

// ResumeHandler 负责处理与简历相关的 API 请求。
type ResumeHandler struct {
	resumes        *resume.Service
	exports        ExportQueue
	links          LinkSigner
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewResumeHandler 构造 ResumeHandler。exports 与 links 为空时导出接口返回 503。
func NewResumeHandler(resumes *resume.Service, exports ExportQueue, links LinkSigner, logger *slog.Logger, maxUploadBytes int64) *ResumeHandler {
	return &ResumeHandler{
		resumes:        resumes,
		exports:        exports,
		links:          links,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

type createResumeRequest struct {
	Title string `json:"title"`
}

// CreateResume 创建一份带默认值的新简历。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "invalid request body")
		return
	}

	created, err := h.resumes.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Resume Created Successfully!",
		"resume":  created,
	})
}

// GetResume 只返回属于当前用户的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.resumes.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resume": doc})
}

// GetPublicResume 无需登录，仅返回公开的简历。
func (h *ResumeHandler) GetPublicResume(c *gin.Context) {
	doc, err := h.resumes.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found or Not Public.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resume": doc})
}

// DeleteResume 删除当前用户的简历。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.resumes.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err, "Resume Not Found or Unauthorized.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resume Deleted Successfully!"})
}

type updateResumeRequest struct {
	ResumeID         string          `json:"resumeId"`
	ResumeData       json.RawMessage `json:"resumeData"`
	RemoveBackground json.RawMessage `json:"removeBackground"`
}

// UpdateResume 覆盖提交的顶层字段，可同时上传头像（multipart/form-data）。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var (
		resumeID string
		rawData  []byte
		image    *resume.ImageInput
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
		form, err := c.MultipartForm()
		if err != nil {
			BadRequest(c, "invalid multipart form")
			return
		}
		// 无论成功与否都清理 multipart 临时文件。
		defer func() { _ = form.RemoveAll() }()

		resumeID = firstValue(form.Value["resumeId"])
		rawData = []byte(firstValue(form.Value["resumeData"]))

		if files := form.File["image"]; len(files) > 0 {
			var closeImage func()
			image, closeImage, err = h.openImage(files[0], truthy(firstValue(form.Value["removeBackground"])))
			if err != nil {
				BadRequest(c, err.Error())
				return
			}
			defer closeImage()
		}
	} else {
		var req updateResumeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
		resumeID = req.ResumeID
		rawData = unwrapJSONString(req.ResumeData)
	}

	if strings.TrimSpace(resumeID) == "" {
		BadRequest(c, "resumeId is required")
		return
	}

	patch, err := resume.ParsePatch(rawData)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.resumes.Update(c.Request.Context(), userID, resumeID, patch, image)
	if image != nil && !errors.Is(err, resume.ErrNotFound) && !errors.Is(err, resume.ErrInvalidPatch) {
		metrics.ObserveImageUpload(err)
	}
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Saved Successfully!",
		"resume":  updated,
	})
}

type editResumeRequest struct {
	ResumeID string          `json:"resumeId"`
	Actions  []resume.Action `json:"actions"`
}

// EditResume 按顺序执行一组编辑操作，任一操作非法则整批拒绝。
func (h *ResumeHandler) EditResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req editResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ResumeID) == "" {
		BadRequest(c, "resumeId is required")
		return
	}

	updated, err := h.resumes.Edit(c.Request.Context(), userID, req.ResumeID, req.Actions)
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resume": updated})
}

func (h *ResumeHandler) openImage(fh *multipart.FileHeader, removeBackground bool) (*resume.ImageInput, func(), error) {
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return nil, nil, errors.New("image is too large")
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, nil, errors.New("image must be an image file")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.New("failed to read image")
	}
	return &resume.ImageInput{
		Body:             f,
		Size:             fh.Size,
		ContentType:      contentType,
		RemoveBackground: removeBackground,
	}, func() { _ = f.Close() }, nil
}

// fail 将领域错误映射为 HTTP 响应。
func (h *ResumeHandler) fail(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, resume.ErrNotFound):
		NotFound(c, notFoundMsg)
	case errors.Is(err, resume.ErrInvalidPatch),
		errors.Is(err, resume.ErrUnknownSection),
		errors.Is(err, resume.ErrUnknownOp),
		errors.Is(err, resume.ErrUnknownField),
		errors.Is(err, resume.ErrIndexOutOfRange),
		errors.Is(err, resume.ErrInvalidValue):
		BadRequest(c, err.Error())
	case errors.Is(err, imagehost.ErrInfected):
		BadRequest(c, "malicious file detected")
	case errors.Is(err, resume.ErrImageUnavailable):
		Unavailable(c, "image upload is not available")
	default:
		h.loggerFromContext(c).Error("resume request failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

func (h *ResumeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	return h.logger
}

func userIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// truthy 兼容前端的 "yes"/"true"/"1" 写法。
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}

// unwrapJSONString 兼容 resumeData 以 JSON 字符串形式提交的情况。
func unwrapJSONString(raw json.RawMessage) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []byte(s)
		}
	}
	return raw
}
