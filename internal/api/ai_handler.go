package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/ai"
	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/extract"
	"resumebuilder/internal/metrics"
)

// AIRelay 是 ai.Relay 暴露给 HTTP 层的能力。
type AIRelay interface {
	EnhanceSummary(ctx context.Context, text string) (string, error)
	EnhanceJobDescription(ctx context.Context, text string) (string, error)
	ExtractResume(ctx context.Context, ownerID, title, resumeText string) (string, error)
}

// AIHandler 负责 AI 增强与简历解析接口。
type AIHandler struct {
	relay            AIRelay
	redis            rateStore
	logger           *slog.Logger
	rateLimitPerHour int
	maxUploadBytes   int64
}

// NewAIHandler 构造 AIHandler。relay 为空时所有接口返回 503。
func NewAIHandler(relay AIRelay, redisClient rateStore, logger *slog.Logger, rateLimitPerHour int, maxUploadBytes int64) *AIHandler {
	return &AIHandler{
		relay:            relay,
		redis:            redisClient,
		logger:           logger,
		rateLimitPerHour: rateLimitPerHour,
		maxUploadBytes:   maxUploadBytes,
	}
}

type enhanceRequest struct {
	UserContent string `json:"userContent"`
}

// EnhanceProfessionalSummary 润色个人简介。
func (h *AIHandler) EnhanceProfessionalSummary(c *gin.Context) {
	h.enhance(c, "enhance_summary", "Failed to enhance summary via AI.", func(ctx context.Context, text string) (string, error) {
		return h.relay.EnhanceSummary(ctx, text)
	})
}

// EnhanceJobDescription 润色工作经历描述。
func (h *AIHandler) EnhanceJobDescription(c *gin.Context) {
	h.enhance(c, "enhance_job_description", "Failed to enhance job description via AI.", func(ctx context.Context, text string) (string, error) {
		return h.relay.EnhanceJobDescription(ctx, text)
	})
}

func (h *AIHandler) enhance(c *gin.Context, operation, failMsg string, call func(context.Context, string) (string, error)) {
	userID, ok := h.admit(c)
	if !ok {
		return
	}

	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "invalid request body")
		return
	}

	enhanced, err := call(c.Request.Context(), req.UserContent)
	metrics.ObserveAI(operation, err)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyInput) {
			BadRequest(c, "Missing required fields (userContent)")
			return
		}
		middleware.LoggerFromContext(c).Error("ai enhance failed",
			slog.String("operation", operation),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		Internal(c, failMsg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enhancedContent": enhanced})
}

type uploadResumeRequest struct {
	ResumeText string `json:"resumeText"`
	Title      string `json:"title"`
}

// UploadResume 解析简历文本（或上传的 PDF）并保存为新简历。
func (h *AIHandler) UploadResume(c *gin.Context) {
	userID, ok := h.admit(c)
	if !ok {
		return
	}

	var req uploadResumeRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		text, title, err := h.readPDFUpload(c)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		req = uploadResumeRequest{ResumeText: text, Title: title}
	} else if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "invalid request body")
		return
	}

	resumeID, err := h.relay.ExtractResume(c.Request.Context(), userID, req.Title, req.ResumeText)
	metrics.ObserveAI("extract_resume", err)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyInput) {
			BadRequest(c, "Missing required fields (resumeText)")
			return
		}
		middleware.LoggerFromContext(c).Error("ai extract failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		Internal(c, "Failed to parse and upload resume via AI.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resumeId": resumeID})
}

// readPDFUpload 从 multipart 的 resume 字段中提取 PDF 文本。
func (h *AIHandler) readPDFUpload(c *gin.Context) (string, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	form, err := c.MultipartForm()
	if err != nil {
		return "", "", errors.New("invalid multipart form")
	}
	defer func() { _ = form.RemoveAll() }()

	title := firstValue(form.Value["title"])
	if text := firstValue(form.Value["resumeText"]); strings.TrimSpace(text) != "" {
		return text, title, nil
	}

	files := form.File["resume"]
	if len(files) == 0 {
		return "", title, nil
	}
	if h.maxUploadBytes > 0 && files[0].Size > h.maxUploadBytes {
		return "", "", errors.New("resume file is too large")
	}

	f, err := files[0].Open()
	if err != nil {
		return "", "", errors.New("failed to read resume file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", errors.New("failed to read resume file")
	}

	text, err := extract.PDFText(c.Request.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrNotPDF):
			return "", "", errors.New("resume must be a PDF file")
		case errors.Is(err, extract.ErrNoText):
			return "", "", errors.New("no text found in resume PDF")
		default:
			return "", "", errors.New("failed to read resume PDF")
		}
	}
	return text, title, nil
}

// admit 检查登录状态、AI 是否可用以及每用户小时限额。
func (h *AIHandler) admit(c *gin.Context) (string, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return "", false
	}
	if h.relay == nil {
		Unavailable(c, "AI service is not available")
		return "", false
	}
	if overHourlyLimit(c.Request.Context(), h.redis, "rate:ai:"+userID, h.rateLimitPerHour) {
		TooManyRequests(c, "rate limit exceeded")
		return "", false
	}
	return userID, true
}
