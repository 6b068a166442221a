package api

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/render"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/tasks"
)

// PreviewResume 以 HTML 渲染当前用户的简历，用于打印预览。
func (h *ResumeHandler) PreviewResume(c *gin.Context) {
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
	h.writeHTML(c, doc)
}

// ViewPublicResume 渲染公开简历，供分享链接直接访问。
func (h *ResumeHandler) ViewPublicResume(c *gin.Context) {
	doc, err := h.resumes.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found or Not Public.")
		return
	}
	h.writeHTML(c, doc)
}

func (h *ResumeHandler) writeHTML(c *gin.Context, doc resume.Resume) {
	html, err := render.HTML(doc)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// ExportResume 将 PDF 导出任务入队并立即返回 202。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if h.exports == nil {
		Unavailable(c, "pdf export is not available")
		return
	}

	ctx := c.Request.Context()
	doc, err := h.resumes.BeginExport(ctx, userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}

	taskID, err := h.exports.SchedulePDFExport(ctx, tasks.PDFExportPayload{
		ResumeID:      doc.ID,
		UserID:        userID,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.loggerFromContext(c).Error("enqueue pdf export failed", slog.Any("error", err))
		if markErr := h.resumes.FinishExport(ctx, doc.ID, "", err); markErr != nil {
			h.loggerFromContext(c).Error("mark export failed", slog.Any("error", markErr))
		}
		Internal(c, "failed to enqueue pdf export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF export request accepted",
		"task_id": taskID,
	})
}

// GetExportLink 生成最近一次导出 PDF 的预签名下载链接。
func (h *ResumeHandler) GetExportLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if h.links == nil {
		Unavailable(c, "pdf export is not available")
		return
	}

	ctx := c.Request.Context()
	state, err := h.resumes.Export(ctx, userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}

	switch {
	case state.Status == resume.ExportStatusFailed:
		Conflict(c, "pdf export failed")
		return
	case state.Status != resume.ExportStatusCompleted || state.ObjectKey == "":
		Conflict(c, "pdf not ready")
		return
	}

	doc, err := h.resumes.Get(ctx, userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Resume Not Found!")
		return
	}

	signedURL, err := h.links.GeneratePresignedURL(ctx, state.ObjectKey, downloadLinkTTL, downloadName(doc.Title))
	if err != nil {
		h.loggerFromContext(c).Error("generate download link failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

// downloadName 将简历标题转换为安全的附件文件名。
func downloadName(title string) string {
	name := strings.TrimSpace(unsafeFileChars.ReplaceAllString(title, ""))
	if name == "" {
		name = "resume"
	}
	return name + ".pdf"
}
