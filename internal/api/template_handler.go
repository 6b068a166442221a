package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/resume"
)

// TemplateHandler 负责模板相关的 API。
type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

type templateListItem struct {
	ID      resume.Template `json:"id"`
	Name    string          `json:"name"`
	Image   bool            `json:"image"`
	Default bool            `json:"default"`
}

var templateNames = map[resume.Template]string{
	resume.TemplateClassic:      "Classic",
	resume.TemplateModern:       "Modern",
	resume.TemplateMinimal:      "Minimal",
	resume.TemplateMinimalImage: "Minimal Image",
}

// GET /templates
// 列出可用模板及默认主题色，供前端模板选择器使用。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates := resume.Templates()
	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:      t,
			Name:    templateNames[t],
			Image:   t == resume.TemplateMinimalImage,
			Default: t == resume.DefaultTemplate,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"templates":    items,
		"accent_color": resume.DefaultAccentColor,
	})
}
