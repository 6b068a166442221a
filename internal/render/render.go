// Package render 将简历渲染为可打印的 HTML，供预览、公开页与 PDF 导出共用。
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"resumebuilder/internal/resume"
)

var funcs = template.FuncMap{
	"accent":     accent,
	"formatDate": formatDate,
	"dateRange":  dateRange,
	"lines":      lines,
	"initials":   initials,
	"join":       strings.Join,
	"hasContact": hasContact,
}

var templates = mustParse()

func mustParse() map[resume.Template]*template.Template {
	base := template.Must(template.New("layout").Funcs(funcs).Parse(layoutHTML))
	bodies := map[resume.Template]string{
		resume.TemplateClassic:      classicHTML,
		resume.TemplateModern:       modernHTML,
		resume.TemplateMinimal:      minimalHTML,
		resume.TemplateMinimalImage: minimalImageHTML,
	}

	out := make(map[resume.Template]*template.Template, len(bodies))
	for id, body := range bodies {
		t := template.Must(base.Clone())
		out[id] = template.Must(t.Parse(body))
	}
	return out
}

// Resolve 返回实际使用的模板，未知模板回落到 classic。
func Resolve(t resume.Template) resume.Template {
	if _, ok := templates[t]; ok {
		return t
	}
	return resume.TemplateClassic
}

// Render 按简历选择的模板输出完整 HTML 文档。
func Render(w io.Writer, r resume.Resume) error {
	tmpl := templates[Resolve(r.Template)]
	if err := tmpl.ExecuteTemplate(w, "layout", r); err != nil {
		return fmt.Errorf("render resume %s: %w", r.ID, err)
	}
	return nil
}

// HTML 渲染为字节切片。
func HTML(r resume.Resume) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// accent 只输出合法的十六进制颜色，其余情况使用默认主题色。
func accent(color string) template.CSS {
	if !resume.ValidAccentColor(color) {
		color = resume.DefaultAccentColor
	}
	return template.CSS(color)
}

// formatDate 将 YYYY-MM 转为 "Jan 2024"，无法解析时原样返回。
func formatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return value
}

func dateRange(e resume.Experience) string {
	start := formatDate(e.StartDate)
	end := formatDate(e.EndDate)
	if e.IsCurrent {
		end = "Present"
	}
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		out = append(out, []rune(part)[0])
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

func hasContact(p resume.PersonalInfo) bool {
	return p.Email != "" || p.Phone != "" || p.Location != "" || p.LinkedIn != "" || p.Website != ""
}
