package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Template 标识简历的展示模板。
type Template string

const (
	TemplateClassic      Template = "classic"
	TemplateModern       Template = "modern"
	TemplateMinimal      Template = "minimal"
	TemplateMinimalImage Template = "minimal-image"
)

const (
	DefaultTitle       = "Untitled Resume"
	DefaultTemplate    = TemplateClassic
	DefaultAccentColor = "#3b82f6"
)

// Templates 返回全部可选模板，顺序固定。
func Templates() []Template {
	return []Template{TemplateClassic, TemplateModern, TemplateMinimal, TemplateMinimalImage}
}

// Valid 判断 t 是否为已知模板。
func (t Template) Valid() bool {
	switch t {
	case TemplateClassic, TemplateModern, TemplateMinimal, TemplateMinimalImage:
		return true
	default:
		return false
	}
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidAccentColor 校验 #rgb / #rrggbb 形式的颜色。
func ValidAccentColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

// Resume 是一份完整的简历文档，JSON 字段名与前端保持一致。
type Resume struct {
	ID                  string       `json:"_id"`
	UserID              string       `json:"userId"`
	Title               string       `json:"title"`
	Public              bool         `json:"public"`
	Template            Template     `json:"template"`
	AccentColor         string       `json:"accent_color"`
	ProfessionalSummary string       `json:"professional_summary"`
	Skills              Skills       `json:"skills"`
	PersonalInfo        PersonalInfo `json:"personal_info"`
	Experience          []Experience `json:"experience"`
	Projects            []Project    `json:"projects"`
	Education           []Education  `json:"education"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// PersonalInfo 是简历头部的联系信息。
type PersonalInfo struct {
	Image      string `json:"image"`
	FullName   string `json:"full_name"`
	Profession string `json:"profession"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	LinkedIn   string `json:"linkedin"`
	Website    string `json:"website"`
}

type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"is_current"`
}

type Project struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	Field          string `json:"field"`
	GraduationDate string `json:"graduation_date"`
	GPA            string `json:"gpa"`
}

// Content 是 AI 抽取结果对应的内容部分。
type Content struct {
	ProfessionalSummary string       `json:"professional_summary"`
	Skills              Skills       `json:"skills"`
	PersonalInfo        PersonalInfo `json:"personal_info"`
	Experience          []Experience `json:"experience"`
	Projects            []Project    `json:"projects"`
	Education           []Education  `json:"education"`
}

// Skills 统一为字符串列表。
// 历史数据或模型输出中的自由文本会按逗号/换行拆分迁移。
type Skills []string

// UnmarshalJSON 同时接受字符串数组和单个自由文本；数组元素可以是数字等标量。
func (s *Skills) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Skills{}
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("decode skills text: %w", err)
		}
		*s = SplitSkills(text)
		return nil
	}

	var list []looseText
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return fmt.Errorf("decode skills list: %w", err)
	}
	out := make(Skills, 0, len(list))
	for _, skill := range list {
		out = append(out, string(skill))
	}
	*s = out
	return nil
}

// MarshalJSON 总是输出数组，不输出 null。
func (s Skills) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// SplitSkills 将自由文本技能拆分为列表。
func SplitSkills(text string) Skills {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make(Skills, 0, len(fields))
	for _, f := range fields {
		if skill := strings.TrimSpace(f); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}

// New 返回带默认值的空简历。
func New(ownerID, title string) Resume {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return Resume{
		UserID:      ownerID,
		Title:       title,
		Template:    DefaultTemplate,
		AccentColor: DefaultAccentColor,
		Skills:      Skills{},
		Experience:  []Experience{},
		Projects:    []Project{},
		Education:   []Education{},
	}
}

// normalize 保证列表字段不为 nil，序列化时总是输出空数组。
func (r *Resume) normalize() {
	if r.Skills == nil {
		r.Skills = Skills{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Template == "" {
		r.Template = DefaultTemplate
	}
	if r.AccentColor == "" {
		r.AccentColor = DefaultAccentColor
	}
}

// clone 复制简历，切片不与原值共享底层数组。
func (r Resume) clone() Resume {
	out := r
	out.Skills = append(Skills{}, r.Skills...)
	out.Experience = append([]Experience{}, r.Experience...)
	out.Projects = append([]Project{}, r.Projects...)
	out.Education = append([]Education{}, r.Education...)
	return out
}
