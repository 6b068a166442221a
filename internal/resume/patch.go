package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ErrInvalidPatch 表示更新内容无法通过校验。
var ErrInvalidPatch = errors.New("invalid resume data")

// Patch 描述一次部分更新：出现的顶层字段整体覆盖，未出现的保持不变。
// _id、userId 等服务器字段不在其中，客户端提交时会被忽略。
type Patch struct {
	Title               *string       `json:"title"`
	Public              *bool         `json:"public"`
	Template            *Template     `json:"template"`
	AccentColor         *string       `json:"accent_color"`
	ProfessionalSummary *string       `json:"professional_summary"`
	Skills              *Skills       `json:"skills"`
	PersonalInfo        *PersonalInfo `json:"personal_info"`
	Experience          *[]Experience `json:"experience"`
	Projects            *[]Project    `json:"projects"`
	Education           *[]Education  `json:"education"`
}

// ParsePatch 解析客户端提交的 resumeData。
func ParsePatch(raw []byte) (Patch, error) {
	var p Patch
	if len(strings.TrimSpace(string(raw))) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return p, nil
}

// Validate 检查模板与主题色。
func (p Patch) Validate() error {
	if p.Template != nil && !p.Template.Valid() {
		return fmt.Errorf("%w: unknown template %q", ErrInvalidPatch, *p.Template)
	}
	if p.AccentColor != nil && !ValidAccentColor(*p.AccentColor) {
		return fmt.Errorf("%w: accent_color must be a hex color", ErrInvalidPatch)
	}
	return nil
}

// Empty 判断补丁是否不含任何字段。
func (p Patch) Empty() bool {
	return p.Title == nil && p.Public == nil && p.Template == nil && p.AccentColor == nil &&
		p.ProfessionalSummary == nil && p.Skills == nil && p.PersonalInfo == nil &&
		p.Experience == nil && p.Projects == nil && p.Education == nil
}

// Apply 返回应用补丁后的新简历，不修改入参。
func (p Patch) Apply(r Resume) Resume {
	out := r.clone()
	if p.Title != nil {
		out.Title = normalizeTitle(*p.Title)
	}
	if p.Public != nil {
		out.Public = *p.Public
	}
	if p.Template != nil {
		out.Template = *p.Template
	}
	if p.AccentColor != nil {
		out.AccentColor = *p.AccentColor
	}
	if p.ProfessionalSummary != nil {
		out.ProfessionalSummary = *p.ProfessionalSummary
	}
	if p.Skills != nil {
		out.Skills = append(Skills{}, (*p.Skills)...)
	}
	if p.PersonalInfo != nil {
		out.PersonalInfo = *p.PersonalInfo
	}
	if p.Experience != nil {
		out.Experience = append([]Experience{}, (*p.Experience)...)
	}
	if p.Projects != nil {
		out.Projects = append([]Project{}, (*p.Projects)...)
	}
	if p.Education != nil {
		out.Education = append([]Education{}, (*p.Education)...)
	}
	out.normalize()
	return out
}

// columns 生成数据库更新字段，只包含补丁中出现的列。
func (p Patch) columns() map[string]any {
	updates := map[string]any{"updated_at": time.Now()}
	if p.Title != nil {
		updates["title"] = normalizeTitle(*p.Title)
	}
	if p.Public != nil {
		updates["public"] = *p.Public
	}
	if p.Template != nil {
		updates["template"] = string(*p.Template)
	}
	if p.AccentColor != nil {
		updates["accent_color"] = *p.AccentColor
	}
	if p.ProfessionalSummary != nil {
		updates["professional_summary"] = *p.ProfessionalSummary
	}
	if p.Skills != nil {
		updates["skills"] = datatypes.JSONSlice[string](append(Skills{}, (*p.Skills)...))
	}
	if p.PersonalInfo != nil {
		updates["personal_info"] = datatypes.NewJSONType(*p.PersonalInfo)
	}
	if p.Experience != nil {
		updates["experience"] = datatypes.JSONSlice[Experience](append([]Experience{}, (*p.Experience)...))
	}
	if p.Projects != nil {
		updates["projects"] = datatypes.JSONSlice[Project](append([]Project{}, (*p.Projects)...))
	}
	if p.Education != nil {
		updates["education"] = datatypes.JSONSlice[Education](append([]Education{}, (*p.Education)...))
	}
	return updates
}

// PatchFromResume 构造一个覆盖全部内容字段的补丁，供整体编辑结果落库。
func PatchFromResume(r Resume) Patch {
	r.normalize()
	return Patch{
		Title:               &r.Title,
		Public:              &r.Public,
		Template:            &r.Template,
		AccentColor:         &r.AccentColor,
		ProfessionalSummary: &r.ProfessionalSummary,
		Skills:              &r.Skills,
		PersonalInfo:        &r.PersonalInfo,
		Experience:          &r.Experience,
		Projects:            &r.Projects,
		Education:           &r.Education,
	}
}

func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	return title
}
