package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// looseText 接受字符串、数字、布尔与 null，统一转为字符串。
// 模型输出和历史数据里的 "gpa": 3.8 之类的写法按原文保存。
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = looseText(s)
	case trimmed[0] == '{', trimmed[0] == '[':
		// 嵌套结构保留其 JSON 文本，不做猜测。
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*t = looseText(buf.String())
	default:
		// 数字与 true/false 保留字面量。
		*t = looseText(trimmed)
	}
	return nil
}

// looseFlag 接受布尔、"true"/"false" 形式的字符串、数字与 null。
type looseFlag bool

func (f *looseFlag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*f = false
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			*f = false
			return nil
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
		}
		*f = looseFlag(v)
		return nil
	case trimmed[0] == 't' || trimmed[0] == 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*f = looseFlag(v)
		return nil
	default:
		n, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return fmt.Errorf("%w: %s is not a boolean", ErrInvalidValue, trimmed)
		}
		*f = n != 0
		return nil
	}
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (p *PersonalInfo) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w struct {
		Image      looseText `json:"image"`
		FullName   looseText `json:"full_name"`
		Profession looseText `json:"profession"`
		Email      looseText `json:"email"`
		Phone      looseText `json:"phone"`
		Location   looseText `json:"location"`
		LinkedIn   looseText `json:"linkedin"`
		Website    looseText `json:"website"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = PersonalInfo{
		Image:      string(w.Image),
		FullName:   string(w.FullName),
		Profession: string(w.Profession),
		Email:      string(w.Email),
		Phone:      string(w.Phone),
		Location:   string(w.Location),
		LinkedIn:   string(w.LinkedIn),
		Website:    string(w.Website),
	}
	return nil
}

func (e *Experience) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w struct {
		Company     looseText `json:"company"`
		Position    looseText `json:"position"`
		StartDate   looseText `json:"start_date"`
		EndDate     looseText `json:"end_date"`
		Description looseText `json:"description"`
		IsCurrent   looseFlag `json:"is_current"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Experience{
		Company:     string(w.Company),
		Position:    string(w.Position),
		StartDate:   string(w.StartDate),
		EndDate:     string(w.EndDate),
		Description: string(w.Description),
		IsCurrent:   bool(w.IsCurrent),
	}
	return nil
}

func (p *Project) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w struct {
		Name        looseText `json:"name"`
		Type        looseText `json:"type"`
		Description looseText `json:"description"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Project{
		Name:        string(w.Name),
		Type:        string(w.Type),
		Description: string(w.Description),
	}
	return nil
}

func (e *Education) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w struct {
		Institution    looseText `json:"institution"`
		Degree         looseText `json:"degree"`
		Field          looseText `json:"field"`
		GraduationDate looseText `json:"graduation_date"`
		GPA            looseText `json:"gpa"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Education{
		Institution:    string(w.Institution),
		Degree:         string(w.Degree),
		Field:          string(w.Field),
		GraduationDate: string(w.GraduationDate),
		GPA:            string(w.GPA),
	}
	return nil
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w struct {
		ProfessionalSummary looseText    `json:"professional_summary"`
		Skills              Skills       `json:"skills"`
		PersonalInfo        PersonalInfo `json:"personal_info"`
		Experience          []Experience `json:"experience"`
		Projects            []Project    `json:"projects"`
		Education           []Education  `json:"education"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Content{
		ProfessionalSummary: string(w.ProfessionalSummary),
		Skills:              w.Skills,
		PersonalInfo:        w.PersonalInfo,
		Experience:          w.Experience,
		Projects:            w.Projects,
		Education:           w.Education,
	}
	return nil
}
