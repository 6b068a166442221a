package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSection  = errors.New("unknown section")
	ErrUnknownOp       = errors.New("unknown operation")
	ErrUnknownField    = errors.New("unknown field")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidValue    = errors.New("invalid value")
)

// 分区名称与前端编辑器一致。
const (
	SectionPersonalInfo = "personal_info"
	SectionSummary      = "professional_summary"
	SectionExperience   = "experience"
	SectionEducation    = "education"
	SectionProjects     = "projects"
	SectionSkills       = "skills"
	SectionTitle        = "title"
	SectionTemplate     = "template"
	SectionAccentColor  = "accent_color"
	SectionPublic       = "public"
)

// 列表分区支持 add/remove/update，标量分区与 personal_info 支持 set/update。
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpSet    = "set"
)

// Action 是一次编辑操作。
// 列表分区：add 追加空条目（skills 可携带 value），remove 按下标删除，
// update 将 index 处条目的 field 设为 value。
type Action struct {
	Section string          `json:"section"`
	Op      string          `json:"op"`
	Index   *int            `json:"index,omitempty"`
	Field   string          `json:"field,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// Editor 是简历的纯函数式编辑器：每次操作产生新值，旧值不受影响。
type Editor struct {
	current Resume
}

// NewEditor 以 r 的副本作为初始状态。
func NewEditor(r Resume) *Editor {
	r.normalize()
	return &Editor{current: r.clone()}
}

// Resume 返回当前状态的副本。
func (e *Editor) Resume() Resume {
	return e.current.clone()
}

// Apply 执行单个操作；失败时状态不变。
func (e *Editor) Apply(a Action) error {
	next, err := reduce(e.current, a)
	if err != nil {
		return err
	}
	e.current = next
	return nil
}

// ApplyAll 依次执行全部操作；任一失败则整体回滚。
func (e *Editor) ApplyAll(actions []Action) error {
	next := e.current
	for i, a := range actions {
		var err error
		next, err = reduce(next, a)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	e.current = next
	return nil
}

func reduce(r Resume, a Action) (Resume, error) {
	out := r.clone()
	var err error

	switch a.Section {
	case SectionExperience:
		out.Experience, err = reduceList(out.Experience, a, (*Experience).setField)
	case SectionEducation:
		out.Education, err = reduceList(out.Education, a, (*Education).setField)
	case SectionProjects:
		out.Projects, err = reduceList(out.Projects, a, (*Project).setField)
	case SectionSkills:
		out.Skills, err = reduceSkills(out.Skills, a)
	case SectionPersonalInfo:
		err = reducePersonalInfo(&out.PersonalInfo, a)
	case SectionSummary:
		err = setScalar(a, func(v json.RawMessage) error { return decodeString(v, &out.ProfessionalSummary) })
	case SectionTitle:
		err = setScalar(a, func(v json.RawMessage) error {
			var title string
			if err := decodeString(v, &title); err != nil {
				return err
			}
			out.Title = normalizeTitle(title)
			return nil
		})
	case SectionTemplate:
		err = setScalar(a, func(v json.RawMessage) error {
			var t string
			if err := decodeString(v, &t); err != nil {
				return err
			}
			if !Template(t).Valid() {
				return fmt.Errorf("%w: unknown template %q", ErrInvalidValue, t)
			}
			out.Template = Template(t)
			return nil
		})
	case SectionAccentColor:
		err = setScalar(a, func(v json.RawMessage) error {
			var c string
			if err := decodeString(v, &c); err != nil {
				return err
			}
			if !ValidAccentColor(c) {
				return fmt.Errorf("%w: accent_color must be a hex color", ErrInvalidValue)
			}
			out.AccentColor = c
			return nil
		})
	case SectionPublic:
		err = setScalar(a, func(v json.RawMessage) error { return decodeBool(v, &out.Public) })
	default:
		return r, fmt.Errorf("%w: %q", ErrUnknownSection, a.Section)
	}
	if err != nil {
		return r, err
	}
	return out, nil
}

// target 返回 remove/update 作用的下标；缺少 index 视为非法请求，不默认为 0。
func (a Action) target(n int) (int, error) {
	if a.Index == nil {
		return 0, fmt.Errorf("%w: index is required for %s on %s", ErrInvalidValue, a.Op, a.Section)
	}
	i := *a.Index
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return i, nil
}

// reduceList 实现列表分区的 add/remove/update，总是返回新切片。
func reduceList[T any](list []T, a Action, set func(*T, string, json.RawMessage) error) ([]T, error) {
	switch a.Op {
	case OpAdd:
		out := make([]T, len(list), len(list)+1)
		copy(out, list)
		var blank T
		return append(out, blank), nil
	case OpRemove:
		i, err := a.target(len(list))
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...), nil
	case OpUpdate:
		i, err := a.target(len(list))
		if err != nil {
			return nil, err
		}
		out := append([]T(nil), list...)
		entry := out[i]
		if err := set(&entry, a.Field, a.Value); err != nil {
			return nil, err
		}
		out[i] = entry
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownOp, a.Op, a.Section)
	}
}

func reduceSkills(list Skills, a Action) (Skills, error) {
	switch a.Op {
	case OpAdd:
		var skill string
		if len(a.Value) > 0 {
			if err := decodeString(a.Value, &skill); err != nil {
				return nil, err
			}
		}
		out := make(Skills, len(list), len(list)+1)
		copy(out, list)
		return append(out, strings.TrimSpace(skill)), nil
	case OpUpdate:
		i, err := a.target(len(list))
		if err != nil {
			return nil, err
		}
		var skill string
		if err := decodeString(a.Value, &skill); err != nil {
			return nil, err
		}
		out := append(Skills(nil), list...)
		out[i] = skill
		return out, nil
	case OpSet:
		var all Skills
		if err := json.Unmarshal(a.Value, &all); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return all, nil
	default:
		return reduceList([]string(list), a, nil)
	}
}

func reducePersonalInfo(info *PersonalInfo, a Action) error {
	switch a.Op {
	case OpUpdate:
		next := *info
		if err := next.setField(a.Field, a.Value); err != nil {
			return err
		}
		*info = next
		return nil
	case OpSet:
		var next PersonalInfo
		if err := json.Unmarshal(a.Value, &next); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		*info = next
		return nil
	default:
		return fmt.Errorf("%w: %q on %s", ErrUnknownOp, a.Op, a.Section)
	}
}

func setScalar(a Action, set func(json.RawMessage) error) error {
	if a.Op != OpSet && a.Op != OpUpdate {
		return fmt.Errorf("%w: %q on %s", ErrUnknownOp, a.Op, a.Section)
	}
	return set(a.Value)
}

func (e *Experience) setField(field string, v json.RawMessage) error {
	switch field {
	case "company":
		return decodeString(v, &e.Company)
	case "position":
		return decodeString(v, &e.Position)
	case "start_date":
		return decodeString(v, &e.StartDate)
	case "end_date":
		return decodeString(v, &e.EndDate)
	case "description":
		return decodeString(v, &e.Description)
	case "is_current":
		return decodeBool(v, &e.IsCurrent)
	default:
		return fmt.Errorf("%w: experience.%s", ErrUnknownField, field)
	}
}

func (e *Education) setField(field string, v json.RawMessage) error {
	switch field {
	case "institution":
		return decodeString(v, &e.Institution)
	case "degree":
		return decodeString(v, &e.Degree)
	case "field":
		return decodeString(v, &e.Field)
	case "graduation_date":
		return decodeString(v, &e.GraduationDate)
	case "gpa":
		return decodeString(v, &e.GPA)
	default:
		return fmt.Errorf("%w: education.%s", ErrUnknownField, field)
	}
}

func (p *Project) setField(field string, v json.RawMessage) error {
	switch field {
	case "name":
		return decodeString(v, &p.Name)
	case "type":
		return decodeString(v, &p.Type)
	case "description":
		return decodeString(v, &p.Description)
	default:
		return fmt.Errorf("%w: projects.%s", ErrUnknownField, field)
	}
}

func (p *PersonalInfo) setField(field string, v json.RawMessage) error {
	switch field {
	case "image":
		return decodeString(v, &p.Image)
	case "full_name":
		return decodeString(v, &p.FullName)
	case "profession":
		return decodeString(v, &p.Profession)
	case "email":
		return decodeString(v, &p.Email)
	case "phone":
		return decodeString(v, &p.Phone)
	case "location":
		return decodeString(v, &p.Location)
	case "linkedin":
		return decodeString(v, &p.LinkedIn)
	case "website":
		return decodeString(v, &p.Website)
	default:
		return fmt.Errorf("%w: personal_info.%s", ErrUnknownField, field)
	}
}

func decodeString(v json.RawMessage, dst *string) error {
	if len(v) == 0 {
		*dst = ""
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: expected string", ErrInvalidValue)
	}
	return nil
}

func decodeBool(v json.RawMessage, dst *bool) error {
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: expected boolean", ErrInvalidValue)
	}
	return nil
}
