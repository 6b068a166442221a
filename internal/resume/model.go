package resume

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record 是简历在数据库中的存储形态：每份简历一行，各分区以 JSON 列保存。
type Record struct {
	ID                  string                           `gorm:"primaryKey;size:36"`
	UserID              string                           `gorm:"size:36;index;not null"`
	Title               string                           `gorm:"size:255"`
	Public              bool                             `gorm:"index"`
	Template            string                           `gorm:"size:32"`
	AccentColor         string                           `gorm:"size:16"`
	ProfessionalSummary string                           `gorm:"type:text"`
	Skills              datatypes.JSONSlice[string]      `gorm:"not null"`
	PersonalInfo        datatypes.JSONType[PersonalInfo] `gorm:"not null"`
	Experience          datatypes.JSONSlice[Experience]  `gorm:"not null"`
	Projects            datatypes.JSONSlice[Project]     `gorm:"not null"`
	Education           datatypes.JSONSlice[Education]   `gorm:"not null"`
	ImageFileID         string                           `gorm:"size:128"`
	PdfObjectKey        string                           `gorm:"size:512"`
	ExportStatus        string                           `gorm:"size:32"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName 固定表名。
func (Record) TableName() string { return "resumes" }

// BeforeCreate 生成 UUID 主键。
func (r *Record) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

func newRecord(r Resume) Record {
	r.normalize()
	return Record{
		ID:                  r.ID,
		UserID:              r.UserID,
		Title:               r.Title,
		Public:              r.Public,
		Template:            string(r.Template),
		AccentColor:         r.AccentColor,
		ProfessionalSummary: r.ProfessionalSummary,
		Skills:              datatypes.JSONSlice[string](r.Skills),
		PersonalInfo:        datatypes.NewJSONType(r.PersonalInfo),
		Experience:          datatypes.JSONSlice[Experience](r.Experience),
		Projects:            datatypes.JSONSlice[Project](r.Projects),
		Education:           datatypes.JSONSlice[Education](r.Education),
	}
}

// Resume 将存储记录转换为对外的简历文档。
func (rec Record) Resume() Resume {
	r := Resume{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		Title:               rec.Title,
		Public:              rec.Public,
		Template:            Template(rec.Template),
		AccentColor:         rec.AccentColor,
		ProfessionalSummary: rec.ProfessionalSummary,
		Skills:              Skills(rec.Skills),
		PersonalInfo:        rec.PersonalInfo.Data(),
		Experience:          []Experience(rec.Experience),
		Projects:            []Project(rec.Projects),
		Education:           []Education(rec.Education),
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
	r.normalize()
	return r
}
