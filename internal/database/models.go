package database

import (
	"fmt"

	"gorm.io/gorm"

	"resumebuilder/internal/resume"
	"resumebuilder/internal/users"
)

// Models 返回需要迁移的全部表模型。
// 简历的各个分区以 JSON/JSONB 列保存在同一行，一份简历即一条记录。
func Models() []any {
	return []any{
		&users.User{},
		&resume.Record{},
	}
}

// Migrate 自动迁移表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
