// Package users 管理账号的注册、登录校验与查询。
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"resumebuilder/internal/auth"
)

var (
	ErrMissingFields      = errors.New("missing details")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
)

// Service 负责账号数据的读写。
type Service struct {
	db *gorm.DB
}

// NewService 返回 Service。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NormalizeEmail 去除空白并转为小写。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 创建新账号；邮箱已被占用时返回 ErrEmailTaken。
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, ErrMissingFields
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if count > 0 {
		return User{}, ErrEmailTaken
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	user := User{Name: name, Email: email, PasswordHash: hashed}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 并发注册同一邮箱时由唯一索引兜底。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate 校验邮箱与密码。
// 邮箱不存在与密码错误返回同一个错误。
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrMissingFields
	}

	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get 按 ID 查询账号。
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
