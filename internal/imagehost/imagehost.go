// Package imagehost 负责头像图片的托管：上传、生成带变换的访问地址以及删除。
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"

	"resumebuilder/internal/config"
)

// ErrInfected 表示上传文件未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// Upload 描述一次头像上传。
type Upload struct {
	OwnerID          string
	ContentType      string
	Size             int64
	Body             io.Reader
	RemoveBackground bool
}

// Result 是托管方返回的文件标识与访问地址。
type Result struct {
	FileID string
	URL    string
}

// Uploader 由 ImageKit 与 MinIO 两种实现提供。
type Uploader interface {
	Upload(ctx context.Context, in Upload) (Result, error)
	Delete(ctx context.Context, fileID string) error
}

// 头像统一裁剪为 300x300 并以人脸为中心。
const baseTransformation = "w-300,h-300,fo-face,z-0.75"

// Transformation 返回 ImageKit 的预处理变换串。
func Transformation(removeBackground bool) string {
	if removeBackground {
		return baseTransformation + ",e-bgremove"
	}
	return baseTransformation
}

// FileName 返回用户头像的固定文件名。
func FileName(ownerID string) string {
	return fmt.Sprintf("resume-profile-%s.png", ownerID)
}

// FromConfig 按 IMAGE_PROVIDER 选择托管实现。store 仅在 minio 模式下使用。
func FromConfig(cfg *config.Config, store ObjectStore) (Uploader, error) {
	var (
		base Uploader
		err  error
	)
	switch cfg.Image.Provider {
	case "minio":
		if store == nil {
			return nil, errors.New("minio storage is not configured")
		}
		base = NewMinIO(store, cfg.Image.Folder)
	default:
		base, err = NewImageKit(cfg.ImageKit, cfg.Image.Folder, nil)
		if err != nil {
			return nil, err
		}
	}

	var scanner Scanner
	if cfg.Clamd.Addr != "" {
		scanner = NewClamdScanner(cfg.Clamd.Addr)
	}
	return WithScanner(base, scanner), nil
}
