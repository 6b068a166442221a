package imagehost

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectStore 是 MinIO 托管所需的对象存储能力，由 storage.Client 实现。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
}

// MinIO 将头像保存到对象存储。
// 不支持 ImageKit 的裁剪与抠图变换，原图直接保存。
type MinIO struct {
	store  ObjectStore
	folder string
}

// NewMinIO 返回基于对象存储的图片托管。
func NewMinIO(store ObjectStore, folder string) *MinIO {
	return &MinIO{store: store, folder: folder}
}

// Upload 以对象 key 作为文件标识。
func (m *MinIO) Upload(ctx context.Context, in Upload) (Result, error) {
	key := path.Join(m.folder, in.OwnerID, uuid.NewString()+".png")
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := m.store.UploadFile(ctx, key, in.Body, in.Size, contentType); err != nil {
		return Result{}, fmt.Errorf("upload image: %w", err)
	}
	return Result{FileID: key, URL: m.store.PublicURL(key)}, nil
}

// Delete 删除对象，幂等。
func (m *MinIO) Delete(ctx context.Context, fileID string) error {
	return m.store.DeleteObject(ctx, fileID)
}
