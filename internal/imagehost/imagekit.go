package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resumebuilder/internal/config"
)

// ImageKit 通过 ImageKit REST API 托管图片。
type ImageKit struct {
	privateKey string
	uploadURL  string
	apiURL     string
	folder     string
	httpClient *http.Client
}

// NewImageKit 返回 ImageKit 客户端；httpClient 为 nil 时使用默认超时。
func NewImageKit(cfg config.ImageKitConfig, folder string, httpClient *http.Client) (*ImageKit, error) {
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("imagekit private key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImageKit{
		privateKey: cfg.PrivateKey,
		uploadURL:  cfg.UploadURL,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		folder:     folder,
		httpClient: httpClient,
	}, nil
}

type imageKitUploadResponse struct {
	FileID  string `json:"fileId"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Upload 以 multipart 表单上传图片，并附带预处理变换。
func (k *ImageKit) Upload(ctx context.Context, in Upload) (Result, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", FileName(in.OwnerID))
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return Result{}, fmt.Errorf("copy image: %w", err)
	}

	transformation, err := json.Marshal(map[string]string{"pre": Transformation(in.RemoveBackground)})
	if err != nil {
		return Result{}, fmt.Errorf("marshal transformation: %w", err)
	}
	fields := map[string]string{
		"fileName":          FileName(in.OwnerID),
		"folder":            k.folder,
		"useUniqueFileName": "true",
		"transformation":    string(transformation),
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return Result{}, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := form.Close(); err != nil {
		return Result{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.uploadURL, &body)
	if err != nil {
		return Result{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.SetBasicAuth(k.privateKey, "")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var out imageKitUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("imagekit upload failed (status %d): %s", resp.StatusCode, out.Message)
	}
	if out.FileID == "" || out.URL == "" {
		return Result{}, errors.New("imagekit upload response missing fileId or url")
	}

	return Result{FileID: out.FileID, URL: out.URL}, nil
}

// Delete 删除托管文件；文件已不存在时视为成功。
func (k *ImageKit) Delete(ctx context.Context, fileID string) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/files/%s", k.apiURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(k.privateKey, "")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete image %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("imagekit delete failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
