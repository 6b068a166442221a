package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dutchcoders/go-clamd"
)

// Scanner 检查文件内容是否安全。
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 接口扫描文件。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 返回连接到 addr 的扫描器，例如 tcp://clamav:3310。
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// Scan 发现病毒时返回 ErrInfected。
func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, strings.TrimSpace(result.Description))
			default:
				return fmt.Errorf("scan failed: %s", strings.TrimSpace(result.Raw))
			}
		}
	}
}

// Scanning 在上传前扫描图片内容。
type Scanning struct {
	next    Uploader
	scanner Scanner
}

// WithScanner 为 next 增加病毒扫描；scanner 为 nil 时直接返回 next。
func WithScanner(next Uploader, scanner Scanner) Uploader {
	if scanner == nil {
		return next
	}
	return &Scanning{next: next, scanner: scanner}
}

// Upload 读入内容、扫描，通过后再交给下游上传。
func (s *Scanning) Upload(ctx context.Context, in Upload) (Result, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}
	if err := s.scanner.Scan(ctx, bytes.NewReader(data)); err != nil {
		return Result{}, err
	}
	in.Body = bytes.NewReader(data)
	in.Size = int64(len(data))
	return s.next.Upload(ctx, in)
}

// Delete 直接委托下游。
func (s *Scanning) Delete(ctx context.Context, fileID string) error {
	return s.next.Delete(ctx, fileID)
}
