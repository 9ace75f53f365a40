package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poshpearl/poshpearl/internal/config"
)

// UploadService 商品图片上传服务
type UploadService struct {
	cfg config.UploadConfig
}

// NewUploadService 创建上传服务
func NewUploadService(cfg config.UploadConfig) *UploadService {
	return &UploadService{cfg: cfg}
}

// SaveProductImage 保存上传的商品图片，按文件头嗅探校验真实类型。
// 返回以 / 开头的相对路径，由前端拼接完整 URL。
func (s *UploadService) SaveProductImage(file *multipart.FileHeader) (string, error) {
	if file.Size > s.cfg.MaxSize {
		return "", fmt.Errorf("%w: file exceeds %d MB", ErrImageInvalid, s.cfg.MaxSize/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.AllowedExtensions) > 0 && !isAllowedExtension(ext, s.cfg.AllowedExtensions) {
		return "", fmt.Errorf("%w: extension %q not allowed", ErrImageInvalid, ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	header := make([]byte, 512)
	if _, err := src.Read(header); err != nil && err != io.EOF {
		return "", err
	}
	contentType := http.DetectContentType(header)
	if len(s.cfg.AllowedTypes) > 0 && !isAllowedContentType(contentType, s.cfg.AllowedTypes) {
		return "", fmt.Errorf("%w: content type %q not allowed", ErrImageInvalid, contentType)
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", err
	}

	now := time.Now()
	filename := uuid.New().String() + ext
	relDir := filepath.Join("products", now.Format("2006"), now.Format("01"))
	saveDir := filepath.Join(s.uploadDir(), relDir)
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(saveDir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/" + filepath.ToSlash(filepath.Join("uploads", relDir, filename)), nil
}

func (s *UploadService) uploadDir() string {
	if s.cfg.Dir != "" {
		return s.cfg.Dir
	}
	return "uploads"
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func isAllowedContentType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
