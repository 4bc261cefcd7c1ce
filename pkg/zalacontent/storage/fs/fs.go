package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// Backend is a filesystem implementation of the zalacontent.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem storage backend
func New(config Config) (zalacontent.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

func (b *Backend) wrap(op, key string, err error) error {
	return &zalacontent.StorageError{Backend: "fs", Key: key, Op: op, Err: err}
}

// Upload uploads content directly to the filesystem. MIME type is not stored
// separately, it is detected on read.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params zalacontent.UploadParams) error {
	filePath := filepath.Join(b.baseDir, params.ObjectKey)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return b.wrap("upload", params.ObjectKey, fmt.Errorf("failed to create directory: %w", err))
	}

	file, err := os.Create(filePath)
	if err != nil {
		return b.wrap("upload", params.ObjectKey, fmt.Errorf("failed to create file: %w", err))
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return b.wrap("upload", params.ObjectKey, fmt.Errorf("failed to write file: %w", err))
	}

	return nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return nil, b.wrap("download", objectKey, zalacontent.ErrObjectNotFound)
	} else if err != nil {
		return nil, b.wrap("download", objectKey, err)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return b.wrap("delete", objectKey, zalacontent.ErrObjectNotFound)
	}

	if err := os.Remove(filePath); err != nil {
		return b.wrap("delete", objectKey, err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*zalacontent.ObjectMeta, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, b.wrap("stat", objectKey, zalacontent.ErrObjectNotFound)
	} else if err != nil {
		return nil, b.wrap("stat", objectKey, err)
	}

	// Detect content type from the first bytes
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &zalacontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// GetDownloadURL returns a URL for downloading content
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "", b.wrap("download_url", objectKey, zalacontent.ErrURLNotSupported)
	}

	if downloadFilename != "" {
		return fmt.Sprintf("%s/download/%s?filename=%s", b.urlPrefix, objectKey, downloadFilename), nil
	}
	return fmt.Sprintf("%s/download/%s", b.urlPrefix, objectKey), nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
