package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/zala-app/content-engine/pkg/zalacontent"
)

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the zalacontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() zalacontent.BlobStore {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Upload uploads content with parameters
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params zalacontent.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &zalacontent.StorageError{Backend: "memory", Key: params.ObjectKey, Op: "upload", Err: err}
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, &zalacontent.StorageError{Backend: "memory", Key: objectKey, Op: "download", Err: zalacontent.ErrObjectNotFound}
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return &zalacontent.StorageError{Backend: "memory", Key: objectKey, Op: "delete", Err: zalacontent.ErrObjectNotFound}
	}

	delete(b.objects, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*zalacontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, &zalacontent.StorageError{Backend: "memory", Key: objectKey, Op: "stat", Err: zalacontent.ErrObjectNotFound}
	}

	return &zalacontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
		Metadata:    map[string]string{"mime_type": obj.mimeType},
	}, nil
}

// GetDownloadURL returns a URL for downloading content.
// The in-memory backend doesn't use URLs.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", &zalacontent.StorageError{Backend: "memory", Key: objectKey, Op: "download_url", Err: zalacontent.ErrURLNotSupported}
}
