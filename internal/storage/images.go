// Package storage stores question images in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageStore is what the image upload handler needs from object storage.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// ImageKey builds the object key for a new image of a question. The
// extension follows the content type; non-image types are rejected.
func ImageKey(questionID, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}
	ext := strings.TrimPrefix(mediaType, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	return path.Join("questions", questionID, uuid.NewString()+"."+ext), nil
}

// MemoryImages is an in-process ImageStore for tests and local runs.
type MemoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryImages() *MemoryImages {
	return &MemoryImages{objects: map[string][]byte{}}
}

func (m *MemoryImages) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return nil
}

func (m *MemoryImages) URL(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "memory://" + key, nil
}

// Len reports how many objects are stored.
func (m *MemoryImages) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
