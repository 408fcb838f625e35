// Package media stores uploaded images and hands back public URLs. The
// upload handler treats it as an opaque collaborator; the default
// implementation writes to local disk under the directory served at
// /uploads.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotImage    = errors.New("not an image")
	ErrEmptyUpload = errors.New("empty upload")
)

// Store persists an image and returns its public URL.
type Store interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// DiskStore writes images to a local directory with random object names.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the uploads directory if it does not exist. baseURL
// is the public prefix the files are served under (e.g. "/uploads").
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *DiskStore) Save(_ context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", ErrNotImage
	}

	ext, ok := extensions[mimeType]
	if !ok {
		ext = ".bin"
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return s.baseURL + "/" + name, nil
}
