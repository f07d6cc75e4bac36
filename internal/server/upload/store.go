// Package upload stores product images on disk or in a bbolt file.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/shopapp/internal/config"
)

var (
	// ErrImageNotFound indicates that no image is stored under the name
	ErrImageNotFound = errors.New("image not found")

	// ErrInvalidName indicates a name that could escape the store
	ErrInvalidName = errors.New("invalid image name")
)

// Store persists uploaded images by generated name
type Store interface {
	// Save stores image content under name
	Save(ctx context.Context, name, contentType string, r io.Reader) error

	// Open returns image content and its content type
	// Returns ErrImageNotFound if nothing is stored under name
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)

	// Delete removes an image, missing images are ignored
	Delete(ctx context.Context, name string) error

	Close() error
}

// NewStore creates the store selected by cfg.Backend
func NewStore(cfg config.UploadsConfig) (Store, error) {
	switch cfg.Backend {
	case config.UploadBackendDisk:
		return NewDiskStore(cfg.Dir)
	case config.UploadBackendBolt:
		return NewBoltStore(cfg.BoltPath)
	}
	return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
}

// NewFileName returns a unique storage name keeping the original base name
func NewFileName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, r == '/', r == ':':
			return -1
		}
		return r
	}, base)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return uuid.NewString() + "_" + base
}

// ValidName reports whether name is a plain file name
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}
