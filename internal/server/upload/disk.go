package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// DiskStore keeps images as files in one directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes image to dir/name
func (s *DiskStore) Save(_ context.Context, name, _ string, r io.Reader) error {
	if err := ValidName(name); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write image: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image file: %w", err)
	}

	return nil
}

// Open opens dir/name. Content type comes from the extension or is sniffed.
func (s *DiskStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	if err := ValidName(name); err != nil {
		return nil, "", err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		contentType = http.DetectContentType(head[:n])
		return readCloser{Reader: io.MultiReader(bytes.NewReader(head[:n]), f), Closer: f}, contentType, nil
	}

	return f, contentType, nil
}

// Delete removes dir/name
func (s *DiskStore) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Close is a no-op
func (s *DiskStore) Close() error {
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
