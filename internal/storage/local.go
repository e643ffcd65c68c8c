package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskDriver stores objects under a base directory, mirroring the key's
// slash-separated segments as directories.
type DiskDriver struct {
	baseDir   string
	publicURL string
}

func NewDiskDriver(baseDir, publicURL string) (*DiskDriver, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskDriver{baseDir: baseDir, publicURL: publicURL}, nil
}

// path resolves a key inside baseDir, rejecting traversal outside it.
func (d *DiskDriver) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(d.baseDir, cleaned), nil
}

func (d *DiskDriver) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	fullPath, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	// Write to a temp file first so readers never observe partial content.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush object: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to place object: %w", err)
	}
	return nil
}

func (d *DiskDriver) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, err := d.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open object: %w", err)
	}
	return f, contentTypeForKey(key), nil
}

func (d *DiskDriver) Remove(ctx context.Context, key string) error {
	fullPath, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (d *DiskDriver) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if d.publicURL == "" {
		return "/" + key, nil
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(d.publicURL, "/"), key), nil
}
