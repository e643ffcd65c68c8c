package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Well-known key prefixes.
const (
	PrefixSources   = "sources"   // Uploaded spreadsheets and bundles awaiting processing
	PrefixBundles   = "bundles"   // Archived original CV bundles
	PrefixDocuments = "documents" // Per-candidate documents split out of bundles
)

// StoredObject describes one persisted blob.
type StoredObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// DocumentStore issues keys, persists blobs through the configured driver,
// and hands back fetchable URLs.
type DocumentStore struct {
	driver Driver
}

func NewDocumentStore(driver Driver) *DocumentStore {
	return &DocumentStore{driver: driver}
}

// Upload persists content under a fresh key in the given prefix and returns
// the stored object's metadata. The original filename survives only in the
// metadata; keys are UUID-based so uploads can never collide.
func (s *DocumentStore) Upload(ctx context.Context, prefix, filename string, content []byte) (*StoredObject, error) {
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.New(), strings.ToLower(path.Ext(filename)))
	contentType := contentTypeForKey(key)

	if err := s.driver.Put(ctx, key, bytes.NewReader(content), contentType); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", filename, err)
	}

	url, err := s.driver.URL(ctx, key, 0)
	if err != nil {
		if removeErr := s.driver.Remove(ctx, key); removeErr != nil {
			slog.WarnContext(ctx, "Failed to clean up orphaned object", "key", key, "error", removeErr)
		}
		return nil, fmt.Errorf("failed to resolve URL for %s: %w", key, err)
	}

	slog.InfoContext(ctx, "Stored object", "key", key, "size", len(content))
	return &StoredObject{
		Key:         key,
		URL:         url,
		Name:        filename,
		Size:        int64(len(content)),
		ContentType: contentType,
	}, nil
}

// Fetch reads the whole object into memory. Import processing operates on
// byte slices, so streaming is not needed here.
func (s *DocumentStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := s.driver.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Open streams the object for download handlers.
func (s *DocumentStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.driver.Open(ctx, key)
}

// Delete removes the object.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	return s.driver.Remove(ctx, key)
}

func contentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
