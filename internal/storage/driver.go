// Package storage persists uploaded artifacts: source spreadsheets, original
// CV bundles, and the per-candidate documents split out of them.
package storage

import (
	"context"
	"io"
	"time"
)

// Driver abstracts the blob backend. Keys are slash-separated paths whose
// first segment groups objects by purpose, for example "cv/<uuid>.pdf" or
// "bundles/<uuid>.pdf".
type Driver interface {
	// Put writes the object under key, overwriting any previous content.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// Open streams the object back along with its content type.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error

	// URL returns a link a client can fetch the object from. A zero expiry
	// lets the driver pick its default.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}
