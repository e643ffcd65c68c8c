package storage

import (
	"io"
	"log/slog"
	"net/http"
)

// HTTPHandler streams stored blobs back to clients. Only used with the local
// driver; S3 deployments serve blobs from the bucket directly.
type HTTPHandler struct {
	store *DocumentStore
}

func NewHTTPHandler(store *DocumentStore) *HTTPHandler {
	return &HTTPHandler{store: store}
}

// Download handles GET /blobs/{key...}
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, `{"error": "key is required"}`, http.StatusBadRequest)
		return
	}

	reader, contentType, err := h.store.Open(r.Context(), key)
	if err != nil {
		http.Error(w, `{"error": "file not found"}`, http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, reader); err != nil {
		slog.WarnContext(r.Context(), "Blob download interrupted", "key", key, "error", err)
	}
}
