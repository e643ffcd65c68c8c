// Package router exposes the import pipeline over HTTP: submission, status
// polling, and flagged-row resolution.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/auth"
	"github.com/OpenHire/hireflow/internal/importer/model"
	"github.com/OpenHire/hireflow/internal/importer/queue"
	"github.com/OpenHire/hireflow/internal/importer/service"
)

// maxUploadBytes caps import uploads. CV bundles are the largest expected
// input and rarely exceed a few tens of megabytes.
const maxUploadBytes = 64 << 20

type ImportRouter struct {
	imports *service.ImportService
}

func NewImportRouter(imports *service.ImportService) *ImportRouter {
	return &ImportRouter{imports: imports}
}

// HandleSubmitImport handles POST /api/recruitments/{recruitmentId}/imports
// Multipart form with a "file" part holding an xlsx spreadsheet or PDF bundle.
// Responds 202 with the session ID and a status URL; processing is async.
func (ir *ImportRouter) HandleSubmitImport(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	authCtx := auth.GetAuthContext(r.Context())
	if authCtx == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing 'file' form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read upload: %v", err), http.StatusBadRequest)
		return
	}

	ack, err := ir.imports.Submit(r.Context(), recruitmentID, header.Filename, content, authCtx.RecruiterID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		case errors.Is(err, service.ErrRecruitmentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, queue.ErrQueueFull):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("failed to submit import: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ack)
}

// HandleGetImportSession handles GET /api/recruitments/{recruitmentId}/imports/{importSessionId}
// Returns the session with its row results, documents, and live progress.
func (ir *ImportRouter) HandleGetImportSession(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "importSessionId")
	if !ok {
		return
	}

	session, err := ir.imports.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "import session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("failed to get import session: %v", err), http.StatusInternalServerError)
		return
	}
	if session.RecruitmentID != recruitmentID {
		http.Error(w, "import session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleResolveRow handles POST /api/recruitments/{recruitmentId}/imports/{importSessionId}/rows/{rowIndex}/resolution
// Request body: ResolveRowDTO with action "Confirm" or "Reject".
func (ir *ImportRouter) HandleResolveRow(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "importSessionId")
	if !ok {
		return
	}

	rowIndex, err := strconv.Atoi(r.PathValue("rowIndex"))
	if err != nil {
		http.Error(w, "invalid rowIndex in path, must be an integer", http.StatusBadRequest)
		return
	}

	var resolveReq model.ResolveRowDTO
	if err := json.NewDecoder(r.Body).Decode(&resolveReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	session, err := ir.imports.GetSession(r.Context(), sessionID)
	if err != nil || session.RecruitmentID != recruitmentID {
		http.Error(w, "import session not found", http.StatusNotFound)
		return
	}

	resolved, err := ir.imports.ResolveRow(r.Context(), sessionID, rowIndex, &resolveReq)
	if err != nil {
		if errors.Is(err, model.ErrInvalidOperation) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("failed to resolve row: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, resolved)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		http.Error(w, fmt.Sprintf("missing %s in path", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid %s: %v", name, err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
