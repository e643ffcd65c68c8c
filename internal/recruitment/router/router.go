// Package router exposes the recruitment domain over HTTP: recruitments,
// workflow steps, candidates, and outcome recording.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenHire/hireflow/internal/auth"
	"github.com/OpenHire/hireflow/internal/recruitment/model"
	"github.com/OpenHire/hireflow/internal/recruitment/service"
)

type RecruitmentRouter struct {
	steps      *service.StepService
	candidates *service.CandidateService
}

func NewRecruitmentRouter(steps *service.StepService, candidates *service.CandidateService) *RecruitmentRouter {
	return &RecruitmentRouter{steps: steps, candidates: candidates}
}

// HandleCreateRecruitment handles POST /api/recruitments
// Request body: CreateRecruitmentDTO
func (rr *RecruitmentRouter) HandleCreateRecruitment(w http.ResponseWriter, r *http.Request) {
	var createReq model.CreateRecruitmentDTO
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	recruitment, err := rr.steps.CreateRecruitment(r.Context(), &createReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to create recruitment: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, recruitment)
}

// HandleGetRecruitment handles GET /api/recruitments/{recruitmentId}
func (rr *RecruitmentRouter) HandleGetRecruitment(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	recruitment, err := rr.steps.GetRecruitment(r.Context(), recruitmentID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get recruitment: %v", err), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, recruitment)
}

// HandleListSteps handles GET /api/recruitments/{recruitmentId}/steps
func (rr *RecruitmentRouter) HandleListSteps(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	steps, err := rr.steps.ListSteps(r.Context(), recruitmentID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list steps: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, steps)
}

// HandleCreateStep handles POST /api/recruitments/{recruitmentId}/steps
// Request body: CreateWorkflowStepDTO
func (rr *RecruitmentRouter) HandleCreateStep(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	var createReq model.CreateWorkflowStepDTO
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	step, err := rr.steps.CreateStep(r.Context(), recruitmentID, &createReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to create step: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, step)
}

// HandleReorderSteps handles PUT /api/recruitments/{recruitmentId}/steps/order
// Request body: ReorderWorkflowStepsDTO, a permutation of the current step IDs
func (rr *RecruitmentRouter) HandleReorderSteps(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	var reorderReq model.ReorderWorkflowStepsDTO
	if err := json.NewDecoder(r.Body).Decode(&reorderReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	steps, err := rr.steps.ReorderSteps(r.Context(), recruitmentID, &reorderReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to reorder steps: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, steps)
}

// HandleRemoveStep handles DELETE /api/workflow-steps/{stepId}
func (rr *RecruitmentRouter) HandleRemoveStep(w http.ResponseWriter, r *http.Request) {
	stepID, ok := pathUUID(w, r, "stepId")
	if !ok {
		return
	}

	if err := rr.steps.RemoveStep(r.Context(), stepID); err != nil {
		if errors.Is(err, service.ErrStepInUse) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("failed to remove step: %v", err), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateCandidate handles POST /api/recruitments/{recruitmentId}/candidates
// Request body: CreateCandidateDTO
func (rr *RecruitmentRouter) HandleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	var createReq model.CreateCandidateDTO
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	candidate, err := rr.candidates.CreateCandidate(r.Context(), recruitmentID, &createReq)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("failed to create candidate: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

// HandleListCandidates handles GET /api/recruitments/{recruitmentId}/candidates
// Optional query params: offset, limit
func (rr *RecruitmentRouter) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	recruitmentID, ok := pathUUID(w, r, "recruitmentId")
	if !ok {
		return
	}

	var offset, limit *int
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			http.Error(w, "invalid 'offset' query parameter, must be an integer", http.StatusBadRequest)
			return
		}
		offset = &parsed
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "invalid 'limit' query parameter, must be an integer", http.StatusBadRequest)
			return
		}
		limit = &parsed
	}

	candidates, err := rr.candidates.ListCandidates(r.Context(), recruitmentID, offset, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list candidates: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// HandleGetCandidate handles GET /api/candidates/{candidateId}
// The response includes the status derived from the outcome history.
func (rr *RecruitmentRouter) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathUUID(w, r, "candidateId")
	if !ok {
		return
	}

	candidate, err := rr.candidates.GetCandidate(r.Context(), candidateID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get candidate: %v", err), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

// HandleRecordOutcome handles POST /api/candidates/{candidateId}/outcomes
// Request body: RecordOutcomeDTO. The recorded outcome is attributed to the
// authenticated recruiter.
func (rr *RecruitmentRouter) HandleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathUUID(w, r, "candidateId")
	if !ok {
		return
	}

	authCtx := auth.GetAuthContext(r.Context())
	if authCtx == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var outcomeReq model.RecordOutcomeDTO
	if err := json.NewDecoder(r.Body).Decode(&outcomeReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	candidate, err := rr.candidates.RecordOutcome(r.Context(), candidateID, &outcomeReq, authCtx.RecruiterID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStep) || errors.Is(err, service.ErrStatusNotRecordable) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, fmt.Sprintf("failed to record outcome: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

// HandleAssignDocument handles PUT /api/candidates/{candidateId}/documents
// Request body: AssignDocumentDTO. Replaces any document of the same type.
func (rr *RecruitmentRouter) HandleAssignDocument(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathUUID(w, r, "candidateId")
	if !ok {
		return
	}

	var assignReq model.AssignDocumentDTO
	if err := json.NewDecoder(r.Body).Decode(&assignReq); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	doc, err := rr.candidates.AssignDocument(r.Context(), candidateID, &assignReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to assign document: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, doc)
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
