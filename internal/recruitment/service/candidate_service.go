package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/recruitment/model"
	"github.com/OpenHire/hireflow/utils"
)

// ErrDuplicateEmail is returned when a candidate with the same email already
// exists within the recruitment.
var ErrDuplicateEmail = errors.New("a candidate with this email already exists in the recruitment")

// CandidateService manages candidate records and routes progression changes
// through the ProgressionEngine.
type CandidateService struct {
	db       *gorm.DB
	engine   *ProgressionEngine
	repo     *GormRepository
	validate *validator.Validate
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(db *gorm.DB, engine *ProgressionEngine, repo *GormRepository) *CandidateService {
	return &CandidateService{
		db:       db,
		engine:   engine,
		repo:     repo,
		validate: validator.New(),
	}
}

// CreateCandidate creates a candidate within a recruitment and places it at
// the recruitment's first workflow step. Email uniqueness is enforced within
// the recruitment when an email is supplied.
func (s *CandidateService) CreateCandidate(ctx context.Context, recruitmentID uuid.UUID, createReq *model.CreateCandidateDTO) (*model.Candidate, error) {
	if createReq == nil {
		return nil, fmt.Errorf("create request cannot be nil")
	}
	if err := s.validate.Struct(createReq); err != nil {
		return nil, fmt.Errorf("invalid candidate: %w", err)
	}

	var candidate *model.Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recruitment model.Recruitment
		if err := tx.First(&recruitment, "id = ?", recruitmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("recruitment %s not found", recruitmentID)
			}
			return fmt.Errorf("failed to query recruitment: %w", err)
		}

		if createReq.Email != nil {
			var count int64
			if err := tx.Model(&model.Candidate{}).
				Where("recruitment_id = ? AND LOWER(email) = LOWER(?)", recruitmentID, *createReq.Email).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check email uniqueness: %w", err)
			}
			if count > 0 {
				return ErrDuplicateEmail
			}
		}

		dateApplied := time.Now().UTC()
		if createReq.DateApplied != nil {
			dateApplied = *createReq.DateApplied
		}

		candidate = &model.Candidate{
			RecruitmentID: recruitmentID,
			FullName:      createReq.FullName,
			Email:         createReq.Email,
			PhoneNumber:   createReq.PhoneNumber,
			Location:      createReq.Location,
			DateApplied:   dateApplied,
		}
		if err := tx.Create(candidate).Error; err != nil {
			return fmt.Errorf("failed to create candidate: %w", err)
		}

		steps, err := s.repo.GetStepsByRecruitmentIDInTx(ctx, tx, recruitmentID)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			// A recruitment without steps is allowed; the candidate simply
			// has no current step until steps exist.
			return nil
		}
		return s.engine.AssignToWorkflowStep(ctx, tx, candidate, steps[0].ID)
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// RecordOutcome appends an outcome for a candidate at a step and recomputes
// the derived progression state, all in one transaction.
func (s *CandidateService) RecordOutcome(ctx context.Context, candidateID uuid.UUID, req *model.RecordOutcomeDTO, recordedByUserID string) (*model.Candidate, error) {
	if req == nil {
		return nil, fmt.Errorf("record outcome request cannot be nil")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid outcome: %w", err)
	}
	if recordedByUserID == "" {
		return nil, fmt.Errorf("recordedByUserID cannot be empty")
	}

	var candidate *model.Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		candidate, err = s.repo.GetCandidateByIDInTx(ctx, tx, candidateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s not found", candidateID)
			}
			return fmt.Errorf("failed to load candidate: %w", err)
		}

		_, err = s.engine.RecordOutcome(ctx, tx, candidate, req, recordedByUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetCandidate returns a candidate with its outcome history, documents, and
// the status derived from replaying the history.
func (s *CandidateService) GetCandidate(ctx context.Context, candidateID uuid.UUID) (*model.CandidateResponseDTO, error) {
	var dto *model.CandidateResponseDTO
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate, err := s.repo.GetCandidateByIDInTx(ctx, tx, candidateID)
		if err != nil {
			return err
		}
		steps, err := s.repo.GetStepsByRecruitmentIDInTx(ctx, tx, candidate.RecruitmentID)
		if err != nil {
			return err
		}
		_, status := DeriveCurrentStep(steps, candidate.Outcomes)
		dto = toCandidateResponse(candidate, status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// ListCandidates returns a page of a recruitment's candidates ordered by
// application date.
func (s *CandidateService) ListCandidates(ctx context.Context, recruitmentID uuid.UUID, offset, limit *int) ([]model.Candidate, error) {
	finalOffset, finalLimit := utils.GetPaginationParams(offset, limit)

	var candidates []model.Candidate
	err := s.db.WithContext(ctx).
		Where("recruitment_id = ?", recruitmentID).
		Order("date_applied ASC, created_at ASC").
		Offset(finalOffset).
		Limit(finalLimit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// AssignDocument attaches a document to a candidate. An existing document of
// the same type is detached first, so each candidate holds at most one
// document per type.
func (s *CandidateService) AssignDocument(ctx context.Context, candidateID uuid.UUID, req *model.AssignDocumentDTO) (*model.CandidateDocument, error) {
	if req == nil {
		return nil, fmt.Errorf("assign document request cannot be nil")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	var doc *model.CandidateDocument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate model.Candidate
		if err := tx.First(&candidate, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s not found", candidateID)
			}
			return fmt.Errorf("failed to load candidate: %w", err)
		}

		if err := tx.Where("candidate_id = ? AND type = ?", candidateID, req.Type).
			Delete(&model.CandidateDocument{}).Error; err != nil {
			return fmt.Errorf("failed to detach previous document: %w", err)
		}

		doc = &model.CandidateDocument{
			CandidateID: candidateID,
			Type:        req.Type,
			FileName:    req.FileName,
			BlobURL:     req.BlobURL,
		}
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to attach document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func toCandidateResponse(candidate *model.Candidate, status model.OutcomeStatus) *model.CandidateResponseDTO {
	return &model.CandidateResponseDTO{
		ID:                    candidate.ID,
		RecruitmentID:         candidate.RecruitmentID,
		FullName:              candidate.FullName,
		Email:                 candidate.Email,
		PhoneNumber:           candidate.PhoneNumber,
		Location:              candidate.Location,
		DateApplied:           candidate.DateApplied,
		CurrentWorkflowStepID: candidate.CurrentWorkflowStepID,
		CurrentStatus:         status,
		IsCompleted:           candidate.IsCompleted,
		Outcomes:              candidate.Outcomes,
		Documents:             candidate.Documents,
	}
}
