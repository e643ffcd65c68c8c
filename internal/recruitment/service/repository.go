package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/recruitment/model"
)

// GormRepository implements the recruitment repositories on top of GORM.
type GormRepository struct{}

// NewGormRepository creates a new GormRepository.
func NewGormRepository() *GormRepository {
	return &GormRepository{}
}

func (r *GormRepository) GetStepsByRecruitmentIDInTx(ctx context.Context, tx *gorm.DB, recruitmentID uuid.UUID) ([]model.WorkflowStep, error) {
	var steps []model.WorkflowStep
	err := tx.WithContext(ctx).
		Where("recruitment_id = ?", recruitmentID).
		Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow steps for recruitment %s: %w", recruitmentID, err)
	}
	return steps, nil
}

func (r *GormRepository) CreateOutcomeInTx(ctx context.Context, tx *gorm.DB, outcome *model.CandidateOutcome) error {
	if err := tx.WithContext(ctx).Create(outcome).Error; err != nil {
		return fmt.Errorf("failed to create candidate outcome: %w", err)
	}
	return nil
}

func (r *GormRepository) UpdateCandidateInTx(ctx context.Context, tx *gorm.DB, candidate *model.Candidate) error {
	err := tx.WithContext(ctx).
		Model(&model.Candidate{}).
		Where("id = ?", candidate.ID).
		Updates(map[string]any{
			"current_workflow_step_id": candidate.CurrentWorkflowStepID,
			"is_completed":             candidate.IsCompleted,
			"full_name":                candidate.FullName,
			"email":                    candidate.Email,
			"phone_number":             candidate.PhoneNumber,
			"location":                 candidate.Location,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update candidate %s: %w", candidate.ID, err)
	}
	return nil
}

// GetCandidateByIDInTx loads a candidate with its outcome history and documents.
func (r *GormRepository) GetCandidateByIDInTx(ctx context.Context, tx *gorm.DB, candidateID uuid.UUID) (*model.Candidate, error) {
	var candidate model.Candidate
	err := tx.WithContext(ctx).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC, created_at ASC")
		}).
		Preload("Documents").
		First(&candidate, "id = ?", candidateID).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// GetCandidatesByRecruitmentIDInTx returns all candidates of a recruitment.
// Used by the import pipeline for matching; read-only.
func (r *GormRepository) GetCandidatesByRecruitmentIDInTx(ctx context.Context, tx *gorm.DB, recruitmentID uuid.UUID) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := tx.WithContext(ctx).
		Where("recruitment_id = ?", recruitmentID).
		Order("date_applied ASC, created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for recruitment %s: %w", recruitmentID, err)
	}
	return candidates, nil
}
