package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/recruitment/model"
)

// ErrStepInUse is returned when removing a step that outcomes still reference.
var ErrStepInUse = errors.New("workflow step is referenced by recorded outcomes")

// StepService manages a recruitment's ordered workflow steps. Step orders are
// kept contiguous starting at 1 across create, reorder, and remove.
type StepService struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewStepService creates a new StepService.
func NewStepService(db *gorm.DB) *StepService {
	return &StepService{db: db, validate: validator.New()}
}

// ListSteps returns a recruitment's steps in screening order.
func (s *StepService) ListSteps(ctx context.Context, recruitmentID uuid.UUID) ([]model.WorkflowStep, error) {
	var steps []model.WorkflowStep
	err := s.db.WithContext(ctx).
		Where("recruitment_id = ?", recruitmentID).
		Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow steps: %w", err)
	}
	return steps, nil
}

// CreateStep appends a step at the end of the recruitment's sequence. Step
// names are unique within a recruitment.
func (s *StepService) CreateStep(ctx context.Context, recruitmentID uuid.UUID, createReq *model.CreateWorkflowStepDTO) (*model.WorkflowStep, error) {
	if createReq == nil {
		return nil, fmt.Errorf("create request cannot be nil")
	}
	if err := s.validate.Struct(createReq); err != nil {
		return nil, fmt.Errorf("invalid step: %w", err)
	}

	var step *model.WorkflowStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.WorkflowStep{}).
			Where("recruitment_id = ? AND name = ?", recruitmentID, createReq.Name).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check step name uniqueness: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("step name %q already exists in recruitment %s", createReq.Name, recruitmentID)
		}

		var maxOrder int
		if err := tx.Model(&model.WorkflowStep{}).
			Where("recruitment_id = ?", recruitmentID).
			Select("COALESCE(MAX(step_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return fmt.Errorf("failed to determine step order: %w", err)
		}

		step = &model.WorkflowStep{
			RecruitmentID: recruitmentID,
			Name:          createReq.Name,
			Order:         maxOrder + 1,
		}
		if err := tx.Create(step).Error; err != nil {
			return fmt.Errorf("failed to create workflow step: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// ReorderSteps renumbers the recruitment's steps to follow the given ID order.
// The request must be a permutation of the current step IDs.
func (s *StepService) ReorderSteps(ctx context.Context, recruitmentID uuid.UUID, reorderReq *model.ReorderWorkflowStepsDTO) ([]model.WorkflowStep, error) {
	if reorderReq == nil {
		return nil, fmt.Errorf("reorder request cannot be nil")
	}
	if err := s.validate.Struct(reorderReq); err != nil {
		return nil, fmt.Errorf("invalid reorder request: %w", err)
	}

	var steps []model.WorkflowStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []model.WorkflowStep
		if err := tx.Where("recruitment_id = ?", recruitmentID).Find(&current).Error; err != nil {
			return fmt.Errorf("failed to load workflow steps: %w", err)
		}
		if len(current) != len(reorderReq.StepIDs) {
			return fmt.Errorf("reorder request must include all %d steps, got %d", len(current), len(reorderReq.StepIDs))
		}

		byID := make(map[uuid.UUID]*model.WorkflowStep, len(current))
		for i := range current {
			byID[current[i].ID] = &current[i]
		}

		for position, stepID := range reorderReq.StepIDs {
			step, ok := byID[stepID]
			if !ok {
				return fmt.Errorf("step %s does not belong to recruitment %s", stepID, recruitmentID)
			}
			step.Order = position + 1
			if err := tx.Model(&model.WorkflowStep{}).
				Where("id = ?", stepID).
				Update("step_order", step.Order).Error; err != nil {
				return fmt.Errorf("failed to reorder step %s: %w", stepID, err)
			}
			steps = append(steps, *step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// RemoveStep deletes a step and closes the gap in the remaining orders.
// Removal is blocked while any outcome references the step.
func (s *StepService) RemoveStep(ctx context.Context, stepID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var step model.WorkflowStep
		if err := tx.First(&step, "id = ?", stepID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("workflow step %s not found", stepID)
			}
			return fmt.Errorf("failed to load workflow step: %w", err)
		}

		var refs int64
		if err := tx.Model(&model.CandidateOutcome{}).
			Where("workflow_step_id = ?", stepID).
			Count(&refs).Error; err != nil {
			return fmt.Errorf("failed to count outcome references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("step %s: %w", stepID, ErrStepInUse)
		}

		if err := tx.Delete(&step).Error; err != nil {
			return fmt.Errorf("failed to delete workflow step: %w", err)
		}

		// Close the ordering gap so orders stay contiguous from 1.
		err := tx.Model(&model.WorkflowStep{}).
			Where("recruitment_id = ? AND step_order > ?", step.RecruitmentID, step.Order).
			Update("step_order", gorm.Expr("step_order - 1")).Error
		if err != nil {
			return fmt.Errorf("failed to renumber workflow steps: %w", err)
		}
		return nil
	})
}

// GetRecruitment returns a recruitment with its ordered steps.
func (s *StepService) GetRecruitment(ctx context.Context, recruitmentID uuid.UUID) (*model.Recruitment, error) {
	var recruitment model.Recruitment
	err := s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&recruitment, "id = ?", recruitmentID).Error
	if err != nil {
		return nil, err
	}
	return &recruitment, nil
}

// CreateRecruitment creates a recruitment together with its initial ordered steps.
func (s *StepService) CreateRecruitment(ctx context.Context, createReq *model.CreateRecruitmentDTO) (*model.Recruitment, error) {
	if createReq == nil {
		return nil, fmt.Errorf("create request cannot be nil")
	}
	if err := s.validate.Struct(createReq); err != nil {
		return nil, fmt.Errorf("invalid recruitment: %w", err)
	}

	seen := make(map[string]bool, len(createReq.StepNames))
	for _, name := range createReq.StepNames {
		if seen[name] {
			return nil, fmt.Errorf("duplicate step name %q", name)
		}
		seen[name] = true
	}

	var recruitment *model.Recruitment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recruitment = &model.Recruitment{
			Name:        createReq.Name,
			Description: createReq.Description,
			Status:      model.RecruitmentStatusOpen,
		}
		if err := tx.Create(recruitment).Error; err != nil {
			return fmt.Errorf("failed to create recruitment: %w", err)
		}

		steps := make([]model.WorkflowStep, 0, len(createReq.StepNames))
		for i, name := range createReq.StepNames {
			steps = append(steps, model.WorkflowStep{
				RecruitmentID: recruitment.ID,
				Name:          name,
				Order:         i + 1,
			})
		}
		if err := tx.Create(&steps).Error; err != nil {
			return fmt.Errorf("failed to create workflow steps: %w", err)
		}
		recruitment.Steps = steps
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recruitment, nil
}
