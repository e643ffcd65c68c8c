package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/recruitment/model"
)

// MockStepRepository is a mock implementation of WorkflowStepRepository
type MockStepRepository struct {
	mock.Mock
}

func (m *MockStepRepository) GetStepsByRecruitmentIDInTx(ctx context.Context, tx *gorm.DB, recruitmentID uuid.UUID) ([]model.WorkflowStep, error) {
	args := m.Called(ctx, tx, recruitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WorkflowStep), args.Error(1)
}

// MockOutcomeRepository is a mock implementation of CandidateOutcomeRepository
type MockOutcomeRepository struct {
	mock.Mock
}

func (m *MockOutcomeRepository) CreateOutcomeInTx(ctx context.Context, tx *gorm.DB, outcome *model.CandidateOutcome) error {
	args := m.Called(ctx, tx, outcome)
	return args.Error(0)
}

func (m *MockOutcomeRepository) UpdateCandidateInTx(ctx context.Context, tx *gorm.DB, candidate *model.Candidate) error {
	args := m.Called(ctx, tx, candidate)
	return args.Error(0)
}

func twoSteps(recruitmentID uuid.UUID) []model.WorkflowStep {
	return []model.WorkflowStep{
		{BaseModel: model.BaseModel{ID: uuid.New()}, RecruitmentID: recruitmentID, Name: "Screening", Order: 1},
		{BaseModel: model.BaseModel{ID: uuid.New()}, RecruitmentID: recruitmentID, Name: "Interview", Order: 2},
	}
}

func outcomeAt(stepID uuid.UUID, status model.OutcomeStatus, at time.Time) model.CandidateOutcome {
	return model.CandidateOutcome{
		BaseModel:      model.BaseModel{ID: uuid.New()},
		WorkflowStepID: stepID,
		Status:         status,
		RecordedAt:     at,
	}
}

func TestDeriveCurrentStep(t *testing.T) {
	recruitmentID := uuid.New()
	steps := twoSteps(recruitmentID)
	screening, interview := steps[0], steps[1]
	now := time.Now().UTC()

	t.Run("No Outcomes", func(t *testing.T) {
		step, status := DeriveCurrentStep(steps, nil)
		assert.NotNil(t, step)
		assert.Equal(t, screening.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusNotStarted, status)
	})

	t.Run("Pass On First Step Advances", func(t *testing.T) {
		history := []model.CandidateOutcome{outcomeAt(screening.ID, model.OutcomeStatusPass, now)}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, interview.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusNotStarted, status)
	})

	t.Run("Pass On Last Step", func(t *testing.T) {
		history := []model.CandidateOutcome{
			outcomeAt(screening.ID, model.OutcomeStatusPass, now),
			outcomeAt(interview.ID, model.OutcomeStatusPass, now.Add(time.Hour)),
		}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, interview.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusPass, status)
	})

	t.Run("Fail Stops At Step", func(t *testing.T) {
		history := []model.CandidateOutcome{outcomeAt(screening.ID, model.OutcomeStatusFail, now)}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, screening.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusFail, status)
	})

	t.Run("Hold Stops At Step", func(t *testing.T) {
		history := []model.CandidateOutcome{outcomeAt(interview.ID, model.OutcomeStatusHold, now),
			outcomeAt(screening.ID, model.OutcomeStatusPass, now)}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, interview.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusHold, status)
	})

	t.Run("Latest Entry Per Step Wins", func(t *testing.T) {
		// Fail recorded first, then a later Pass on the same step.
		history := []model.CandidateOutcome{
			outcomeAt(screening.ID, model.OutcomeStatusFail, now),
			outcomeAt(screening.ID, model.OutcomeStatusPass, now.Add(time.Minute)),
		}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, interview.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusNotStarted, status)
	})

	t.Run("Equal Timestamps Later Entry Wins", func(t *testing.T) {
		history := []model.CandidateOutcome{
			outcomeAt(screening.ID, model.OutcomeStatusPass, now),
			outcomeAt(screening.ID, model.OutcomeStatusHold, now),
		}
		step, status := DeriveCurrentStep(steps, history)
		assert.Equal(t, screening.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusHold, status)
	})

	t.Run("Empty Step List", func(t *testing.T) {
		step, status := DeriveCurrentStep(nil, nil)
		assert.Nil(t, step)
		assert.Equal(t, model.OutcomeStatus(""), status)
	})

	t.Run("Unordered Input Steps", func(t *testing.T) {
		reversed := []model.WorkflowStep{steps[1], steps[0]}
		step, status := DeriveCurrentStep(reversed, nil)
		assert.Equal(t, screening.ID, step.ID)
		assert.Equal(t, model.OutcomeStatusNotStarted, status)
	})

	t.Run("Deterministic", func(t *testing.T) {
		history := []model.CandidateOutcome{
			outcomeAt(screening.ID, model.OutcomeStatusPass, now),
			outcomeAt(interview.ID, model.OutcomeStatusHold, now.Add(time.Hour)),
		}
		firstStep, firstStatus := DeriveCurrentStep(steps, history)
		secondStep, secondStatus := DeriveCurrentStep(steps, history)
		assert.Equal(t, firstStep.ID, secondStep.ID)
		assert.Equal(t, firstStatus, secondStatus)
	})
}

func TestProgressionEngine_RecordOutcome(t *testing.T) {
	ctx := context.Background()
	recruitmentID := uuid.New()
	steps := twoSteps(recruitmentID)
	screening, interview := steps[0], steps[1]

	newCandidate := func() *model.Candidate {
		return &model.Candidate{
			BaseModel:     model.BaseModel{ID: uuid.New()},
			RecruitmentID: recruitmentID,
			FullName:      "Alice Johnson",
		}
	}

	t.Run("Pass On Non-Last Step Advances To Next", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)
		outcomeRepo.On("CreateOutcomeInTx", ctx, mock.Anything, mock.Anything).Return(nil)
		outcomeRepo.On("UpdateCandidateInTx", ctx, mock.Anything, candidate).Return(nil)

		outcome, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
			WorkflowStepID: screening.ID,
			Status:         model.OutcomeStatusPass,
		}, "recruiter-1")

		assert.NoError(t, err)
		assert.NotNil(t, outcome)
		assert.Equal(t, screening.ID, outcome.WorkflowStepID)
		assert.NotNil(t, candidate.CurrentWorkflowStepID)
		assert.Equal(t, interview.ID, *candidate.CurrentWorkflowStepID)
		assert.False(t, candidate.IsCompleted)
		assert.Len(t, candidate.Outcomes, 1)
	})

	t.Run("Pass On Last Step Completes Candidate", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()
		candidate.Outcomes = []model.CandidateOutcome{
			outcomeAt(screening.ID, model.OutcomeStatusPass, time.Now().UTC().Add(-time.Hour)),
		}

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)
		outcomeRepo.On("CreateOutcomeInTx", ctx, mock.Anything, mock.Anything).Return(nil)
		outcomeRepo.On("UpdateCandidateInTx", ctx, mock.Anything, candidate).Return(nil)

		_, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
			WorkflowStepID: interview.ID,
			Status:         model.OutcomeStatusPass,
		}, "recruiter-1")

		assert.NoError(t, err)
		assert.True(t, candidate.IsCompleted)
		assert.Equal(t, interview.ID, *candidate.CurrentWorkflowStepID)
	})

	t.Run("Fail Keeps Candidate At Step", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)
		outcomeRepo.On("CreateOutcomeInTx", ctx, mock.Anything, mock.Anything).Return(nil)
		outcomeRepo.On("UpdateCandidateInTx", ctx, mock.Anything, candidate).Return(nil)

		_, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
			WorkflowStepID: screening.ID,
			Status:         model.OutcomeStatusFail,
		}, "recruiter-1")

		assert.NoError(t, err)
		assert.Equal(t, screening.ID, *candidate.CurrentWorkflowStepID)
		assert.False(t, candidate.IsCompleted)
	})

	t.Run("History Is Append Only", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)
		outcomeRepo.On("CreateOutcomeInTx", ctx, mock.Anything, mock.Anything).Return(nil)
		outcomeRepo.On("UpdateCandidateInTx", ctx, mock.Anything, candidate).Return(nil)

		for i, status := range []model.OutcomeStatus{model.OutcomeStatusFail, model.OutcomeStatusHold, model.OutcomeStatusPass} {
			_, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
				WorkflowStepID: screening.ID,
				Status:         status,
			}, "recruiter-1")
			assert.NoError(t, err)
			assert.Len(t, candidate.Outcomes, i+1)
		}
	})

	t.Run("Invalid Step Rejected Before Mutation", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)

		_, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
			WorkflowStepID: uuid.New(), // foreign step
			Status:         model.OutcomeStatusPass,
		}, "recruiter-1")

		assert.ErrorIs(t, err, ErrInvalidStep)
		assert.Empty(t, candidate.Outcomes)
		outcomeRepo.AssertNotCalled(t, "CreateOutcomeInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotStarted Cannot Be Recorded", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := newCandidate()

		_, err := engine.RecordOutcome(ctx, nil, candidate, &model.RecordOutcomeDTO{
			WorkflowStepID: screening.ID,
			Status:         model.OutcomeStatusNotStarted,
		}, "recruiter-1")

		assert.ErrorIs(t, err, ErrStatusNotRecordable)
		stepRepo.AssertNotCalled(t, "GetStepsByRecruitmentIDInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProgressionEngine_AssignToWorkflowStep(t *testing.T) {
	ctx := context.Background()
	recruitmentID := uuid.New()
	steps := twoSteps(recruitmentID)

	t.Run("Assigns Without Recording Outcome", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := &model.Candidate{BaseModel: model.BaseModel{ID: uuid.New()}, RecruitmentID: recruitmentID}

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)
		outcomeRepo.On("UpdateCandidateInTx", ctx, mock.Anything, candidate).Return(nil)

		err := engine.AssignToWorkflowStep(ctx, nil, candidate, steps[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, steps[0].ID, *candidate.CurrentWorkflowStepID)
		assert.Empty(t, candidate.Outcomes)
		outcomeRepo.AssertNotCalled(t, "CreateOutcomeInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Foreign Step Rejected", func(t *testing.T) {
		stepRepo := new(MockStepRepository)
		outcomeRepo := new(MockOutcomeRepository)
		engine := NewProgressionEngine(stepRepo, outcomeRepo)
		candidate := &model.Candidate{BaseModel: model.BaseModel{ID: uuid.New()}, RecruitmentID: recruitmentID}

		stepRepo.On("GetStepsByRecruitmentIDInTx", ctx, mock.Anything, recruitmentID).Return(steps, nil)

		err := engine.AssignToWorkflowStep(ctx, nil, candidate, uuid.New())
		assert.ErrorIs(t, err, ErrInvalidStep)
		assert.Nil(t, candidate.CurrentWorkflowStepID)
	})
}
