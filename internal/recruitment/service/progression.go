package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/recruitment/model"
)

var (
	// ErrInvalidStep is returned when an outcome references a step that does
	// not belong to the candidate's recruitment.
	ErrInvalidStep = errors.New("workflow step does not belong to the candidate's recruitment")

	// ErrStatusNotRecordable is returned when a caller tries to record a
	// status that is only ever derived (NOT_STARTED).
	ErrStatusNotRecordable = errors.New("outcome status cannot be recorded")
)

// DeriveCurrentStep derives a candidate's current step and status purely from
// the ordered step list and the append-only outcome history.
//
// Steps are walked in ascending order. The first step with no outcome yields
// (step, NOT_STARTED). A latest outcome of FAIL or HOLD stops the walk at that
// step. PASS advances to the next step, or yields (lastStep, PASS) when there
// is no next step. An empty step list yields (nil, "").
func DeriveCurrentStep(steps []model.WorkflowStep, outcomes []model.CandidateOutcome) (*model.WorkflowStep, model.OutcomeStatus) {
	if len(steps) == 0 {
		return nil, ""
	}

	ordered := make([]model.WorkflowStep, len(steps))
	copy(ordered, steps)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	latest := latestOutcomePerStep(outcomes)

	for i := range ordered {
		step := &ordered[i]
		outcome, ok := latest[step.ID]
		if !ok {
			return step, model.OutcomeStatusNotStarted
		}

		switch outcome.Status {
		case model.OutcomeStatusPass:
			if i == len(ordered)-1 {
				return step, model.OutcomeStatusPass
			}
			// Passed a non-last step, keep walking.
		case model.OutcomeStatusFail, model.OutcomeStatusHold:
			return step, outcome.Status
		default:
			// A recorded NOT_STARTED should never exist; treat it as unreached.
			return step, model.OutcomeStatusNotStarted
		}
	}

	last := &ordered[len(ordered)-1]
	return last, model.OutcomeStatusPass
}

// latestOutcomePerStep selects the authoritative outcome for each step: the
// entry with the greatest RecordedAt. History is scanned in append order, so
// for equal timestamps the later-appended entry wins.
func latestOutcomePerStep(outcomes []model.CandidateOutcome) map[uuid.UUID]model.CandidateOutcome {
	latest := make(map[uuid.UUID]model.CandidateOutcome, len(outcomes))
	for _, outcome := range outcomes {
		current, ok := latest[outcome.WorkflowStepID]
		if !ok || !outcome.RecordedAt.Before(current.RecordedAt) {
			latest[outcome.WorkflowStepID] = outcome
		}
	}
	return latest
}

// WorkflowStepRepository provides the step lookups the progression engine needs.
type WorkflowStepRepository interface {
	GetStepsByRecruitmentIDInTx(ctx context.Context, tx *gorm.DB, recruitmentID uuid.UUID) ([]model.WorkflowStep, error)
}

// CandidateOutcomeRepository persists outcome entries and candidate updates.
type CandidateOutcomeRepository interface {
	CreateOutcomeInTx(ctx context.Context, tx *gorm.DB, outcome *model.CandidateOutcome) error
	UpdateCandidateInTx(ctx context.Context, tx *gorm.DB, candidate *model.Candidate) error
}

// ProgressionEngine enforces valid workflow transitions for candidates. All
// mutation happens inside the caller-supplied transaction; nothing is
// committed when validation fails.
type ProgressionEngine struct {
	steps    WorkflowStepRepository
	outcomes CandidateOutcomeRepository
}

// NewProgressionEngine creates a new ProgressionEngine.
func NewProgressionEngine(steps WorkflowStepRepository, outcomes CandidateOutcomeRepository) *ProgressionEngine {
	return &ProgressionEngine{steps: steps, outcomes: outcomes}
}

// RecordOutcome appends a new immutable outcome entry for the candidate and
// recomputes the candidate's current step and completion flag. The candidate's
// loaded outcome history is extended in place. Prior entries are never
// mutated or deduplicated; re-recording the same step appends another entry.
func (pe *ProgressionEngine) RecordOutcome(
	ctx context.Context,
	tx *gorm.DB,
	candidate *model.Candidate,
	req *model.RecordOutcomeDTO,
	recordedByUserID string,
) (*model.CandidateOutcome, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate cannot be nil")
	}
	if req == nil {
		return nil, fmt.Errorf("record outcome request cannot be nil")
	}
	if !req.Status.Recordable() {
		return nil, fmt.Errorf("status %q: %w", req.Status, ErrStatusNotRecordable)
	}

	steps, err := pe.steps.GetStepsByRecruitmentIDInTx(ctx, tx, candidate.RecruitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow steps: %w", err)
	}
	if !stepExists(steps, req.WorkflowStepID) {
		return nil, fmt.Errorf("step %s: %w", req.WorkflowStepID, ErrInvalidStep)
	}

	outcome := &model.CandidateOutcome{
		CandidateID:      candidate.ID,
		WorkflowStepID:   req.WorkflowStepID,
		Status:           req.Status,
		Reason:           req.Reason,
		RecordedAt:       time.Now().UTC(),
		RecordedByUserID: recordedByUserID,
	}
	if err := pe.outcomes.CreateOutcomeInTx(ctx, tx, outcome); err != nil {
		return nil, fmt.Errorf("failed to append outcome: %w", err)
	}

	candidate.Outcomes = append(candidate.Outcomes, *outcome)

	currentStep, currentStatus := DeriveCurrentStep(steps, candidate.Outcomes)
	candidate.CurrentWorkflowStepID = nil
	if currentStep != nil {
		stepID := currentStep.ID
		candidate.CurrentWorkflowStepID = &stepID
	}
	candidate.IsCompleted = currentStep != nil &&
		isLastStep(steps, currentStep.ID) &&
		currentStatus == model.OutcomeStatusPass

	if err := pe.outcomes.UpdateCandidateInTx(ctx, tx, candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate progression: %w", err)
	}

	return outcome, nil
}

// AssignToWorkflowStep places the candidate directly at a step without
// recording an outcome. Used for initial placement at the recruitment's first
// step when a candidate is created.
func (pe *ProgressionEngine) AssignToWorkflowStep(
	ctx context.Context,
	tx *gorm.DB,
	candidate *model.Candidate,
	stepID uuid.UUID,
) error {
	if candidate == nil {
		return fmt.Errorf("candidate cannot be nil")
	}

	steps, err := pe.steps.GetStepsByRecruitmentIDInTx(ctx, tx, candidate.RecruitmentID)
	if err != nil {
		return fmt.Errorf("failed to load workflow steps: %w", err)
	}
	if !stepExists(steps, stepID) {
		return fmt.Errorf("step %s: %w", stepID, ErrInvalidStep)
	}

	candidate.CurrentWorkflowStepID = &stepID
	if err := pe.outcomes.UpdateCandidateInTx(ctx, tx, candidate); err != nil {
		return fmt.Errorf("failed to assign candidate to step: %w", err)
	}
	return nil
}

func stepExists(steps []model.WorkflowStep, stepID uuid.UUID) bool {
	for _, step := range steps {
		if step.ID == stepID {
			return true
		}
	}
	return false
}

func isLastStep(steps []model.WorkflowStep, stepID uuid.UUID) bool {
	maxOrder := 0
	var lastID uuid.UUID
	for _, step := range steps {
		if step.Order > maxOrder {
			maxOrder = step.Order
			lastID = step.ID
		}
	}
	return lastID == stepID
}
