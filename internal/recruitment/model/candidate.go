package model

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeStatus is the verdict recorded for a candidate at a workflow step.
type OutcomeStatus string

const (
	OutcomeStatusNotStarted OutcomeStatus = "NOT_STARTED" // Derived default for an unreached step, never recorded by users
	OutcomeStatusPass       OutcomeStatus = "PASS"        // Candidate cleared the step
	OutcomeStatusFail       OutcomeStatus = "FAIL"        // Candidate failed the step
	OutcomeStatusHold       OutcomeStatus = "HOLD"        // Decision deferred, candidate parked at the step
)

// Recordable reports whether the status may be submitted as a user-supplied
// outcome. NOT_STARTED is only ever derived, never recorded.
func (s OutcomeStatus) Recordable() bool {
	return s == OutcomeStatusPass || s == OutcomeStatusFail || s == OutcomeStatusHold
}

// DocumentType distinguishes the documents attached to a candidate.
type DocumentType string

const (
	DocumentTypeCV DocumentType = "CV"
)

// Candidate represents one applicant within a recruitment.
type Candidate struct {
	BaseModel
	RecruitmentID         uuid.UUID  `gorm:"type:uuid;column:recruitment_id;not null;index" json:"recruitmentId"`       // Owning recruitment
	FullName              string     `gorm:"type:varchar(255);column:full_name;not null" json:"fullName"`               // Applicant's full name
	Email                 *string    `gorm:"type:varchar(320);column:email" json:"email,omitempty"`                     // Unique within the recruitment when present
	PhoneNumber           *string    `gorm:"type:varchar(50);column:phone_number" json:"phoneNumber,omitempty"`         // Optional phone number
	Location              *string    `gorm:"type:varchar(255);column:location" json:"location,omitempty"`               // Optional location
	DateApplied           time.Time  `gorm:"type:timestamptz;column:date_applied;not null" json:"dateApplied"`          // When the application was received
	CurrentWorkflowStepID *uuid.UUID `gorm:"type:uuid;column:current_workflow_step_id" json:"currentWorkflowStepId"`    // Derived from the outcome history
	IsCompleted           bool       `gorm:"column:is_completed;not null;default:false" json:"isCompleted"`             // True once the last step is passed
	WorkdayCandidateID    *string    `gorm:"type:varchar(100);column:workday_candidate_id" json:"workdayCandidateId"`   // External ATS identifier, when known
	Outcomes              []CandidateOutcome  `gorm:"foreignKey:CandidateID;references:ID" json:"outcomes,omitempty"`   // Append-only outcome history
	Documents             []CandidateDocument `gorm:"foreignKey:CandidateID;references:ID" json:"documents,omitempty"`  // At most one document per type
}

func (c *Candidate) TableName() string {
	return "candidates"
}

// CandidateOutcome is one immutable entry in a candidate's outcome history.
// Multiple entries may exist for the same step; the latest entry per step is
// authoritative for progression.
type CandidateOutcome struct {
	BaseModel
	CandidateID      uuid.UUID     `gorm:"type:uuid;column:candidate_id;not null;index" json:"candidateId"`
	WorkflowStepID   uuid.UUID     `gorm:"type:uuid;column:workflow_step_id;not null;index" json:"workflowStepId"`
	Status           OutcomeStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	Reason           *string       `gorm:"type:text;column:reason" json:"reason,omitempty"`
	RecordedAt       time.Time     `gorm:"type:timestamptz;column:recorded_at;not null" json:"recordedAt"`
	RecordedByUserID string        `gorm:"type:varchar(100);column:recorded_by_user_id;not null" json:"recordedByUserId"`
}

func (co *CandidateOutcome) TableName() string {
	return "candidate_outcomes"
}

// CandidateDocument is a document attached to a candidate. Replacing a
// document of the same type detaches the previous one.
type CandidateDocument struct {
	BaseModel
	CandidateID uuid.UUID    `gorm:"type:uuid;column:candidate_id;not null;index" json:"candidateId"`
	Type        DocumentType `gorm:"type:varchar(30);column:type;not null" json:"type"`
	FileName    string       `gorm:"type:varchar(255);column:file_name;not null" json:"fileName"`
	BlobURL     string       `gorm:"type:text;column:blob_url;not null" json:"blobUrl"`
}

func (cd *CandidateDocument) TableName() string {
	return "candidate_documents"
}

// CreateCandidateDTO is the request body for creating a candidate.
type CreateCandidateDTO struct {
	FullName    string     `json:"fullName" validate:"required,max=255"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string    `json:"phoneNumber,omitempty" validate:"omitempty,max=50"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	DateApplied *time.Time `json:"dateApplied,omitempty"` // Defaults to now when omitted
}

// RecordOutcomeDTO is the request body for recording an outcome on a step.
type RecordOutcomeDTO struct {
	WorkflowStepID uuid.UUID     `json:"workflowStepId" validate:"required"`
	Status         OutcomeStatus `json:"status" validate:"required,oneof=PASS FAIL HOLD"`
	Reason         *string       `json:"reason,omitempty"`
}

// AssignDocumentDTO is the request body for attaching a document to a candidate.
type AssignDocumentDTO struct {
	Type     DocumentType `json:"type" validate:"required,oneof=CV"`
	FileName string       `json:"fileName" validate:"required,max=255"`
	BlobURL  string       `json:"blobUrl" validate:"required"`
}

// CandidateResponseDTO represents a candidate in API responses, including the
// derived progression state.
type CandidateResponseDTO struct {
	ID                    uuid.UUID           `json:"id"`
	RecruitmentID         uuid.UUID           `json:"recruitmentId"`
	FullName              string              `json:"fullName"`
	Email                 *string             `json:"email,omitempty"`
	PhoneNumber           *string             `json:"phoneNumber,omitempty"`
	Location              *string             `json:"location,omitempty"`
	DateApplied           time.Time           `json:"dateApplied"`
	CurrentWorkflowStepID *uuid.UUID          `json:"currentWorkflowStepId"`
	CurrentStatus         OutcomeStatus       `json:"currentStatus,omitempty"`
	IsCompleted           bool                `json:"isCompleted"`
	Outcomes              []CandidateOutcome  `json:"outcomes,omitempty"`
	Documents             []CandidateDocument `json:"documents,omitempty"`
}
