package model

import (
	"github.com/google/uuid"
)

// RecruitmentStatus represents the state of a hiring campaign.
type RecruitmentStatus string

const (
	RecruitmentStatusOpen   RecruitmentStatus = "OPEN"
	RecruitmentStatusClosed RecruitmentStatus = "CLOSED"
)

// Recruitment represents a hiring campaign with an ordered sequence of workflow steps.
type Recruitment struct {
	BaseModel
	Name        string            `gorm:"type:varchar(255);column:name;not null" json:"name"`            // Human-readable name of the campaign
	Description string            `gorm:"type:text;column:description" json:"description"`               // Optional description
	Status      RecruitmentStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`         // OPEN or CLOSED
	Steps       []WorkflowStep    `gorm:"foreignKey:RecruitmentID;references:ID" json:"steps,omitempty"` // Ordered screening steps
}

func (r *Recruitment) TableName() string {
	return "recruitments"
}

// WorkflowStep is one screening stage of a recruitment. Step orders within a
// recruitment are contiguous positive integers starting at 1, and step names
// are unique within their recruitment.
type WorkflowStep struct {
	BaseModel
	RecruitmentID uuid.UUID `gorm:"type:uuid;column:recruitment_id;not null;index" json:"recruitmentId"` // Owning recruitment
	Name          string    `gorm:"type:varchar(255);column:name;not null" json:"name"`                  // Unique within the recruitment
	Order         int       `gorm:"column:step_order;not null" json:"order"`                             // 1-based position in the screening sequence
}

func (ws *WorkflowStep) TableName() string {
	return "workflow_steps"
}

// CreateRecruitmentDTO is the request body for creating a recruitment.
type CreateRecruitmentDTO struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	StepNames   []string `json:"stepNames" validate:"required,min=1,dive,required"` // Initial step names, in screening order
}

// CreateWorkflowStepDTO is the request body for appending a step to a recruitment.
type CreateWorkflowStepDTO struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ReorderWorkflowStepsDTO is the request body for reordering a recruitment's steps.
// StepIDs must be a permutation of the recruitment's current step IDs; the new
// order follows the slice order.
type ReorderWorkflowStepsDTO struct {
	StepIDs []uuid.UUID `json:"stepIds" validate:"required,min=1"`
}
