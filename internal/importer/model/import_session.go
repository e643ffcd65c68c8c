package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportSessionStatus is the state of one bulk-ingestion job.
type ImportSessionStatus string

const (
	ImportSessionStatusProcessing ImportSessionStatus = "PROCESSING" // Worker has not finished yet
	ImportSessionStatusCompleted  ImportSessionStatus = "COMPLETED"  // Normal end, possibly with per-row errors
	ImportSessionStatusFailed     ImportSessionStatus = "FAILED"     // Total failure, no usable input structure
)

// RowAction classifies what the pipeline did with one spreadsheet row.
type RowAction string

const (
	RowActionCreated RowAction = "CREATED" // A new candidate was materialized from the row
	RowActionUpdated RowAction = "UPDATED" // The row was merged into an existing candidate
	RowActionErrored RowAction = "ERRORED" // The row failed parsing or validation
	RowActionFlagged RowAction = "FLAGGED" // Ambiguous match, pending human resolution
)

// RowResolution is the human verdict on a flagged row.
type RowResolution string

const (
	RowResolutionConfirmed RowResolution = "Confirmed" // Suggested match accepted, row merges into the matched candidate
	RowResolutionRejected  RowResolution = "Rejected"  // Match rejected, an independent candidate is created instead
)

// DocumentMatchStatus is the match verdict for one split bundle document.
type DocumentMatchStatus string

const (
	DocumentMatchStatusAutoMatched      DocumentMatchStatus = "AUTO_MATCHED"      // Exactly one candidate shares the normalized name
	DocumentMatchStatusUnmatched        DocumentMatchStatus = "UNMATCHED"         // Zero or several candidates share the name
	DocumentMatchStatusManuallyAssigned DocumentMatchStatus = "MANUALLY_ASSIGNED" // An operator assigned the document later
)

var (
	// ErrSessionTerminal is returned when mutating a session that has already
	// been completed or failed.
	ErrSessionTerminal = errors.New("import session is already terminal")

	// ErrInvalidOperation is returned for resolution calls on rows that are
	// not flagged or are already resolved.
	ErrInvalidOperation = errors.New("invalid operation on import row")
)

// ImportSession represents one file-import job. It is created in PROCESSING
// status at submission time and terminated exactly once into COMPLETED or
// FAILED by the orchestrator. Once terminal, the session accepts no further
// row or document mutation except conflict resolution on flagged rows.
type ImportSession struct {
	BaseModel
	RecruitmentID  uuid.UUID           `gorm:"type:uuid;column:recruitment_id;not null;index" json:"recruitmentId"`
	SourceFileName string              `gorm:"type:varchar(255);column:source_file_name;not null" json:"sourceFileName"`
	SourceBlobKey  string              `gorm:"type:varchar(255);column:source_blob_key" json:"-"` // Where the raw upload was parked for the worker
	SubmittedBy    string              `gorm:"type:varchar(100);column:submitted_by" json:"submittedBy"`
	Status         ImportSessionStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	CompletedAt    *time.Time          `gorm:"type:timestamptz;column:completed_at" json:"completedAt,omitempty"`
	FailureReason  *string             `gorm:"type:text;column:failure_reason" json:"failureReason,omitempty"`

	TotalRows    int `gorm:"column:total_rows;not null;default:0" json:"totalRows"`
	CreatedCount int `gorm:"column:created_count;not null;default:0" json:"createdCount"`
	UpdatedCount int `gorm:"column:updated_count;not null;default:0" json:"updatedCount"`
	ErroredCount int `gorm:"column:errored_count;not null;default:0" json:"erroredCount"`
	FlaggedCount int `gorm:"column:flagged_count;not null;default:0" json:"flaggedCount"`

	PdfTotalCandidates    *int    `gorm:"column:pdf_total_candidates" json:"pdfTotalCandidates,omitempty"`
	PdfSplitCandidates    *int    `gorm:"column:pdf_split_candidates" json:"pdfSplitCandidates,omitempty"`
	PdfSplitErrors        int     `gorm:"column:pdf_split_errors;not null;default:0" json:"pdfSplitErrors"`
	OriginalBundleBlobURL *string `gorm:"type:text;column:original_bundle_blob_url" json:"originalBundleBlobUrl,omitempty"`

	RowResults []ImportRowResult `gorm:"foreignKey:ImportSessionID;references:ID" json:"rowResults,omitempty"`
	Documents  []ImportDocument  `gorm:"foreignKey:ImportSessionID;references:ID" json:"documents,omitempty"`
}

func (s *ImportSession) TableName() string {
	return "import_sessions"
}

// ImportRowResult is the per-row outcome of the spreadsheet path. Rows are
// addressed within a session by RowIndex, their ordinal position in parse
// order; each row also carries a stable UUID for clients that prefer it.
// The parsed fields are kept so a flagged row can materialize a candidate on
// resolution.
type ImportRowResult struct {
	BaseModel
	ImportSessionID    uuid.UUID      `gorm:"type:uuid;column:import_session_id;not null;index" json:"-"`
	RowIndex           int            `gorm:"column:row_index;not null" json:"rowIndex"`  // Ordinal position within the session
	RowNumber          int            `gorm:"column:row_number;not null" json:"rowNumber"` // Source spreadsheet row number
	Action             RowAction      `gorm:"type:varchar(20);column:action;not null" json:"action"`
	ErrorMessage       *string        `gorm:"type:text;column:error_message" json:"errorMessage,omitempty"`
	Resolution         *RowResolution `gorm:"type:varchar(20);column:resolution" json:"resolution,omitempty"`
	MatchedCandidateID *uuid.UUID     `gorm:"type:uuid;column:matched_candidate_id" json:"matchedCandidateId,omitempty"`

	// Parsed row fields, retained for resolution-time materialization.
	CandidateFullName string     `gorm:"type:varchar(255);column:candidate_full_name" json:"candidateFullName"`
	CandidateEmail    *string    `gorm:"type:varchar(320);column:candidate_email" json:"candidateEmail,omitempty"`
	PhoneNumber       *string    `gorm:"type:varchar(50);column:phone_number" json:"phoneNumber,omitempty"`
	Location          *string    `gorm:"type:varchar(255);column:location" json:"location,omitempty"`
	DateApplied       *time.Time `gorm:"type:timestamptz;column:date_applied" json:"dateApplied,omitempty"`
}

func (r *ImportRowResult) TableName() string {
	return "import_row_results"
}

// ImportDocument is the per-split-document outcome of the PDF path.
type ImportDocument struct {
	BaseModel
	ImportSessionID    uuid.UUID           `gorm:"type:uuid;column:import_session_id;not null;index" json:"-"`
	CandidateName      string              `gorm:"type:varchar(255);column:candidate_name;not null" json:"candidateName"`
	BlobStorageURL     string              `gorm:"type:text;column:blob_storage_url;not null" json:"blobStorageUrl"`
	WorkdayCandidateID *string             `gorm:"type:varchar(100);column:workday_candidate_id" json:"workdayCandidateId,omitempty"`
	MatchStatus        DocumentMatchStatus `gorm:"type:varchar(30);column:match_status;not null" json:"matchStatus"`
	MatchedCandidateID *uuid.UUID          `gorm:"type:uuid;column:matched_candidate_id" json:"matchedCandidateId,omitempty"`
}

func (d *ImportDocument) TableName() string {
	return "import_documents"
}

// NewImportSession creates a session in PROCESSING status.
func NewImportSession(recruitmentID uuid.UUID, sourceFileName, sourceBlobKey, submittedBy string) *ImportSession {
	return &ImportSession{
		RecruitmentID:  recruitmentID,
		SourceFileName: sourceFileName,
		SourceBlobKey:  sourceBlobKey,
		SubmittedBy:    submittedBy,
		Status:         ImportSessionStatusProcessing,
	}
}

// Terminal reports whether the session has reached COMPLETED or FAILED.
func (s *ImportSession) Terminal() bool {
	return s.Status != ImportSessionStatusProcessing
}

// AddRowResult appends one row result in parse order, assigning its ordinal
// position within the session.
func (s *ImportSession) AddRowResult(result *ImportRowResult) error {
	if s.Terminal() {
		return fmt.Errorf("cannot add row result: %w", ErrSessionTerminal)
	}
	result.ImportSessionID = s.ID
	result.RowIndex = len(s.RowResults)
	s.RowResults = append(s.RowResults, *result)
	s.TotalRows = len(s.RowResults)
	return nil
}

// AddImportDocument appends one split-document entry. The match status starts
// UNMATCHED; the orchestrator applies a verdict before persisting when
// matching runs at append time.
func (s *ImportSession) AddImportDocument(candidateName, blobURL string, workdayCandidateID *string) (*ImportDocument, error) {
	if s.Terminal() {
		return nil, fmt.Errorf("cannot add import document: %w", ErrSessionTerminal)
	}
	doc := ImportDocument{
		ImportSessionID:    s.ID,
		CandidateName:      candidateName,
		BlobStorageURL:     blobURL,
		WorkdayCandidateID: workdayCandidateID,
		MatchStatus:        DocumentMatchStatusUnmatched,
	}
	s.Documents = append(s.Documents, doc)
	return &s.Documents[len(s.Documents)-1], nil
}

// SetOriginalBundleURL records where the unmodified uploaded bundle was
// archived. Done before splitting so a failure mid-split never loses the
// source.
func (s *ImportSession) SetOriginalBundleURL(url string) {
	s.OriginalBundleBlobURL = &url
}

// SetPdfSplitProgress updates the live split progress counters. Callable
// repeatedly while the session is processing.
func (s *ImportSession) SetPdfSplitProgress(total, completed, splitErrors int) error {
	if s.Terminal() {
		return fmt.Errorf("cannot update split progress: %w", ErrSessionTerminal)
	}
	s.PdfTotalCandidates = &total
	s.PdfSplitCandidates = &completed
	s.PdfSplitErrors = splitErrors
	return nil
}

// MarkCompleted sets the final counters and transitions the session to
// COMPLETED. Callable exactly once, mutually exclusive with MarkFailed.
func (s *ImportSession) MarkCompleted(created, updated, errored, flagged int) error {
	if s.Terminal() {
		return fmt.Errorf("cannot complete session in status %s: %w", s.Status, ErrSessionTerminal)
	}
	now := time.Now().UTC()
	s.Status = ImportSessionStatusCompleted
	s.CompletedAt = &now
	s.CreatedCount = created
	s.UpdatedCount = updated
	s.ErroredCount = errored
	s.FlaggedCount = flagged
	return nil
}

// MarkFailed transitions the session to FAILED with a human-readable reason.
// Callable exactly once, mutually exclusive with MarkCompleted.
func (s *ImportSession) MarkFailed(reason string) error {
	if s.Terminal() {
		return fmt.Errorf("cannot fail session in status %s: %w", s.Status, ErrSessionTerminal)
	}
	now := time.Now().UTC()
	s.Status = ImportSessionStatusFailed
	s.CompletedAt = &now
	s.FailureReason = &reason
	return nil
}

// ConfirmMatch resolves the flagged row at rowIndex by accepting its
// suggested match. The caller merges the row's data into the matched
// candidate afterwards.
func (s *ImportSession) ConfirmMatch(rowIndex int) (*ImportRowResult, error) {
	return s.resolveRow(rowIndex, RowResolutionConfirmed)
}

// RejectMatch resolves the flagged row at rowIndex by rejecting its suggested
// match. The caller creates an independent new candidate from the row's
// parsed data afterwards.
func (s *ImportSession) RejectMatch(rowIndex int) (*ImportRowResult, error) {
	return s.resolveRow(rowIndex, RowResolutionRejected)
}

// resolveRow is allowed on terminal sessions: conflict resolution is the one
// mutation permitted after completion. A row is resolved exactly once.
func (s *ImportSession) resolveRow(rowIndex int, resolution RowResolution) (*ImportRowResult, error) {
	if rowIndex < 0 || rowIndex >= len(s.RowResults) {
		return nil, fmt.Errorf("row index %d out of range: %w", rowIndex, ErrInvalidOperation)
	}
	row := &s.RowResults[rowIndex]
	if row.Action != RowActionFlagged {
		return nil, fmt.Errorf("row %d has action %s, not %s: %w", rowIndex, row.Action, RowActionFlagged, ErrInvalidOperation)
	}
	if row.Resolution != nil {
		return nil, fmt.Errorf("row %d is already resolved as %s: %w", rowIndex, *row.Resolution, ErrInvalidOperation)
	}
	row.Resolution = &resolution
	return row, nil
}

// ImportSessionAck is the immediate response to a submission.
type ImportSessionAck struct {
	ImportSessionID uuid.UUID `json:"importSessionId"`
	StatusURL       string    `json:"statusUrl"`
}

// Resolution actions accepted by the flagged-row endpoint.
const (
	ResolveActionConfirm = "Confirm"
	ResolveActionReject  = "Reject"
)

// ResolveRowDTO is the request body for resolving a flagged row.
type ResolveRowDTO struct {
	Action string `json:"action" validate:"required,oneof=Confirm Reject"`
}

// ResolvedRowResponseDTO reports the final action and email of a resolved row.
type ResolvedRowResponseDTO struct {
	RowIndex       int           `json:"rowIndex"`
	Action         RowAction     `json:"action"`
	Resolution     RowResolution `json:"resolution"`
	CandidateEmail *string       `json:"candidateEmail,omitempty"`
	CandidateID    *uuid.UUID    `json:"candidateId,omitempty"`
}
