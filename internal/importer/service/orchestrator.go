// Package service orchestrates bulk candidate imports: submission, the
// asynchronous processing of spreadsheets and CV bundles, and conflict
// resolution of flagged rows.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/OpenHire/hireflow/internal/importer/matching"
	"github.com/OpenHire/hireflow/internal/importer/model"
	"github.com/OpenHire/hireflow/internal/importer/parser"
	"github.com/OpenHire/hireflow/internal/importer/queue"
	"github.com/OpenHire/hireflow/internal/storage"
)

var (
	// ErrRecruitmentNotFound is returned when submitting an import against an
	// unknown recruitment.
	ErrRecruitmentNotFound = errors.New("recruitment not found")

	// ErrUnsupportedFileType is returned for uploads that are neither a
	// spreadsheet nor a PDF bundle.
	ErrUnsupportedFileType = errors.New("unsupported import file type")
)

// BlobStore is the slice of the storage layer the importer needs.
type BlobStore interface {
	Upload(ctx context.Context, prefix, filename string, content []byte) (*storage.StoredObject, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Enqueuer submits jobs for asynchronous processing.
type Enqueuer interface {
	Enqueue(job queue.Job) error
}

// ImportService runs the import pipeline. Submit parks the upload and
// enqueues a job; Process, called by a queue worker, does all the heavy
// lifting. Each session is enqueued exactly once, so all processing for a
// given session is serialized.
type ImportService struct {
	sessions SessionStore
	gateway  RecruitmentGateway
	blobs    BlobStore
	jobs     Enqueuer
	sheets   parser.SpreadsheetParser
	splitter parser.BundleSplitter
	validate *validator.Validate
}

func NewImportService(
	sessions SessionStore,
	gateway RecruitmentGateway,
	blobs BlobStore,
	jobs Enqueuer,
	sheets parser.SpreadsheetParser,
	splitter parser.BundleSplitter,
) *ImportService {
	return &ImportService{
		sessions: sessions,
		gateway:  gateway,
		blobs:    blobs,
		jobs:     jobs,
		sheets:   sheets,
		splitter: splitter,
		validate: validator.New(),
	}
}

// Submit accepts an upload, creates a PROCESSING session, and enqueues it.
// The returned ack carries the session ID and a status URL to poll; all
// parsing happens later on a worker.
func (s *ImportService) Submit(ctx context.Context, recruitmentID uuid.UUID, fileName string, content []byte, submittedBy string) (*model.ImportSessionAck, error) {
	switch fileExt(fileName) {
	case ".xlsx", ".pdf":
	default:
		return nil, fmt.Errorf("%q: %w", fileName, ErrUnsupportedFileType)
	}

	exists, err := s.gateway.RecruitmentExists(ctx, recruitmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("recruitment %s: %w", recruitmentID, ErrRecruitmentNotFound)
	}

	obj, err := s.blobs.Upload(ctx, storage.PrefixSources, fileName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to park upload: %w", err)
	}

	session := model.NewImportSession(recruitmentID, fileName, obj.Key, submittedBy)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.jobs.Enqueue(queue.Job{SessionID: session.ID}); err != nil {
		// Reject with backpressure rather than leaving a session that will
		// never progress.
		if failErr := session.MarkFailed("import queue is full"); failErr == nil {
			if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
				slog.ErrorContext(ctx, "Failed to persist rejected session", "importSessionId", session.ID, "error", saveErr)
			}
		}
		return nil, err
	}

	slog.InfoContext(ctx, "Import session submitted",
		"importSessionId", session.ID, "recruitmentId", recruitmentID, "fileName", fileName)

	return &model.ImportSessionAck{
		ImportSessionID: session.ID,
		StatusURL:       fmt.Sprintf("/api/recruitments/%s/imports/%s", recruitmentID, session.ID),
	}, nil
}

// GetSession returns a session with its row results and documents.
func (s *ImportService) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ImportSession, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// Process handles one dequeued session. Total failures (unreadable file,
// missing table of contents) mark the session FAILED; per-row and per-entry
// problems are recorded and the session still completes. A context
// cancellation mid-run returns without terminating the session, leaving the
// partial results visible.
func (s *ImportService) Process(ctx context.Context, job queue.Job) error {
	session, err := s.sessions.GetByID(ctx, job.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load import session %s: %w", job.SessionID, err)
	}
	if session.Terminal() {
		slog.InfoContext(ctx, "Skipping already terminal session", "importSessionId", session.ID, "status", session.Status)
		return nil
	}

	content, err := s.blobs.Fetch(ctx, session.SourceBlobKey)
	if err != nil {
		return s.fail(ctx, session, "uploaded file could not be read")
	}

	switch fileExt(session.SourceFileName) {
	case ".xlsx":
		return s.processSpreadsheet(ctx, session, content)
	case ".pdf":
		return s.processBundle(ctx, session, content)
	default:
		return s.fail(ctx, session, fmt.Sprintf("unsupported file type %q", fileExt(session.SourceFileName)))
	}
}

func (s *ImportService) processSpreadsheet(ctx context.Context, session *model.ImportSession, content []byte) error {
	rows, err := s.sheets.ParseRows(ctx, bytes.NewReader(content))
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return s.fail(ctx, session, fmt.Sprintf("spreadsheet could not be parsed: %v", err))
	}

	candidates, err := s.gateway.ListCandidates(ctx, session.RecruitmentID)
	if err != nil {
		return fmt.Errorf("failed to list candidates for matching: %w", err)
	}
	index := matching.NewIndex(candidates)

	var created, updated, errored, flagged int
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			// Leave the session non-terminal; processed rows stay visible.
			return err
		}

		result := s.classifyRow(ctx, session.RecruitmentID, index, row)
		switch result.Action {
		case model.RowActionCreated:
			created++
		case model.RowActionUpdated:
			updated++
		case model.RowActionErrored:
			errored++
		case model.RowActionFlagged:
			flagged++
		}
		if err := session.AddRowResult(result); err != nil {
			return err
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return err
		}
	}

	if err := session.MarkCompleted(created, updated, errored, flagged); err != nil {
		return err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Spreadsheet import completed",
		"importSessionId", session.ID, "totalRows", session.TotalRows,
		"created", created, "updated", updated, "errored", errored, "flagged", flagged)
	return nil
}

// classifyRow turns one parsed row into its recorded result. Email equality
// beats name matching; an ambiguous name match is flagged for a human with
// the first applicant among the tied candidates as the suggested match.
func (s *ImportService) classifyRow(ctx context.Context, recruitmentID uuid.UUID, index *matching.Index, row parser.ParsedRow) *model.ImportRowResult {
	result := &model.ImportRowResult{
		RowNumber:         row.RowNumber,
		CandidateFullName: row.FullName,
		CandidateEmail:    optional(row.Email),
		PhoneNumber:       optional(row.PhoneNumber),
		Location:          optional(row.Location),
		DateApplied:       row.DateApplied,
	}

	if row.ParseError != "" {
		result.Action = model.RowActionErrored
		result.ErrorMessage = optional(row.ParseError)
		return result
	}
	if row.Email != "" {
		if err := s.validate.Var(row.Email, "email"); err != nil {
			result.Action = model.RowActionErrored
			result.ErrorMessage = optional(fmt.Sprintf("invalid email %q", row.Email))
			return result
		}
	}

	verdict := index.MatchRow(row.Email, row.FullName)
	switch verdict.Kind {
	case matching.RowMatchByEmail, matching.RowMatchByName:
		candidate, err := s.gateway.MergeRow(ctx, verdict.Candidate.ID, row)
		if err != nil {
			result.Action = model.RowActionErrored
			result.ErrorMessage = optional(err.Error())
			return result
		}
		result.Action = model.RowActionUpdated
		result.MatchedCandidateID = &candidate.ID

	case matching.RowMatchAmbiguous:
		result.Action = model.RowActionFlagged
		suggested := verdict.Candidate.ID
		result.MatchedCandidateID = &suggested

	default:
		candidate, err := s.gateway.CreateFromRow(ctx, recruitmentID, row)
		if err != nil {
			result.Action = model.RowActionErrored
			result.ErrorMessage = optional(err.Error())
			return result
		}
		result.Action = model.RowActionCreated
		result.MatchedCandidateID = &candidate.ID
		// Later rows of the same file match against this candidate too.
		index.Add(candidate)
	}
	return result
}

func (s *ImportService) processBundle(ctx context.Context, session *model.ImportSession, content []byte) error {
	// Archive the untouched bundle first so a failure mid-split never loses
	// the source material.
	archived, err := s.blobs.Upload(ctx, storage.PrefixBundles, session.SourceFileName, content)
	if err != nil {
		return s.fail(ctx, session, "bundle could not be archived")
	}
	session.SetOriginalBundleURL(archived.URL)
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}

	entries, err := s.splitter.Split(ctx, content, func(total, completed, failed int) {
		if progressErr := session.SetPdfSplitProgress(total, completed, failed); progressErr != nil {
			return
		}
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			slog.WarnContext(ctx, "Failed to persist split progress", "importSessionId", session.ID, "error", saveErr)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		if errors.Is(err, parser.ErrNoTableOfContents) {
			return s.fail(ctx, session, "bundle has no parsable table of contents")
		}
		return s.fail(ctx, session, fmt.Sprintf("bundle could not be split: %v", err))
	}

	candidates, err := s.gateway.ListCandidates(ctx, session.RecruitmentID)
	if err != nil {
		return fmt.Errorf("failed to list candidates for matching: %w", err)
	}
	index := matching.NewIndex(candidates)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.Err != nil {
			slog.WarnContext(ctx, "Skipping failed split entry",
				"importSessionId", session.ID, "candidateName", entry.CandidateName, "error", entry.Err)
			continue
		}

		fileName := fmt.Sprintf("%s.pdf", entry.CandidateName)
		stored, err := s.blobs.Upload(ctx, storage.PrefixDocuments, fileName, entry.Data)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to store split document",
				"importSessionId", session.ID, "candidateName", entry.CandidateName, "error", err)
			session.PdfSplitErrors++
			continue
		}

		doc, err := session.AddImportDocument(entry.CandidateName, stored.URL, entry.WorkdayCandidateID)
		if err != nil {
			return err
		}

		if candidate, status := index.MatchDocument(entry.CandidateName); status == model.DocumentMatchStatusAutoMatched {
			doc.MatchStatus = status
			id := candidate.ID
			doc.MatchedCandidateID = &id
			if err := s.gateway.AttachDocument(ctx, candidate.ID, fileName, stored.URL, entry.WorkdayCandidateID); err != nil {
				slog.ErrorContext(ctx, "Failed to attach matched document",
					"importSessionId", session.ID, "candidateId", candidate.ID, "error", err)
			}
		}
	}

	if err := session.MarkCompleted(0, 0, 0, 0); err != nil {
		return err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Bundle import completed",
		"importSessionId", session.ID, "documents", len(session.Documents), "splitErrors", session.PdfSplitErrors)
	return nil
}

// fail terminates the session with a reason. Only unusable input structure
// lands here; per-row problems never do.
func (s *ImportService) fail(ctx context.Context, session *model.ImportSession, reason string) error {
	slog.ErrorContext(ctx, "Import session failed", "importSessionId", session.ID, "reason", reason)
	if err := session.MarkFailed(reason); err != nil {
		return err
	}
	return s.sessions.Save(ctx, session)
}

func fileExt(fileName string) string {
	return strings.ToLower(path.Ext(fileName))
}
