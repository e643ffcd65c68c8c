package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/importer/parser"
	recmodel "github.com/OpenHire/hireflow/internal/recruitment/model"
	recservice "github.com/OpenHire/hireflow/internal/recruitment/service"
)

// RecruitmentGateway is the import pipeline's view of the recruitment domain:
// list candidates for matching, materialize candidates from parsed rows, and
// attach split documents.
type RecruitmentGateway interface {
	RecruitmentExists(ctx context.Context, recruitmentID uuid.UUID) (bool, error)
	ListCandidates(ctx context.Context, recruitmentID uuid.UUID) ([]recmodel.Candidate, error)

	// CreateFromRow materializes a new candidate from a parsed row and places
	// it at the recruitment's first workflow step.
	CreateFromRow(ctx context.Context, recruitmentID uuid.UUID, row parser.ParsedRow) (*recmodel.Candidate, error)

	// MergeRow folds a parsed row into an existing candidate's contact fields
	// without touching its progression.
	MergeRow(ctx context.Context, candidateID uuid.UUID, row parser.ParsedRow) (*recmodel.Candidate, error)

	// AttachDocument sets the candidate's CV to the stored blob, replacing any
	// previous one, and backfills the external ATS identifier when known.
	AttachDocument(ctx context.Context, candidateID uuid.UUID, fileName, blobURL string, workdayCandidateID *string) error
}

// GormRecruitmentGateway implements RecruitmentGateway with the same
// transaction and repository plumbing the recruitment services use.
type GormRecruitmentGateway struct {
	db     *gorm.DB
	repo   *recservice.GormRepository
	engine *recservice.ProgressionEngine
}

func NewGormRecruitmentGateway(db *gorm.DB, repo *recservice.GormRepository, engine *recservice.ProgressionEngine) *GormRecruitmentGateway {
	return &GormRecruitmentGateway{db: db, repo: repo, engine: engine}
}

func (g *GormRecruitmentGateway) RecruitmentExists(ctx context.Context, recruitmentID uuid.UUID) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&recmodel.Recruitment{}).
		Where("id = ?", recruitmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query recruitment %s: %w", recruitmentID, err)
	}
	return count > 0, nil
}

func (g *GormRecruitmentGateway) ListCandidates(ctx context.Context, recruitmentID uuid.UUID) ([]recmodel.Candidate, error) {
	var candidates []recmodel.Candidate
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		candidates, err = g.repo.GetCandidatesByRecruitmentIDInTx(ctx, tx, recruitmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (g *GormRecruitmentGateway) CreateFromRow(ctx context.Context, recruitmentID uuid.UUID, row parser.ParsedRow) (*recmodel.Candidate, error) {
	dateApplied := time.Now().UTC()
	if row.DateApplied != nil {
		dateApplied = *row.DateApplied
	}

	candidate := &recmodel.Candidate{
		RecruitmentID: recruitmentID,
		FullName:      row.FullName,
		Email:         optional(row.Email),
		PhoneNumber:   optional(row.PhoneNumber),
		Location:      optional(row.Location),
		DateApplied:   dateApplied,
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(candidate).Error; err != nil {
			return fmt.Errorf("failed to create candidate from row %d: %w", row.RowNumber, err)
		}
		steps, err := g.repo.GetStepsByRecruitmentIDInTx(ctx, tx, recruitmentID)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			return nil
		}
		return g.engine.AssignToWorkflowStep(ctx, tx, candidate, steps[0].ID)
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

func (g *GormRecruitmentGateway) MergeRow(ctx context.Context, candidateID uuid.UUID, row parser.ParsedRow) (*recmodel.Candidate, error) {
	var candidate *recmodel.Candidate
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loaded recmodel.Candidate
		if err := tx.First(&loaded, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s not found", candidateID)
			}
			return fmt.Errorf("failed to load candidate: %w", err)
		}

		// The row refreshes contact details. The existing name stays, and an
		// email is only ever backfilled, never changed.
		if loaded.Email == nil && row.Email != "" {
			loaded.Email = optional(row.Email)
		}
		if row.PhoneNumber != "" {
			loaded.PhoneNumber = optional(row.PhoneNumber)
		}
		if row.Location != "" {
			loaded.Location = optional(row.Location)
		}

		if err := g.repo.UpdateCandidateInTx(ctx, tx, &loaded); err != nil {
			return err
		}
		candidate = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

func (g *GormRecruitmentGateway) AttachDocument(ctx context.Context, candidateID uuid.UUID, fileName, blobURL string, workdayCandidateID *string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate recmodel.Candidate
		if err := tx.First(&candidate, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s not found", candidateID)
			}
			return fmt.Errorf("failed to load candidate: %w", err)
		}

		if err := tx.Where("candidate_id = ? AND type = ?", candidateID, recmodel.DocumentTypeCV).
			Delete(&recmodel.CandidateDocument{}).Error; err != nil {
			return fmt.Errorf("failed to detach previous document: %w", err)
		}
		doc := recmodel.CandidateDocument{
			CandidateID: candidateID,
			Type:        recmodel.DocumentTypeCV,
			FileName:    fileName,
			BlobURL:     blobURL,
		}
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to attach document: %w", err)
		}

		if workdayCandidateID != nil && candidate.WorkdayCandidateID == nil {
			err := tx.Model(&recmodel.Candidate{}).
				Where("id = ?", candidateID).
				Update("workday_candidate_id", *workdayCandidateID).Error
			if err != nil {
				return fmt.Errorf("failed to backfill workday candidate id: %w", err)
			}
		}
		return nil
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
