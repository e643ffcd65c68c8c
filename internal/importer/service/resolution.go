package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OpenHire/hireflow/internal/importer/model"
	"github.com/OpenHire/hireflow/internal/importer/parser"
)

// ResolveRow applies a human verdict to a flagged row. Confirm merges the
// row into its suggested match; Reject materializes an independent new
// candidate from the row's parsed data. Each flagged row is resolved exactly
// once, and resolution is the one mutation allowed on a completed session.
func (s *ImportService) ResolveRow(ctx context.Context, sessionID uuid.UUID, rowIndex int, req *model.ResolveRowDTO) (*model.ResolvedRowResponseDTO, error) {
	if req == nil {
		return nil, fmt.Errorf("resolve request cannot be nil")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid resolution: %w", err)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var row *model.ImportRowResult
	switch req.Action {
	case string(model.ResolveActionConfirm):
		row, err = session.ConfirmMatch(rowIndex)
		if err != nil {
			return nil, err
		}
		if row.MatchedCandidateID == nil {
			return nil, fmt.Errorf("flagged row %d has no suggested match: %w", rowIndex, model.ErrInvalidOperation)
		}
		if _, err := s.gateway.MergeRow(ctx, *row.MatchedCandidateID, rowFromResult(row)); err != nil {
			return nil, fmt.Errorf("failed to merge confirmed row: %w", err)
		}
		row.Action = model.RowActionUpdated

	case string(model.ResolveActionReject):
		row, err = session.RejectMatch(rowIndex)
		if err != nil {
			return nil, err
		}
		candidate, err := s.gateway.CreateFromRow(ctx, session.RecruitmentID, rowFromResult(row))
		if err != nil {
			return nil, fmt.Errorf("failed to create candidate from rejected row: %w", err)
		}
		row.Action = model.RowActionCreated
		id := candidate.ID
		row.MatchedCandidateID = &id

	default:
		return nil, fmt.Errorf("unknown resolution action %q", req.Action)
	}

	// Counters are only meaningful once the session completed; keep them in
	// sync with the reclassified row.
	if session.Terminal() && session.FlaggedCount > 0 {
		session.FlaggedCount--
		if row.Action == model.RowActionUpdated {
			session.UpdatedCount++
		} else {
			session.CreatedCount++
		}
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Flagged row resolved",
		"importSessionId", session.ID, "rowIndex", rowIndex, "resolution", *row.Resolution, "action", row.Action)

	return &model.ResolvedRowResponseDTO{
		RowIndex:       row.RowIndex,
		Action:         row.Action,
		Resolution:     *row.Resolution,
		CandidateEmail: row.CandidateEmail,
		CandidateID:    row.MatchedCandidateID,
	}, nil
}

// rowFromResult reconstructs the parsed row payload a stored result was
// built from.
func rowFromResult(row *model.ImportRowResult) parser.ParsedRow {
	return parser.ParsedRow{
		RowNumber:   row.RowNumber,
		FullName:    row.CandidateFullName,
		Email:       deref(row.CandidateEmail),
		PhoneNumber: deref(row.PhoneNumber),
		Location:    deref(row.Location),
		DateApplied: row.DateApplied,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
