package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func flaggedRow() *ImportRowResult {
	matchID := uuid.New()
	email := "pat.lee@example.com"
	return &ImportRowResult{
		RowNumber:          2,
		Action:             RowActionFlagged,
		MatchedCandidateID: &matchID,
		CandidateFullName:  "Pat Lee",
		CandidateEmail:     &email,
	}
}

func TestImportSession_Lifecycle(t *testing.T) {
	t.Run("Starts Processing", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.Equal(t, ImportSessionStatusProcessing, session.Status)
		assert.False(t, session.Terminal())
	})

	t.Run("MarkCompleted Sets Counters And Timestamp", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		err := session.MarkCompleted(1, 2, 3, 4)
		assert.NoError(t, err)
		assert.Equal(t, ImportSessionStatusCompleted, session.Status)
		assert.NotNil(t, session.CompletedAt)
		assert.Equal(t, 1, session.CreatedCount)
		assert.Equal(t, 2, session.UpdatedCount)
		assert.Equal(t, 3, session.ErroredCount)
		assert.Equal(t, 4, session.FlaggedCount)
	})

	t.Run("MarkFailed Records Reason", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "bundle.pdf", "key", "recruiter-1")
		err := session.MarkFailed("no table of contents found")
		assert.NoError(t, err)
		assert.Equal(t, ImportSessionStatusFailed, session.Status)
		assert.NotNil(t, session.FailureReason)
		assert.Equal(t, "no table of contents found", *session.FailureReason)
	})

	t.Run("Terminal Transitions Are One Way", func(t *testing.T) {
		completed := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, completed.MarkCompleted(0, 0, 0, 0))
		assert.ErrorIs(t, completed.MarkCompleted(0, 0, 0, 0), ErrSessionTerminal)
		assert.ErrorIs(t, completed.MarkFailed("late failure"), ErrSessionTerminal)

		failed := NewImportSession(uuid.New(), "bundle.pdf", "key", "recruiter-1")
		assert.NoError(t, failed.MarkFailed("unreadable file"))
		assert.ErrorIs(t, failed.MarkFailed("again"), ErrSessionTerminal)
		assert.ErrorIs(t, failed.MarkCompleted(0, 0, 0, 0), ErrSessionTerminal)
	})

	t.Run("No Row Or Document Mutation After Terminal", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, session.MarkCompleted(0, 0, 0, 0))

		err := session.AddRowResult(&ImportRowResult{RowNumber: 1, Action: RowActionCreated})
		assert.ErrorIs(t, err, ErrSessionTerminal)

		_, err = session.AddImportDocument("Sam Poe", "https://blob/doc", nil)
		assert.ErrorIs(t, err, ErrSessionTerminal)

		assert.ErrorIs(t, session.SetPdfSplitProgress(10, 5, 1), ErrSessionTerminal)
	})
}

func TestImportSession_AddRowResult(t *testing.T) {
	session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")

	for i, action := range []RowAction{RowActionCreated, RowActionUpdated, RowActionErrored} {
		err := session.AddRowResult(&ImportRowResult{RowNumber: i + 2, Action: action})
		assert.NoError(t, err)
	}

	assert.Equal(t, 3, session.TotalRows)
	for i, row := range session.RowResults {
		assert.Equal(t, i, row.RowIndex, "append order determines the ordinal address")
	}
}

func TestImportSession_SplitProgress(t *testing.T) {
	session := NewImportSession(uuid.New(), "bundle.pdf", "key", "recruiter-1")

	assert.NoError(t, session.SetPdfSplitProgress(12, 3, 0))
	assert.NoError(t, session.SetPdfSplitProgress(12, 12, 2))

	assert.Equal(t, 12, *session.PdfTotalCandidates)
	assert.Equal(t, 12, *session.PdfSplitCandidates)
	assert.Equal(t, 2, session.PdfSplitErrors)
}

func TestImportSession_Resolution(t *testing.T) {
	t.Run("Confirm Sets Resolution Once", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, session.AddRowResult(flaggedRow()))

		row, err := session.ConfirmMatch(0)
		assert.NoError(t, err)
		assert.Equal(t, RowResolutionConfirmed, *row.Resolution)

		_, err = session.ConfirmMatch(0)
		assert.ErrorIs(t, err, ErrInvalidOperation)
		_, err = session.RejectMatch(0)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("Reject Sets Resolution", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, session.AddRowResult(flaggedRow()))

		row, err := session.RejectMatch(0)
		assert.NoError(t, err)
		assert.Equal(t, RowResolutionRejected, *row.Resolution)
	})

	t.Run("Non-Flagged Row Cannot Be Resolved", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, session.AddRowResult(&ImportRowResult{RowNumber: 2, Action: RowActionCreated}))

		_, err := session.ConfirmMatch(0)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("Out Of Range Index", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		_, err := session.ConfirmMatch(0)
		assert.ErrorIs(t, err, ErrInvalidOperation)
		_, err = session.RejectMatch(-1)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("Resolution Allowed After Completion", func(t *testing.T) {
		session := NewImportSession(uuid.New(), "batch.xlsx", "key", "recruiter-1")
		assert.NoError(t, session.AddRowResult(flaggedRow()))
		assert.NoError(t, session.MarkCompleted(0, 0, 0, 1))

		row, err := session.ConfirmMatch(0)
		assert.NoError(t, err)
		assert.Equal(t, RowResolutionConfirmed, *row.Resolution)
	})
}
