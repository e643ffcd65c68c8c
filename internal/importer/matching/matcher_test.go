package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	importmodel "github.com/OpenHire/hireflow/internal/importer/model"
	recmodel "github.com/OpenHire/hireflow/internal/recruitment/model"
)

func candidateNamed(fullName string, email *string) recmodel.Candidate {
	return recmodel.Candidate{
		BaseModel: recmodel.BaseModel{ID: uuid.New()},
		FullName:  fullName,
		Email:     email,
	}
}

func strPtr(s string) *string { return &s }

func TestIndex_MatchRow(t *testing.T) {
	alice := candidateNamed("Alice Johnson", strPtr("alice@example.com"))
	otherAlice := candidateNamed("alice  JOHNSON", nil)
	bruno := candidateNamed("Bruno Müller", strPtr("bruno@example.com"))
	candidates := []recmodel.Candidate{alice, otherAlice, bruno}

	t.Run("Email Match Takes Precedence", func(t *testing.T) {
		idx := NewIndex(candidates)
		verdict := idx.MatchRow("ALICE@example.com", "Someone Else Entirely")
		assert.Equal(t, RowMatchByEmail, verdict.Kind)
		assert.Equal(t, alice.ID, verdict.Candidate.ID)
	})

	t.Run("Unknown Email Is New Even With Name Collision", func(t *testing.T) {
		idx := NewIndex(candidates)
		verdict := idx.MatchRow("new.alice@example.com", "Alice Johnson")
		assert.Equal(t, RowMatchNone, verdict.Kind)
		assert.Nil(t, verdict.Candidate)
	})

	t.Run("Unique Name Match", func(t *testing.T) {
		idx := NewIndex(candidates)
		verdict := idx.MatchRow("", "bruno müller")
		assert.Equal(t, RowMatchByName, verdict.Kind)
		assert.Equal(t, bruno.ID, verdict.Candidate.ID)
	})

	t.Run("Ambiguous Name", func(t *testing.T) {
		idx := NewIndex(candidates)
		verdict := idx.MatchRow("", "Alice Johnson")
		assert.Equal(t, RowMatchAmbiguous, verdict.Kind)
		// The suggested match is the first of the tied candidates.
		assert.Equal(t, alice.ID, verdict.Candidate.ID)
	})

	t.Run("No Match", func(t *testing.T) {
		idx := NewIndex(candidates)
		verdict := idx.MatchRow("", "Chandra Patel")
		assert.Equal(t, RowMatchNone, verdict.Kind)
	})

	t.Run("Added Candidates Participate In Later Matches", func(t *testing.T) {
		idx := NewIndex(candidates)
		chandra := candidateNamed("Chandra Patel", strPtr("chandra@example.com"))
		idx.Add(&chandra)

		verdict := idx.MatchRow("chandra@example.com", "")
		assert.Equal(t, RowMatchByEmail, verdict.Kind)
		assert.Equal(t, chandra.ID, verdict.Candidate.ID)
	})
}

func TestMatchDocuments(t *testing.T) {
	alice := candidateNamed("Alice Johnson", nil)
	otherAlice := candidateNamed("Alice Johnson", nil)
	bruno := candidateNamed("Bruno Müller", nil)

	t.Run("Unique Name Auto-Matches", func(t *testing.T) {
		verdicts := MatchDocuments([]string{"BRUNO MULLER"}, []recmodel.Candidate{alice, bruno})
		assert.Len(t, verdicts, 1)
		assert.Equal(t, importmodel.DocumentMatchStatusAutoMatched, verdicts[0].Status)
		assert.Equal(t, bruno.ID, *verdicts[0].MatchedCandidateID)
	})

	t.Run("Ambiguity Is Never Guessed", func(t *testing.T) {
		verdicts := MatchDocuments([]string{"Alice Johnson"}, []recmodel.Candidate{alice, otherAlice})
		assert.Equal(t, importmodel.DocumentMatchStatusUnmatched, verdicts[0].Status)
		assert.Nil(t, verdicts[0].MatchedCandidateID)
	})

	t.Run("Unknown Name Is Unmatched", func(t *testing.T) {
		verdicts := MatchDocuments([]string{"Dana White"}, []recmodel.Candidate{alice, bruno})
		assert.Equal(t, importmodel.DocumentMatchStatusUnmatched, verdicts[0].Status)
	})

	t.Run("Order Independent", func(t *testing.T) {
		names := []string{"Bruno Müller", "Alice Johnson", "Dana White"}
		reversed := []string{"Dana White", "Alice Johnson", "Bruno Müller"}
		candidates := []recmodel.Candidate{alice, bruno}

		forward := MatchDocuments(names, candidates)
		backward := MatchDocuments(reversed, candidates)

		assert.Equal(t, forward[0].Status, backward[2].Status)
		assert.Equal(t, forward[1].Status, backward[1].Status)
		assert.Equal(t, forward[2].Status, backward[0].Status)
	})
}
