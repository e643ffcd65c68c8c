package matching

import (
	"strings"

	"github.com/google/uuid"

	importmodel "github.com/OpenHire/hireflow/internal/importer/model"
	recmodel "github.com/OpenHire/hireflow/internal/recruitment/model"
)

// DocumentVerdict is the match result for one split document.
type DocumentVerdict struct {
	Index              int // Position of the document in the input slice
	MatchedCandidateID *uuid.UUID
	Status             importmodel.DocumentMatchStatus
}

// RowMatchKind classifies how an imported row relates to existing candidates.
type RowMatchKind int

const (
	RowMatchNone      RowMatchKind = iota // No existing candidate; a new one should be created
	RowMatchByEmail                       // Email equality, the strongest signal
	RowMatchByName                        // Exactly one candidate shares the normalized name
	RowMatchAmbiguous                     // Several candidates share the normalized name
)

// RowVerdict is the match result for one imported spreadsheet row.
type RowVerdict struct {
	Kind RowMatchKind

	// Candidate is the matched candidate for RowMatchByEmail and
	// RowMatchByName, and the suggested match (first applicant among the
	// tied candidates) for RowMatchAmbiguous.
	Candidate *recmodel.Candidate
}

// Index buckets candidates by email and by normalized full name for constant
// time lookups during an import run. Newly materialized candidates can be
// added so later rows of the same file match against them.
type Index struct {
	byEmail map[string]*recmodel.Candidate
	byName  map[string][]*recmodel.Candidate
}

// NewIndex builds a matching index over the recruitment's existing candidates.
func NewIndex(candidates []recmodel.Candidate) *Index {
	idx := &Index{
		byEmail: make(map[string]*recmodel.Candidate, len(candidates)),
		byName:  make(map[string][]*recmodel.Candidate, len(candidates)),
	}
	for i := range candidates {
		idx.Add(&candidates[i])
	}
	return idx
}

// Add registers one candidate in the index. Emails are unique within a
// recruitment, so the email bucket holds at most one candidate per key.
func (idx *Index) Add(candidate *recmodel.Candidate) {
	if candidate.Email != nil && *candidate.Email != "" {
		idx.byEmail[strings.ToLower(*candidate.Email)] = candidate
	}
	if key := Normalize(candidate.FullName); key != "" {
		idx.byName[key] = append(idx.byName[key], candidate)
	}
}

// MatchRow matches one imported row against the index. Email equality takes
// precedence over name matching: email is the durable identity key for a
// candidate within a recruitment, so a row carrying an unknown email is a new
// candidate even when its name collides with existing ones.
func (idx *Index) MatchRow(email, fullName string) RowVerdict {
	if email != "" {
		if candidate, ok := idx.byEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
			return RowVerdict{Kind: RowMatchByEmail, Candidate: candidate}
		}
		return RowVerdict{Kind: RowMatchNone}
	}

	bucket := idx.byName[Normalize(fullName)]
	switch len(bucket) {
	case 0:
		return RowVerdict{Kind: RowMatchNone}
	case 1:
		return RowVerdict{Kind: RowMatchByName, Candidate: bucket[0]}
	default:
		return RowVerdict{Kind: RowMatchAmbiguous, Candidate: bucket[0]}
	}
}

// MatchDocument matches one extracted document name against the index.
// Exactly one candidate with that normalized name auto-matches; zero or
// several yield Unmatched. Ties are never broken heuristically.
func (idx *Index) MatchDocument(candidateName string) (*recmodel.Candidate, importmodel.DocumentMatchStatus) {
	bucket := idx.byName[Normalize(candidateName)]
	if len(bucket) == 1 {
		return bucket[0], importmodel.DocumentMatchStatusAutoMatched
	}
	return nil, importmodel.DocumentMatchStatusUnmatched
}

// MatchDocuments produces a verdict per extracted document name. Verdicts are
// deterministic and order-independent: the verdict for one document never
// depends on the other documents in the batch.
func MatchDocuments(names []string, candidates []recmodel.Candidate) []DocumentVerdict {
	idx := NewIndex(candidates)
	verdicts := make([]DocumentVerdict, len(names))
	for i, name := range names {
		candidate, status := idx.MatchDocument(name)
		verdicts[i] = DocumentVerdict{Index: i, Status: status}
		if candidate != nil {
			id := candidate.ID
			verdicts[i].MatchedCandidateID = &id
		}
	}
	return verdicts
}
