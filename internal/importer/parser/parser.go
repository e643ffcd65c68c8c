// Package parser defines the narrow contracts the import pipeline consumes
// file formats through, plus concrete adapters for xlsx spreadsheets and
// scanned PDF bundles.
package parser

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoTableOfContents indicates the PDF bundle carries no parsable table of
// contents, a total failure: nothing can be split without one.
var ErrNoTableOfContents = errors.New("no table of contents found in bundle")

// ParsedRow is one structured spreadsheet row. A row-level problem is carried
// in ParseError rather than aborting the batch.
type ParsedRow struct {
	RowNumber   int // 1-based source row number, header excluded
	FullName    string
	Email       string
	PhoneNumber string
	Location    string
	DateApplied *time.Time
	ParseError  string // Non-empty when the row could not be read cleanly
}

// SpreadsheetParser extracts candidate rows from an uploaded spreadsheet.
// A returned error means the file as a whole is unusable.
type SpreadsheetParser interface {
	ParseRows(ctx context.Context, r io.Reader) ([]ParsedRow, error)
}

// SplitEntry is one per-candidate document cut out of a bundle. Individual
// split failures set Err and leave Data nil; they never abort the batch.
type SplitEntry struct {
	CandidateName      string
	WorkdayCandidateID *string
	PageFrom           int
	PageTo             int
	Data               []byte
	Err                error
}

// ProgressFunc reports live split progress: entries total, entries done
// (successfully or not), and how many of those failed.
type ProgressFunc func(total, completed, failed int)

// BundleSplitter cuts a multi-candidate PDF bundle into per-candidate
// documents. A returned error (for example ErrNoTableOfContents) is a total
// failure and fails the whole import session.
type BundleSplitter interface {
	Split(ctx context.Context, bundle []byte, progress ProgressFunc) ([]SplitEntry, error)
}
