package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// tocEntryPattern matches one table of contents line: a candidate name,
// optional dot leaders, and a page number or page range at the end.
// "Alice Johnson (WD-10021) ........ 3-5" and "Bruno Müller 12" both match.
var tocEntryPattern = regexp.MustCompile(`^(.+?)[\s.]+(\d+)(?:\s*[-–]\s*(\d+))?$`)

// workdayIDPattern captures a trailing parenthesized requisition system ID.
var workdayIDPattern = regexp.MustCompile(`\(([A-Za-z0-9_-]+)\)\s*$`)

// PDFBundleSplitter cuts a scanned CV bundle into per-candidate documents
// using the bundle's own table of contents as the cutting guide.
type PDFBundleSplitter struct{}

func NewPDFBundleSplitter() *PDFBundleSplitter {
	return &PDFBundleSplitter{}
}

type tocEntry struct {
	candidateName      string
	workdayCandidateID *string
	pageFrom           int
	pageTo             int
}

// Split extracts the table of contents, then trims each entry's page range
// into its own PDF. Per-entry failures are recorded on the entry; only an
// unusable bundle or an absent table of contents fails the whole split.
func (s *PDFBundleSplitter) Split(ctx context.Context, bundle []byte, progress ProgressFunc) ([]SplitEntry, error) {
	res, err := docconv.Convert(bytes.NewReader(bundle), "application/pdf", true)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from bundle: %w", err)
	}

	pageCount, err := api.PageCount(bytes.NewReader(bundle), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count bundle pages: %w", err)
	}

	toc := parseTableOfContents(res.Body)
	if len(toc) == 0 {
		return nil, ErrNoTableOfContents
	}

	if progress != nil {
		progress(len(toc), 0, 0)
	}

	entries := make([]SplitEntry, 0, len(toc))
	failed := 0
	for _, item := range toc {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := SplitEntry{
			CandidateName:      item.candidateName,
			WorkdayCandidateID: item.workdayCandidateID,
			PageFrom:           item.pageFrom,
			PageTo:             item.pageTo,
		}
		if item.pageTo > pageCount {
			entry.Err = fmt.Errorf("page range %d-%d exceeds bundle length %d", item.pageFrom, item.pageTo, pageCount)
		} else {
			entry.Data, entry.Err = trimPages(bundle, item.pageFrom, item.pageTo)
		}
		if entry.Err != nil {
			entry.Data = nil
			failed++
		}

		entries = append(entries, entry)
		if progress != nil {
			progress(len(toc), len(entries), failed)
		}
	}
	return entries, nil
}

// parseTableOfContents scans the extracted text for entry lines. Lines whose
// name part carries no letters are skipped so bare page footers do not parse
// as entries.
func parseTableOfContents(text string) []tocEntry {
	var toc []tocEntry
	for _, line := range strings.Split(text, "\n") {
		m := tocEntryPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		name := strings.Trim(m[1], " .\t")
		var workdayID *string
		if idMatch := workdayIDPattern.FindStringSubmatch(name); idMatch != nil {
			id := idMatch[1]
			workdayID = &id
			name = strings.Trim(name[:len(name)-len(idMatch[0])], " .\t")
		}
		if !hasLetter(name) {
			continue
		}

		from, _ := strconv.Atoi(m[2])
		to := from
		if m[3] != "" {
			to, _ = strconv.Atoi(m[3])
		}
		if from < 1 || to < from {
			continue
		}

		toc = append(toc, tocEntry{
			candidateName:      name,
			workdayCandidateID: workdayID,
			pageFrom:           from,
			pageTo:             to,
		})
	}
	return toc
}

func trimPages(bundle []byte, from, to int) ([]byte, error) {
	var out bytes.Buffer
	selection := []string{fmt.Sprintf("%d-%d", from, to)}
	if err := api.Trim(bytes.NewReader(bundle), &out, selection, nil); err != nil {
		return nil, fmt.Errorf("failed to trim pages %d-%d: %w", from, to, err)
	}
	return out.Bytes(), nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
