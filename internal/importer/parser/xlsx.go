package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Header labels are matched case-insensitively after trimming, so exports
// from different HR tools map onto the same columns.
var headerAliases = map[string]string{
	"full name":        "fullName",
	"name":             "fullName",
	"candidate":        "fullName",
	"email":            "email",
	"email address":    "email",
	"phone":            "phoneNumber",
	"phone number":     "phoneNumber",
	"mobile":           "phoneNumber",
	"location":         "location",
	"city":             "location",
	"date applied":     "dateApplied",
	"applied":          "dateApplied",
	"application date": "dateApplied",
}

// dateLayouts are tried in order when a cell holds a textual date.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"01-02-2006",
	"2 Jan 2006",
	time.RFC3339,
}

// XLSXParser reads candidate rows from the first sheet of an xlsx workbook.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// ParseRows reads the workbook's first sheet. The first non-empty row is the
// header; every following row becomes a ParsedRow. Rows that cannot be read
// cleanly are returned with ParseError set rather than dropped.
func (p *XLSXParser) ParseRows(ctx context.Context, r io.Reader) ([]ParsedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	columns, headerIdx, err := mapHeader(rows)
	if err != nil {
		return nil, err
	}

	var parsed []ParsedRow
	for i := headerIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells := rows[i]
		if isEmptyRow(cells) {
			continue
		}
		parsed = append(parsed, parseRow(len(parsed)+1, cells, columns))
	}
	return parsed, nil
}

// mapHeader locates the header row and maps each recognized column label to
// its cell index.
func mapHeader(rows [][]string) (map[string]int, int, error) {
	for i, cells := range rows {
		if isEmptyRow(cells) {
			continue
		}
		columns := make(map[string]int)
		for col, cell := range cells {
			label := strings.ToLower(strings.TrimSpace(cell))
			if field, ok := headerAliases[label]; ok {
				if _, seen := columns[field]; !seen {
					columns[field] = col
				}
			}
		}
		if _, ok := columns["fullName"]; !ok {
			return nil, 0, fmt.Errorf("header row is missing a name column")
		}
		return columns, i, nil
	}
	return nil, 0, fmt.Errorf("spreadsheet is empty")
}

func parseRow(rowNumber int, cells []string, columns map[string]int) ParsedRow {
	row := ParsedRow{
		RowNumber:   rowNumber,
		FullName:    cellAt(cells, columns, "fullName"),
		Email:       cellAt(cells, columns, "email"),
		PhoneNumber: cellAt(cells, columns, "phoneNumber"),
		Location:    cellAt(cells, columns, "location"),
	}

	if raw := cellAt(cells, columns, "dateApplied"); raw != "" {
		applied, err := parseDate(raw)
		if err != nil {
			row.ParseError = fmt.Sprintf("unparsable date applied %q", raw)
		} else {
			row.DateApplied = &applied
		}
	}
	if row.FullName == "" {
		row.ParseError = "missing full name"
	}
	return row
}

func cellAt(cells []string, columns map[string]int, field string) string {
	col, ok := columns[field]
	if !ok || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	// Excel stores dates as day counts since 1899-12-30; numeric cells come
	// through as the raw serial when the sheet has no date format applied.
	if serial := parseFloat(raw); serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseFloat(raw string) float64 {
	var f float64
	if _, err := fmt.Sscanf(raw, "%f", &f); err != nil {
		return 0
	}
	return f
}

func isEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
