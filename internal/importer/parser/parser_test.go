package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTableOfContents(t *testing.T) {
	text := `Candidate CV Bundle

Table of Contents
Alice Johnson (WD-10021) ................ 3-5
Bruno Müller ............................ 6
José Núñez (WD-10044).................... 7-12

14
- 2 -
`

	toc := parseTableOfContents(text)
	assert.Len(t, toc, 3)

	assert.Equal(t, "Alice Johnson", toc[0].candidateName)
	assert.Equal(t, "WD-10021", *toc[0].workdayCandidateID)
	assert.Equal(t, 3, toc[0].pageFrom)
	assert.Equal(t, 5, toc[0].pageTo)

	assert.Equal(t, "Bruno Müller", toc[1].candidateName)
	assert.Nil(t, toc[1].workdayCandidateID)
	assert.Equal(t, 6, toc[1].pageFrom)
	assert.Equal(t, 6, toc[1].pageTo)

	assert.Equal(t, "José Núñez", toc[2].candidateName)
	assert.Equal(t, "WD-10044", *toc[2].workdayCandidateID)
	assert.Equal(t, 7, toc[2].pageFrom)
	assert.Equal(t, 12, toc[2].pageTo)
}

func TestParseTableOfContents_NoEntries(t *testing.T) {
	assert.Empty(t, parseTableOfContents("just some body text\nwith no entries"))
	assert.Empty(t, parseTableOfContents(""))
}

func TestParseTableOfContents_InvalidRanges(t *testing.T) {
	toc := parseTableOfContents("Backwards Range ..... 9-4\nZero Page ..... 0")
	assert.Empty(t, toc)
}

func TestMapHeader(t *testing.T) {
	rows := [][]string{
		{"", "", ""},
		{"Full Name", "Email Address", "Phone", "City", "Date Applied"},
		{"Alice Johnson", "alice@example.com", "0412000111", "Sydney", "2026-03-01"},
	}

	columns, headerIdx, err := mapHeader(rows)
	assert.NoError(t, err)
	assert.Equal(t, 1, headerIdx)
	assert.Equal(t, 0, columns["fullName"])
	assert.Equal(t, 1, columns["email"])
	assert.Equal(t, 2, columns["phoneNumber"])
	assert.Equal(t, 3, columns["location"])
	assert.Equal(t, 4, columns["dateApplied"])
}

func TestMapHeader_MissingNameColumn(t *testing.T) {
	_, _, err := mapHeader([][]string{{"Email", "Phone"}})
	assert.Error(t, err)
}

func TestParseRow(t *testing.T) {
	columns := map[string]int{"fullName": 0, "email": 1, "dateApplied": 2}

	t.Run("Clean Row", func(t *testing.T) {
		row := parseRow(1, []string{" Alice Johnson ", "alice@example.com", "2026-03-01"}, columns)
		assert.Equal(t, "Alice Johnson", row.FullName)
		assert.Equal(t, "alice@example.com", row.Email)
		assert.Empty(t, row.ParseError)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *row.DateApplied)
	})

	t.Run("Missing Name", func(t *testing.T) {
		row := parseRow(2, []string{"", "nobody@example.com", ""}, columns)
		assert.Equal(t, "missing full name", row.ParseError)
	})

	t.Run("Bad Date Is Row Level", func(t *testing.T) {
		row := parseRow(3, []string{"Bruno Müller", "", "soon"}, columns)
		assert.Nil(t, row.DateApplied)
		assert.NotEmpty(t, row.ParseError)
	})

	t.Run("Short Row", func(t *testing.T) {
		row := parseRow(4, []string{"Chandra Patel"}, columns)
		assert.Equal(t, "Chandra Patel", row.FullName)
		assert.Empty(t, row.Email)
		assert.Empty(t, row.ParseError)
	})
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2026-03-01", "01/03/2026", "1 Mar 2026"} {
		parsed, err := parseDate(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, time.March, parsed.Month(), raw)
	}

	_, err := parseDate("not a date")
	assert.Error(t, err)
}
