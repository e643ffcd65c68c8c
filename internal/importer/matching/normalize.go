// Package matching implements the fuzzy name matching used to reconcile
// imported rows and split CV documents against existing candidates.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining diacritical marks, and
// recomposes to NFC.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a person's name to its canonical comparable form:
// trimmed, case-folded, diacritic-free, with runs of whitespace collapsed to
// a single space. Empty or whitespace-only input normalizes to "".
func Normalize(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		// Transform failures leave the input untouched; fall back to the raw
		// name so comparison still works on case and whitespace.
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}
