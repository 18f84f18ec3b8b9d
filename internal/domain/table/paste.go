package table

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParsePaste converts tab-separated clipboard text into rows. It returns false
// when the text should not be intercepted: empty input, or a first line with
// no tab (a plain single-cell paste).
func ParsePaste(text string) ([]Row, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	lines := lineBreak.Split(text, -1)
	if !strings.Contains(lines[0], "\t") {
		return nil, false
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		cols := strings.Split(line, "\t")
		rows = append(rows, Row{
			ID:              uuid.NewString(),
			UnitTask:        column(cols, 0),
			PotentialHazard: column(cols, 1),
			SafetyMeasure:   column(cols, 2),
			ReflectedItems:  column(cols, 3),
		})
	}
	return rows, true
}

// Paste imports clipboard text. A pristine table is replaced by the imported
// rows; any other table gets them appended. The boolean reports whether the
// paste was intercepted; when false the table is returned unchanged.
func (t Table) Paste(text string) (Table, bool) {
	imported, ok := ParsePaste(text)
	if !ok {
		return t, false
	}
	if IsPristine(t) {
		return Table{rows: imported}, true
	}
	out := make([]Row, 0, len(t.rows)+len(imported))
	out = append(out, t.rows...)
	out = append(out, imported...)
	return Table{rows: out}, true
}

func column(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
