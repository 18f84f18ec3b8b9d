// Package table holds the editable risk-assessment table: an ordered,
// immutable sequence of rows with at least one entry.
package table

import (
	"strings"

	"github.com/google/uuid"
)

// Table is an ordered sequence of rows. Every operation returns a new Table
// and leaves the receiver's backing array untouched, so a published Table can
// be shared without copying.
type Table struct {
	rows []Row
}

// New returns the pristine table: a single blank row.
func New() Table {
	return Table{rows: []Row{blankRow()}}
}

// FromRows builds a table from existing rows, copying them. Rows without an
// id get a fresh one, and an empty input yields the pristine table.
func FromRows(rows []Row) Table {
	if len(rows) == 0 {
		return New()
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return Table{rows: out}
}

// Rows returns a copy of the rows in order.
func (t Table) Rows() []Row {
	if len(t.rows) == 0 {
		return []Row{}
	}
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.rows)
}

// AddRow appends a blank row with a fresh id.
func (t Table) AddRow() Table {
	out := make([]Row, 0, len(t.rows)+1)
	out = append(out, t.rows...)
	out = append(out, blankRow())
	return Table{rows: out}
}

// RemoveRow drops the row with the given id. The last remaining row is never
// removed; unknown ids are ignored.
func (t Table) RemoveRow(id string) Table {
	if len(t.rows) <= 1 {
		return t
	}
	out := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		if row.ID != id {
			out = append(out, row)
		}
	}
	if len(out) == len(t.rows) {
		return t
	}
	return Table{rows: out}
}

// MoveRow swaps the row at index with its neighbour in the given direction.
// Moves past either end are ignored.
func (t Table) MoveRow(index int, dir Direction) Table {
	target, ok := dir.Target(index, len(t.rows))
	if !ok {
		return t
	}
	out := t.Rows()
	out[index], out[target] = out[target], out[index]
	return Table{rows: out}
}

// UpdateField replaces one text field of the row matching id.
func (t Table) UpdateField(id string, field Field, value string) Table {
	for i, row := range t.rows {
		if row.ID != id {
			continue
		}
		if !row.set(field, value) {
			return t
		}
		out := t.Rows()
		out[i] = row
		return Table{rows: out}
	}
	return t
}

// Eligible returns the rows whose unit task is not blank, in order.
func (t Table) Eligible() []Row {
	return Eligible(t.rows)
}

// IsPristine reports whether t is still the default single blank row: exactly
// one row whose unit task and potential hazard are both empty. The other
// fields are not consulted, so a row holding only a safety measure is still
// pristine.
func IsPristine(t Table) bool {
	return len(t.rows) == 1 && t.rows[0].UnitTask == "" && t.rows[0].PotentialHazard == ""
}

// Eligible filters rows down to those with a non-blank unit task.
func Eligible(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.UnitTask) != "" {
			out = append(out, row)
		}
	}
	return out
}

func (r *Row) set(field Field, value string) bool {
	switch field {
	case FieldUnitTask:
		r.UnitTask = value
	case FieldPotentialHazard:
		r.PotentialHazard = value
	case FieldSafetyMeasure:
		r.SafetyMeasure = value
	case FieldReflectedItems:
		r.ReflectedItems = value
	default:
		return false
	}
	return true
}

func blankRow() Row {
	return Row{ID: uuid.NewString()}
}
