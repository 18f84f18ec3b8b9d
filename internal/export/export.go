// Package export renders the process archive as an xlsx safety plan.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultSheetName  = "SafetyPlan"
	DefaultFilePrefix = "시공절차_안전계획서"
)

// Header is the fixed column order of the export. Reflected items are not
// exported.
var Header = []string{"순번", "시공 절차 항목", "단위작업명", "잠재위험", "안전대책"}

var columnWidths = []float64{8, 28, 30, 45, 55}

// Writer writes the archive as a single-sheet workbook.
type Writer struct {
	sheetName  string
	filePrefix string
}

// Option configures a Writer.
type Option func(*Writer)

// WithSheetName overrides the worksheet name.
func WithSheetName(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.sheetName = name
		}
	}
}

// WithFilePrefix overrides the download filename prefix.
func WithFilePrefix(prefix string) Option {
	return func(w *Writer) {
		if prefix != "" {
			w.filePrefix = prefix
		}
	}
}

// New creates a Writer with the default sheet name and filename prefix.
func New(opts ...Option) *Writer {
	w := &Writer{sheetName: DefaultSheetName, filePrefix: DefaultFilePrefix}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Line is one output row of the safety plan.
type Line struct {
	Sequence        int
	Title           string
	UnitTask        string
	PotentialHazard string
	SafetyMeasure   string
}

func (l Line) cells() []any {
	return []any{l.Sequence, l.Title, l.UnitTask, l.PotentialHazard, l.SafetyMeasure}
}

// Lines flattens the archive into output rows: one per saved row, grouped
// by process in archive order, each prefixed with the 1-based process
// sequence and title.
func Lines(processes []archive.Process) []Line {
	var lines []Line
	for i, proc := range processes {
		for _, row := range proc.Rows {
			lines = append(lines, Line{
				Sequence:        i + 1,
				Title:           proc.Title,
				UnitTask:        row.UnitTask,
				PotentialHazard: row.PotentialHazard,
				SafetyMeasure:   row.SafetyMeasure,
			})
		}
	}
	return lines
}

// Filename returns "<prefix>_<YYYY-MM-DD>.xlsx" for the given day.
func (w *Writer) Filename(now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", w.filePrefix, now.Format("2006-01-02"))
}

// Write renders the workbook to out.
func (w *Writer) Write(out io.Writer, processes []archive.Process) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.sheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("failed to create body style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	lines := Lines(processes)
	for i, line := range lines {
		if err := setRow(f, sheet, i+2, line.cells()); err != nil {
			return err
		}
	}
	if len(lines) > 0 {
		end := fmt.Sprintf("%s%d", lastCol, len(lines)+1)
		if err := f.SetCellStyle(sheet, "A2", end, bodyStyle); err != nil {
			return fmt.Errorf("failed to style rows: %w", err)
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "right", "bottom"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "000000", Style: 1}
	}
	return borders
}
