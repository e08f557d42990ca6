package table

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column describes how one column is laid out. MaxWidth of 0 leaves the
// column unbounded.
type Column struct {
	Align    Alignment
	MaxWidth int
}

const ellipsis = "…"

// Format returns the rows padded according to the widest entry in each
// column. Cells wider than their column's MaxWidth are truncated first.
// Trailing padding is trimmed from every line.
func Format(rows [][]string, columns []Column) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	cells := make([][]string, len(rows))
	widths := make([]int, colCount)
	for i, row := range rows {
		cells[i] = make([]string, colCount)
		for c := 0; c < colCount; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			if c < len(columns) && columns[c].MaxWidth > 0 {
				cell = ansi.Truncate(cell, columns[c].MaxWidth, ellipsis)
			}
			cells[i][c] = cell
			if w := ansi.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	out := make([]string, len(rows))
	for i, row := range cells {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteString("  ")
			}
			pad := widths[c] - ansi.StringWidth(cell)
			if c < len(columns) && columns[c].Align == AlignRight {
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
			}
		}
		out[i] = strings.TrimRight(b.String(), " ")
	}
	return out
}
