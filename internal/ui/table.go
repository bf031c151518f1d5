package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a simple ANSI-aware table printer
type Table struct {
	writer   io.Writer
	headers  []string
	rows     [][]string
	padding  int
	maxWidth int // 0 means unbounded
}

// NewTable creates a new table writing to w
func NewTable(w io.Writer) *Table {
	return &Table{
		writer:  w,
		padding: 2,
	}
}

// SetMaxWidth bounds the rendered line width, truncating the last column
// with an ellipsis when a row would otherwise overflow it. Pass 0 to
// disable bounding (the default).
func (t *Table) SetMaxWidth(w int) {
	t.maxWidth = w
}

// SetHeaders sets the table headers
func (t *Table) SetHeaders(headers ...string) {
	t.headers = headers
}

// AddRow adds a row to the table
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render prints the table
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	// Calculate column widths
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	colWidths := make([]int, numCols)

	// Check headers
	for i, h := range t.headers {
		w := VisibleLen(h)
		if w > colWidths[i] {
			colWidths[i] = w
		}
	}

	// Check rows
	for _, row := range t.rows {
		for i, col := range row {
			w := VisibleLen(col)
			if w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	if t.maxWidth > 0 && numCols > 0 {
		total := (numCols - 1) * t.padding
		for _, w := range colWidths {
			total += w
		}
		if over := total - t.maxWidth; over > 0 {
			last := numCols - 1
			colWidths[last] -= over
			if colWidths[last] < 3 {
				colWidths[last] = 3
			}
		}
	}

	// Print headers
	if len(t.headers) > 0 {
		t.printRow(t.headers, colWidths)
	}

	// Print rows
	for _, row := range t.rows {
		t.printRow(truncateLast(row, colWidths), colWidths)
	}
}

// truncateLast shortens row's last column to fit width[len(width)-1],
// appending an ellipsis, leaving shorter columns untouched.
func truncateLast(row []string, widths []int) []string {
	if len(row) == 0 {
		return row
	}
	last := len(row) - 1
	if last >= len(widths) {
		return row
	}
	limit := widths[last]
	if VisibleLen(row[last]) <= limit {
		return row
	}
	out := append([]string(nil), row...)
	runes := []rune(row[last])
	if limit <= 1 || len(runes) <= limit {
		return row
	}
	out[last] = string(runes[:limit-1]) + "…"
	return out
}

func (t *Table) printRow(row []string, widths []int) {
	for i, col := range row {
		// Calculate padding
		vLen := VisibleLen(col)
		pad := widths[i] - vLen

		fmt.Fprint(t.writer, col)

		// Add padding if not last column
		if i < len(widths)-1 {
			fmt.Fprint(t.writer, strings.Repeat(" ", pad+t.padding))
		}
	}
	fmt.Fprintln(t.writer)
}

// StripANSI removes ANSI escape codes from a string
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// VisibleLen returns the visible length of a string (excluding ANSI codes)
func VisibleLen(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}
