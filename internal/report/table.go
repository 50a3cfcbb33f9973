// Package report renders conversion summaries and run history as text.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

type column struct {
	width int
	right bool
}

// formatTable aligns headers and rows into lines. Trailing empty cells are
// dropped and the last printed cell is only padded when right-aligned.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	cols := measureColumns(headers, rows)
	if len(cols) == 0 {
		return nil
	}
	for i := range cols {
		cols[i].right = rightAlignCols[i]
	}

	all := rows
	if len(headers) > 0 {
		all = append([][]string{headers}, rows...)
	}
	lines := make([]string, 0, len(all))
	for _, row := range all {
		lines = append(lines, renderRow(row, cols))
	}
	return lines
}

func measureColumns(headers []string, rows [][]string) []column {
	var cols []column
	grow := func(row []string) {
		for i, cell := range row {
			if i == len(cols) {
				cols = append(cols, column{})
			}
			cols[i].width = max(cols[i].width, runewidth.StringWidth(cell))
		}
	}
	grow(headers)
	for _, row := range rows {
		grow(row)
	}
	return cols
}

func renderRow(row []string, cols []column) string {
	last := len(row) - 1
	for last >= 0 && row[last] == "" {
		last--
	}
	cells := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		switch col := cols[i]; {
		case col.right:
			cells = append(cells, runewidth.FillLeft(row[i], col.width))
		case i == last:
			cells = append(cells, row[i])
		default:
			cells = append(cells, runewidth.FillRight(row[i], col.width))
		}
	}
	return strings.Join(cells, columnGap)
}

// Truncate shortens value to at most width display cells.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(value, width, "…")
}
