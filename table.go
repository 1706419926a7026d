package docnorm

import "strings"

// emptySheetMarker is emitted in place of a table when a grid has no rows.
const emptySheetMarker = "*Empty sheet*"

// gridPos addresses one cell of a grid, 0-based and relative to the grid's
// own origin.
type gridPos struct {
	row int
	col int
}

// renderMarkdownTable renders a grid of cell strings as a markdown table. The
// optional overlay concatenates image markdown onto the matching cell before
// escaping. The first row becomes the header; every emitted row is padded or
// truncated to exactly the header's column count. A grid with zero rows
// yields the empty-sheet marker instead of a table.
func renderMarkdownTable(grid [][]string, overlay map[gridPos]string) string {
	if len(grid) == 0 {
		return emptySheetMarker + "\n"
	}

	numCols := len(grid[0])

	cell := func(row, col int) string {
		var v string
		if col < len(grid[row]) {
			v = grid[row][col]
		}
		if snippet, ok := overlay[gridPos{row, col}]; ok {
			if v != "" {
				v += " " + snippet
			} else {
				v = snippet
			}
		}
		return escapeTableCell(v)
	}

	var b strings.Builder

	// Header row
	b.WriteString("|")
	for col := 0; col < numCols; col++ {
		b.WriteString(" " + cell(0, col) + " |")
	}
	b.WriteString("\n|")

	// Separator row, one --- per header column
	for col := 0; col < numCols; col++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	// Data rows, padded or truncated to the header width
	for row := 1; row < len(grid); row++ {
		b.WriteString("|")
		for col := 0; col < numCols; col++ {
			b.WriteString(" " + cell(row, col) + " |")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// escapeTableCell keeps a cell on a single table line: pipes are escaped and
// newlines replaced with an inline break.
func escapeTableCell(v string) string {
	v = strings.ReplaceAll(v, "|", `\|`)
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.ReplaceAll(v, "\n", "<br>")
	return v
}

// trimGrid computes the effective used range of a sparse row-major grid by
// trimming leading/trailing fully-empty rows and columns. A cell is empty iff
// its trimmed value is "". Returns the trimmed grid plus the (row, col)
// offset of its origin within the input, so absolute anchors can be
// translated. A fully empty input yields a nil grid.
func trimGrid(rows [][]string) ([][]string, int, int) {
	minRow, maxRow := -1, -1
	minCol, maxCol := -1, -1

	for r, row := range rows {
		for c, v := range row {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if minRow == -1 {
				minRow = r
			}
			maxRow = r
			if minCol == -1 || c < minCol {
				minCol = c
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}

	if minRow == -1 {
		return nil, 0, 0
	}

	grid := make([][]string, 0, maxRow-minRow+1)
	for r := minRow; r <= maxRow; r++ {
		cells := make([]string, maxCol-minCol+1)
		for c := minCol; c <= maxCol; c++ {
			if c < len(rows[r]) {
				// Trailing whitespace never survives into table cells.
				cells[c-minCol] = strings.TrimRight(rows[r][c], " \t")
			}
		}
		grid = append(grid, cells)
	}
	return grid, minRow, minCol
}
