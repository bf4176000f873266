package tables

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/tsawler/docstruct/model"
)

// Grid is a row/column view over the cells of a table block
type Grid struct {
	Table *model.Table

	// Cells ordered by (row, col)
	Cells []*model.TableCell

	// Texts holds the plain text of each cell, parallel to Cells
	Texts []string

	rows, cols int

	// slots[r][c] is the index into Cells of the cell covering (r, c), or -1
	slots [][]int
}

// NewGrid builds the grid of a table. Children that are not table cells
// are ignored, as are dangling references.
func NewGrid(doc *model.Document, table *model.Table) *Grid {
	g := &Grid{Table: table}

	for _, id := range table.Structure {
		b, ok := doc.Block(id)
		if !ok {
			continue
		}
		cell, ok := b.(*model.TableCell)
		if !ok {
			continue
		}
		g.Cells = append(g.Cells, cell)
	}

	sort.SliceStable(g.Cells, func(i, j int) bool {
		if g.Cells[i].Row != g.Cells[j].Row {
			return g.Cells[i].Row < g.Cells[j].Row
		}
		return g.Cells[i].Col < g.Cells[j].Col
	})

	g.Texts = make([]string, len(g.Cells))
	for i, cell := range g.Cells {
		g.Texts[i] = strings.TrimSpace(doc.Text(cell))
		g.rows = max(g.rows, cell.Row+span(cell.RowSpan))
		g.cols = max(g.cols, cell.Col+span(cell.ColSpan))
	}

	g.slots = make([][]int, g.rows)
	for r := range g.slots {
		g.slots[r] = make([]int, g.cols)
		for c := range g.slots[r] {
			g.slots[r][c] = -1
		}
	}
	for i, cell := range g.Cells {
		if cell.Row < 0 || cell.Col < 0 {
			continue
		}
		for r := cell.Row; r < cell.Row+span(cell.RowSpan); r++ {
			for c := cell.Col; c < cell.Col+span(cell.ColSpan); c++ {
				if g.slots[r][c] < 0 {
					g.slots[r][c] = i
				}
			}
		}
	}
	return g
}

func span(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// RowCount returns the number of grid rows
func (g *Grid) RowCount() int { return g.rows }

// ColCount returns the number of grid columns
func (g *Grid) ColCount() int { return g.cols }

// CellCount returns the number of cell blocks
func (g *Grid) CellCount() int { return len(g.Cells) }

// IsEmpty reports whether the table has no rows
func (g *Grid) IsEmpty() bool { return g.rows == 0 }

// At returns the cell covering (row, col) and its text
func (g *Grid) At(row, col int) (*model.TableCell, string, bool) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil, "", false
	}
	i := g.slots[row][col]
	if i < 0 {
		return nil, "", false
	}
	return g.Cells[i], g.Texts[i], true
}

// Row returns the cells anchored in a row, in column order
func (g *Grid) Row(row int) []*model.TableCell {
	var out []*model.TableCell
	for _, cell := range g.Cells {
		if cell.Row == row {
			out = append(out, cell)
		}
	}
	return out
}

// RowWidths returns, per row, the number of occupied slots
func (g *Grid) RowWidths() []float64 {
	widths := make([]float64, g.rows)
	for r := range g.slots {
		for _, i := range g.slots[r] {
			if i >= 0 {
				widths[r]++
			}
		}
	}
	return widths
}

// ColHeights returns, per column, the number of occupied slots
func (g *Grid) ColHeights() []float64 {
	heights := make([]float64, g.cols)
	for r := range g.slots {
		for c, i := range g.slots[r] {
			if i >= 0 {
				heights[c]++
			}
		}
	}
	return heights
}

// FilledSlots counts the slots covered by a cell with non-empty text
func (g *Grid) FilledSlots() int {
	n := 0
	for r := range g.slots {
		for _, i := range g.slots[r] {
			if i >= 0 && g.Texts[i] != "" {
				n++
			}
		}
	}
	return n
}

// HasHeaderRow reports whether the first row is styled apart from the
// body: every first-row cell is flagged as a header or bold, and the body
// rows are not styled the same way.
func (g *Grid) HasHeaderRow() bool {
	if g.rows < 1 {
		return false
	}
	first := g.Row(0)
	if len(first) == 0 {
		return false
	}
	allHeader, allBold := true, true
	for _, cell := range first {
		allHeader = allHeader && cell.IsHeader
		allBold = allBold && cell.Bold
	}
	if allHeader {
		return true
	}
	if !allBold || g.rows < 2 {
		return allBold
	}
	for _, cell := range g.Cells {
		if cell.Row > 0 && !cell.Bold {
			return true
		}
	}
	return false
}

// HasHeaderColumn reports whether every cell of the first column is
// flagged as a header while some body cell is not.
func (g *Grid) HasHeaderColumn() bool {
	if g.cols < 2 || g.rows < 2 {
		return false
	}
	bodyPlain := false
	for _, cell := range g.Cells {
		if cell.Col == 0 && !(cell.IsHeader || cell.Bold) {
			return false
		}
		if cell.Col > 0 && cell.Row > 0 && !cell.IsHeader && !cell.Bold {
			bodyPlain = true
		}
	}
	return bodyPlain
}

// HasTextualHeader reports whether the first row is entirely non-numeric
// while the body contains numeric cells, a positional header cue used when
// no styling is available.
func (g *Grid) HasTextualHeader() bool {
	if g.rows < 2 {
		return false
	}
	first := g.Row(0)
	if len(first) == 0 {
		return false
	}
	for _, cell := range first {
		if t := g.text(cell); t == "" || isNumeric(t) {
			return false
		}
	}
	for i, cell := range g.Cells {
		if cell.Row > 0 && isNumeric(g.Texts[i]) {
			return true
		}
	}
	return false
}

// HeaderTexts returns the first-row text per column. Columns covered by a
// spanning header repeat its text.
func (g *Grid) HeaderTexts() []string {
	if g.rows < 1 {
		return nil
	}
	out := make([]string, g.cols)
	for c := 0; c < g.cols; c++ {
		if _, text, ok := g.At(0, c); ok {
			out[c] = text
		}
	}
	return out
}

// RowHeight returns the mean height of single-row cells with a usable
// polygon, falling back to the table height divided by the row count.
func (g *Grid) RowHeight() float64 {
	var heights []float64
	for _, cell := range g.Cells {
		if span(cell.RowSpan) != 1 {
			continue
		}
		if b := cell.BBox(); b.IsValid() {
			heights = append(heights, b.Height())
		}
	}
	if len(heights) > 0 {
		return mean(heights)
	}
	if g.rows == 0 {
		return 0
	}
	return g.Table.BBox().Height() / float64(g.rows)
}

func (g *Grid) text(cell *model.TableCell) string {
	for i, c := range g.Cells {
		if c == cell {
			return g.Texts[i]
		}
	}
	return ""
}

func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune(" .,-+%$€£()", r):
		default:
			return false
		}
	}
	return digits > 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation calculates CV (std dev / mean)
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	v := 0.0
	for _, val := range values {
		diff := val - m
		v += diff * diff
	}
	v /= float64(len(values))
	return math.Sqrt(v) / m
}
