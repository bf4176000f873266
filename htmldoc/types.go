// Package htmldoc turns HTML documents into raw page detections.
package htmldoc

import (
	"fmt"
	"strings"
)

// parsedElement represents a parsed element from the HTML document.
type parsedElement struct {
	Kind     elementKind
	Text     string
	Lines    []string   // For code blocks, one entry per source line
	Language string     // For code blocks
	Level    int        // For headings (1-6)
	Items    []listItem // For lists
	Ordered  bool       // For lists
	Table    *ParsedTable
	Src      string // For pictures
	Caption  string // For figures and tables with a caption
}

// elementKind represents the type of HTML element.
type elementKind int

const (
	elementParagraph elementKind = iota
	elementHeading
	elementList
	elementTable
	elementCode
	elementBlockquote
	elementPicture
	elementEquation
	elementPageHeader
	elementPageFooter
)

// FurnitureMode controls how navigation, headers, and footers are
// recognised as page furniture.
type FurnitureMode int

const (
	// FurnitureNone treats every element as body content.
	FurnitureNone FurnitureMode = iota

	// FurnitureExplicit recognises only semantic HTML5 elements and ARIA
	// roles: <nav>, <aside>, role="navigation", role="complementary", and
	// top-level <header>/<footer>.
	FurnitureExplicit

	// FurnitureStandard (default) adds common class/id patterns such as
	// navbar, menu, site-footer and sidebar.
	FurnitureStandard

	// FurnitureAggressive adds a link-density heuristic for menus without
	// semantic markup.
	FurnitureAggressive
)

var furnitureNames = []string{"none", "explicit", "standard", "aggressive"}

func (m FurnitureMode) String() string {
	if m >= 0 && int(m) < len(furnitureNames) {
		return furnitureNames[m]
	}
	return "unknown"
}

// ParseFurnitureMode resolves a mode name such as "standard"
func ParseFurnitureMode(name string) (FurnitureMode, error) {
	for i, n := range furnitureNames {
		if strings.EqualFold(n, name) {
			return FurnitureMode(i), nil
		}
	}
	return FurnitureNone, fmt.Errorf("unknown furniture mode %q", name)
}

// listItem represents an item in a list.
type listItem struct {
	Text  string
	Level int
}

// ParsedTable represents a table extracted from HTML.
type ParsedTable struct {
	Rows      [][]TableCell
	HasHeader bool
}

// TableCell represents a cell in an HTML table.
type TableCell struct {
	Text     string
	IsHeader bool
	RowSpan  int
	ColSpan  int
}

// PositionedCell is a table cell placed on the grid.
type PositionedCell struct {
	TableCell
	Row int
	Col int
}

// RowCount returns the number of grid rows, including rows reached only
// by a rowspan.
func (t *ParsedTable) RowCount() int {
	rows := 0
	for _, pc := range t.Positioned() {
		rows = max(rows, pc.Row+pc.RowSpan)
	}
	return rows
}

// ColCount returns the number of grid columns.
func (t *ParsedTable) ColCount() int {
	cols := 0
	for _, pc := range t.Positioned() {
		cols = max(cols, pc.Col+pc.ColSpan)
	}
	return cols
}

// Positioned assigns grid coordinates to every cell in row order. A cell
// takes the first column of its row not occupied by a span from above.
func (t *ParsedTable) Positioned() []PositionedCell {
	occupied := make(map[[2]int]bool)
	var out []PositionedCell
	for r, row := range t.Rows {
		col := 0
		for _, cell := range row {
			for occupied[[2]int{r, col}] {
				col++
			}
			cell.RowSpan = max(cell.RowSpan, 1)
			cell.ColSpan = max(cell.ColSpan, 1)
			for dr := 0; dr < cell.RowSpan; dr++ {
				for dc := 0; dc < cell.ColSpan; dc++ {
					occupied[[2]int{r + dr, col + dc}] = true
				}
			}
			out = append(out, PositionedCell{TableCell: cell, Row: r, Col: col})
			col += cell.ColSpan
		}
	}
	return out
}
