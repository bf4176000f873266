package tables

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tsawler/docstruct/model"
)

// MergeMethod is recorded in the provenance of tables merged by the engine
const MergeMethod = "rule_based"

// ErrNotATable is returned when a candidate names a block that is not a table
var ErrNotATable = errors.New("not a table")

// Apply merges tables until no candidate exceeds the threshold. Each
// iteration applies the first mergeable candidate in evaluation order and
// re-analyses the document, so chains of three or more fragments collapse
// left-to-right, top-to-bottom. It returns the applied candidates.
//
// Merged-away tables are marked ignored and recorded in the surviving
// table's merge provenance, so a second Apply performs no merges.
func (e *Engine) Apply(doc *model.Document) ([]model.MergeCandidate, error) {
	var applied []model.MergeCandidate
	limit := len(doc.BlocksOfType(model.TypeTable))
	for range limit {
		next, ok := firstMergeable(e.Analyze(doc))
		if !ok {
			break
		}
		if err := e.Merge(doc, next); err != nil {
			return applied, err
		}
		e.logger.Info("merged tables",
			"table_a", next.TableA.String(),
			"table_b", next.TableB.String(),
			"merge_type", string(next.MergeType),
			"confidence", next.Confidence)
		applied = append(applied, next)
	}
	return applied, nil
}

func firstMergeable(candidates []model.MergeCandidate) (model.MergeCandidate, bool) {
	for _, c := range candidates {
		if c.ShouldMerge {
			return c, true
		}
	}
	return model.MergeCandidate{}, false
}

// Merge folds table B of the candidate into table A. A keeps its id and
// gains copies of B's cells appended in row (or column) order. B is marked
// ignored but stays addressable.
func (e *Engine) Merge(doc *model.Document, c model.MergeCandidate) error {
	a, err := lookupTable(doc, c.TableA)
	if err != nil {
		return err
	}
	b, err := lookupTable(doc, c.TableB)
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("merge %s with itself", a.ID)
	}

	ga, gb := NewGrid(doc, a), NewGrid(doc, b)

	var copies []*model.TableCell
	switch c.MergeType {
	case model.MergeHorizontal:
		colOffset := ga.ColCount()
		if b.BBox().X0 < a.BBox().X0 {
			// B is on the left: shift A's own cells right instead.
			for _, cell := range ga.Cells {
				cell.Col += gb.ColCount()
			}
			colOffset = 0
		}
		for i, cell := range gb.Cells {
			nc, err := copyCell(doc, a.ID.Page, cell, gb.Texts[i])
			if err != nil {
				return err
			}
			nc.Col += colOffset
			copies = append(copies, nc)
		}

	default:
		rowOffset := ga.RowCount()
		skip := e.repeatsHeader(ga, gb)
		if skip {
			rowOffset--
		}
		for i, cell := range gb.Cells {
			if skip && cell.Row == 0 {
				continue
			}
			nc, err := copyCell(doc, a.ID.Page, cell, gb.Texts[i])
			if err != nil {
				return err
			}
			nc.Row += rowOffset
			copies = append(copies, nc)
		}
	}

	originals := provenance(a)
	originals = append(originals, provenance(b)...)

	confidence := c.Confidence
	if a.MergeInfo != nil {
		confidence = math.Min(confidence, a.MergeInfo.MergeConfidence)
	}

	for _, nc := range copies {
		a.AddChild(nc.ID)
	}
	sortCells(doc, a)

	if c.MergeType != model.MergeAcrossPages {
		a.Polygon = a.Polygon.Union(b.Polygon)
	}
	a.MergeInfo = &model.MergeInfo{
		MergeType:       c.MergeType,
		MergeMethod:     MergeMethod,
		MergeConfidence: confidence,
		OriginalTables:  originals,
		OriginalCount:   len(originals),
	}
	b.IgnoreForOutput = true
	return nil
}

// repeatsHeader reports whether b starts with a header row that repeats
// a's first row.
func (e *Engine) repeatsHeader(a, b *Grid) bool {
	if !b.HasHeaderRow() || a.ColCount() != b.ColCount() || b.RowCount() < 1 {
		return false
	}
	return headerSimilarity(a.HeaderTexts(), b.HeaderTexts(), e.config.HeaderMatchThreshold) >= 0.9
}

func lookupTable(doc *model.Document, id model.BlockID) (*model.Table, error) {
	blk, ok := doc.Block(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDanglingReference, id)
	}
	t, ok := blk.(*model.Table)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotATable)
	}
	return t, nil
}

// provenance returns the fragments a table stands for: its recorded
// originals when already merged, otherwise itself.
func provenance(t *model.Table) []model.OriginalTable {
	if t.MergeInfo != nil && len(t.MergeInfo.OriginalTables) > 0 {
		out := make([]model.OriginalTable, len(t.MergeInfo.OriginalTables))
		copy(out, t.MergeInfo.OriginalTables)
		return out
	}
	return []model.OriginalTable{{
		ID:   t.ID,
		Page: t.ID.Page,
		BBox: t.BBox().Slice(),
	}}
}

// copyCell creates a new cell on page with the content of src. The copy
// holds the cell text directly rather than duplicating src's line blocks.
func copyCell(doc *model.Document, page int, src *model.TableCell, text string) (*model.TableCell, error) {
	blk, err := doc.NewBlock(page, model.TypeTableCell, src.Polygon.Clone())
	if err != nil {
		return nil, err
	}
	nc := blk.(*model.TableCell)
	nc.Row, nc.Col = src.Row, src.Col
	nc.RowSpan, nc.ColSpan = span(src.RowSpan), span(src.ColSpan)
	nc.IsHeader, nc.Bold = src.IsHeader, src.Bold
	nc.Text = text
	nc.HTML = src.HTML
	return nc, nil
}

// sortCells orders a table's cells by (row, col), keeping any non-cell
// children first in their existing order.
func sortCells(doc *model.Document, t *model.Table) {
	var others []model.BlockID
	var cells []*model.TableCell
	for _, id := range t.Structure {
		blk, ok := doc.Block(id)
		if cell, isCell := blk.(*model.TableCell); ok && isCell {
			cells = append(cells, cell)
			continue
		}
		others = append(others, id)
	}
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	structure := make([]model.BlockID, 0, len(t.Structure))
	structure = append(structure, others...)
	for _, cell := range cells {
		structure = append(structure, cell.ID)
	}
	t.Structure = structure
}
