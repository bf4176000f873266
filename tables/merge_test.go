package tables

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/docstruct/model"
)

// ============================================================================
// Test helpers
// ============================================================================

func newDoc(pages int) *model.Document {
	doc := model.NewDocument(nil)
	for i := 0; i < pages; i++ {
		doc.AddPage(model.NewPage(612, 792))
	}
	return doc
}

// addTable appends a table to the page with one cell per text, laid out on
// an even grid inside box. A non-nil header becomes row 0 flagged as header.
func addTable(t *testing.T, doc *model.Document, page int, box model.BBox, header []string, rows ...[]string) *model.Table {
	t.Helper()
	blk, err := doc.NewBlock(page, model.TypeTable, model.PolygonFromBBox(box))
	if err != nil {
		t.Fatalf("NewBlock(Table) failed: %v", err)
	}
	table := blk.(*model.Table)

	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	if len(all) > 0 {
		rh := box.Height() / float64(len(all))
		for r, row := range all {
			cw := box.Width() / float64(len(row))
			for c, text := range row {
				cellBox := model.BBox{
					X0: box.X0 + float64(c)*cw,
					Y0: box.Y0 + float64(r)*rh,
					X1: box.X0 + float64(c+1)*cw,
					Y1: box.Y0 + float64(r+1)*rh,
				}
				cb, err := doc.NewBlock(page, model.TypeTableCell, model.PolygonFromBBox(cellBox))
				if err != nil {
					t.Fatalf("NewBlock(TableCell) failed: %v", err)
				}
				cell := cb.(*model.TableCell)
				cell.Row, cell.Col, cell.Text = r, c, text
				cell.IsHeader = header != nil && r == 0
				table.AddChild(cell.ID)
			}
		}
	}
	doc.Page(page).Append(table.ID)
	return table
}

// addText appends a text-bearing block holding a single line and span.
func addText(t *testing.T, doc *model.Document, page int, bt model.BlockType, box model.BBox, text string) model.Block {
	t.Helper()
	poly := model.PolygonFromBBox(box)
	blk, err := doc.NewBlock(page, bt, poly)
	if err != nil {
		t.Fatalf("NewBlock(%s) failed: %v", bt, err)
	}
	line, _ := doc.NewBlock(page, model.TypeLine, poly)
	span, _ := doc.NewBlock(page, model.TypeSpan, poly)
	span.(*model.Span).Text = text
	line.Base().AddChild(span.Base().ID)
	blk.Base().AddChild(line.Base().ID)
	doc.Page(page).Append(blk.Base().ID)
	return blk
}

var header3 = []string{"Name", "Age", "City"}

func newEngine() *Engine {
	return NewEngine(DefaultMergeConfig())
}

// ============================================================================
// Analyze Tests
// ============================================================================

func TestAnalyzeVerticalFragments(t *testing.T) {
	doc := newDoc(1)
	a := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"Alice", "30", "Paris"})
	b := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, header3, []string{"Bob", "41", "Rome"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.TableA != a.ID || c.TableB != b.ID {
		t.Errorf("pair = (%s, %s), want (%s, %s)", c.TableA, c.TableB, a.ID, b.ID)
	}
	if c.MergeType != model.MergeVertical {
		t.Errorf("MergeType = %s, want vertical", c.MergeType)
	}
	if !c.ShouldMerge {
		t.Errorf("ShouldMerge = false, reasoning: %s", c.Reasoning)
	}
	if c.Confidence < 0.7 || c.Confidence > 1 {
		t.Errorf("Confidence = %v, want in [0.7, 1]", c.Confidence)
	}
	if c.Reasoning == "" {
		t.Error("Reasoning should not be empty")
	}
}

func TestAnalyzeUnrelatedPages(t *testing.T) {
	doc := newDoc(8)
	addTable(t, doc, 3, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 7, model.BBox{X0: 500, Y0: 500, X1: 600, Y1: 550}, header3, []string{"b", "2", "y"})

	for _, c := range newEngine().Analyze(doc) {
		if c.ShouldMerge {
			t.Errorf("unrelated tables should not merge: %+v", c)
		}
	}
}

func TestAnalyzeNeverPairsTwice(t *testing.T) {
	doc := newDoc(2)
	for i := 0; i < 3; i++ {
		y := float64(i) * 55
		addTable(t, doc, 0, model.BBox{X0: 0, Y0: y, X1: 100, Y1: y + 50}, header3, []string{"a", "1", "x"})
	}
	addTable(t, doc, 1, model.BBox{X0: 0, Y0: 10, X1: 100, Y1: 60}, nil, []string{"b", "2", "y"})

	seen := make(map[[2]model.BlockID]bool)
	for _, c := range newEngine().Analyze(doc) {
		if c.TableA == c.TableB {
			t.Errorf("candidate pairs %s with itself", c.TableA)
		}
		key := [2]model.BlockID{c.TableA, c.TableB}
		rev := [2]model.BlockID{c.TableB, c.TableA}
		if seen[key] || seen[rev] {
			t.Errorf("pair (%s, %s) proposed twice", c.TableA, c.TableB)
		}
		seen[key] = true
	}
	if len(seen) == 0 {
		t.Error("Analyze() returned no candidates for stacked tables")
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, nil, []string{"b", "2", "y"})
	addTable(t, doc, 0, model.BBox{X0: 105, Y0: 0, X1: 205, Y1: 50}, nil, []string{"c", "3", "z"}, []string{"d", "4", "w"})

	e := newEngine()
	first := e.Analyze(doc)
	second := e.Analyze(doc)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Analyze() is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeDoesNotMutate(t *testing.T) {
	doc := newDoc(1)
	a := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	b := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, header3, []string{"b", "2", "y"})
	before := doc.BlockCount()

	newEngine().Analyze(doc)

	if doc.BlockCount() != before || a.MergeInfo != nil || b.IgnoreForOutput {
		t.Error("Analyze() mutated the document")
	}
}

func TestAnalyzeZeroRowTable(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	empty := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, nil)

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.ShouldMerge {
		t.Error("zero-row table should never merge")
	}
	found := false
	for _, w := range c.Warnings {
		if strings.Contains(w, "zero rows") && strings.Contains(w, empty.ID.String()) {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want a zero rows warning for %s", c.Warnings, empty.ID)
	}
}

func TestAnalyzeColumnMismatch(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105},
		[]string{"Product", "Price", "Qty", "Total"}, []string{"p", "2", "3", "6"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.ShouldMerge {
		t.Errorf("mismatched headed tables should not merge (confidence %.2f)", c.Confidence)
	}
	if len(c.Warnings) == 0 || !strings.Contains(c.Warnings[0], "column count mismatch") {
		t.Errorf("Warnings = %v, want column count mismatch", c.Warnings)
	}
}

func TestAnalyzeHeaderlessColumnMismatch(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, nil, []string{"a", "b"}, []string{"c", "d"})
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, nil,
		[]string{"1", "2", "3", "4"}, []string{"5", "6", "7", "8"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	if c := candidates[0]; c.ShouldMerge {
		t.Errorf("headerless 2 vs 4 column tables should not merge (confidence %.2f): %s", c.Confidence, c.Reasoning)
	}
}

func TestAnalyzeContinuationWithoutHeader(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, nil, []string{"b", "2", "y"}, []string{"c", "3", "z"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 || !candidates[0].ShouldMerge {
		t.Fatalf("continuation without header should merge: %+v", candidates)
	}
}

func TestAnalyzeHorizontalFragments(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, nil, []string{"a", "b"}, []string{"c", "d"})
	addTable(t, doc, 0, model.BBox{X0: 105, Y0: 0, X1: 205, Y1: 50}, nil, []string{"e", "f"}, []string{"g", "h"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.MergeType != model.MergeHorizontal {
		t.Errorf("MergeType = %s, want horizontal", c.MergeType)
	}
	if !c.ShouldMerge {
		t.Errorf("side-by-side fragments should merge: %s", c.Reasoning)
	}
}

func TestAnalyzeAcrossPages(t *testing.T) {
	doc := newDoc(2)
	addTable(t, doc, 0, model.BBox{X0: 50, Y0: 650, X1: 550, Y1: 780}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 1, model.BBox{X0: 50, Y0: 20, X1: 550, Y1: 150}, nil, []string{"b", "2", "y"}, []string{"c", "3", "z"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.MergeType != model.MergeAcrossPages {
		t.Errorf("MergeType = %s, want across_pages", c.MergeType)
	}
	if !c.ShouldMerge {
		t.Errorf("page continuation should merge: %s", c.Reasoning)
	}
}

func TestAnalyzeAcrossPagesNotInMargins(t *testing.T) {
	doc := newDoc(2)
	addTable(t, doc, 0, model.BBox{X0: 50, Y0: 400, X1: 550, Y1: 500}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 1, model.BBox{X0: 50, Y0: 300, X1: 550, Y1: 380}, nil, []string{"b", "2", "y"})

	for _, c := range newEngine().Analyze(doc) {
		if c.ShouldMerge {
			t.Errorf("tables away from page margins should not merge: %s", c.Reasoning)
		}
	}
}

func TestAnalyzeInterveningContentLowersConfidence(t *testing.T) {
	build := func(withText bool) float64 {
		doc := newDoc(1)
		addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
		if withText {
			addText(t, doc, 0, model.TypeText, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 75}, "An unrelated paragraph.")
		}
		addTable(t, doc, 0, model.BBox{X0: 0, Y0: 80, X1: 100, Y1: 130}, header3, []string{"b", "2", "y"})
		candidates := newEngine().Analyze(doc)
		if len(candidates) != 1 {
			t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
		}
		return candidates[0].Confidence
	}

	clear, blocked := build(false), build(true)
	if blocked >= clear {
		t.Errorf("confidence with intervening text = %.3f, without = %.3f; want lower", blocked, clear)
	}
}

func TestAnalyzeInfersTitles(t *testing.T) {
	build := func(caption bool) model.MergeCandidate {
		doc := newDoc(1)
		if caption {
			addText(t, doc, 0, model.TypeCaption, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 15}, "Table 1: Staff")
		}
		addTable(t, doc, 0, model.BBox{X0: 0, Y0: 20, X1: 100, Y1: 70}, header3, []string{"a", "1", "x"})
		addTable(t, doc, 0, model.BBox{X0: 0, Y0: 75, X1: 100, Y1: 125}, header3, []string{"b", "2", "y"})
		candidates := newEngine().Analyze(doc)
		if len(candidates) != 1 {
			t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
		}
		return candidates[0]
	}

	plain, titled := build(false), build(true)
	if titled.TitleA == nil {
		t.Fatal("TitleA = nil, want inferred caption")
	}
	if !titled.TitleA.IsInferred || titled.TitleA.Source != model.TypeCaption || titled.TitleA.Text != "Table 1: Staff" {
		t.Errorf("TitleA = %+v", titled.TitleA)
	}
	if titled.TitleB != nil {
		t.Errorf("TitleB = %+v, want nil (preceded by a table)", titled.TitleB)
	}
	if !strings.Contains(titled.Reasoning, "Table 1: Staff") {
		t.Errorf("Reasoning %q should mention the inferred title", titled.Reasoning)
	}
	if titled.Confidence != plain.Confidence {
		t.Errorf("title changed confidence: %.3f vs %.3f", titled.Confidence, plain.Confidence)
	}
}

func TestAnalyzeTextTitleWarns(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addText(t, doc, 0, model.TypeText, model.BBox{X0: 0, Y0: 52, X1: 100, Y1: 58}, "continued")
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 60, X1: 100, Y1: 110}, nil, []string{"b", "2", "y"})

	candidates := newEngine().Analyze(doc)
	if len(candidates) != 1 {
		t.Fatalf("Analyze() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.TitleB == nil || c.TitleB.Source != model.TypeText {
		t.Fatalf("TitleB = %+v, want title inferred from Text", c.TitleB)
	}
	found := false
	for _, w := range c.Warnings {
		if strings.Contains(w, "low confidence") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want low confidence title warning", c.Warnings)
	}
}

// ============================================================================
// Apply Tests
// ============================================================================

func TestApplyVerticalChain(t *testing.T) {
	doc := newDoc(1)
	a := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"Alice", "30", "Paris"})
	b := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, header3, []string{"Bob", "41", "Rome"})
	c := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 110, X1: 100, Y1: 160}, header3, []string{"Cleo", "27", "Oslo"})

	e := newEngine()
	applied, err := e.Apply(doc)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("Apply() merged %d times, want 2", len(applied))
	}

	if a.MergeInfo == nil {
		t.Fatal("MergeInfo = nil on surviving table")
	}
	if a.MergeInfo.OriginalCount != 3 || len(a.MergeInfo.OriginalTables) != 3 {
		t.Errorf("OriginalCount = %d, want 3", a.MergeInfo.OriginalCount)
	}
	want := []model.BlockID{a.ID, b.ID, c.ID}
	for i, o := range a.MergeInfo.OriginalTables {
		if o.ID != want[i] {
			t.Errorf("OriginalTables[%d] = %s, want %s", i, o.ID, want[i])
		}
	}
	if a.MergeInfo.MergeType != model.MergeVertical || a.MergeInfo.MergeMethod != MergeMethod {
		t.Errorf("MergeInfo = %+v", a.MergeInfo)
	}
	if !b.IgnoreForOutput || !c.IgnoreForOutput {
		t.Error("merged-away tables should be ignored for output")
	}
	if a.IgnoreForOutput {
		t.Error("surviving table should stay visible")
	}
	if _, ok := doc.Block(b.ID); !ok {
		t.Error("merged-away table should remain addressable")
	}

	g := NewGrid(doc, a)
	if g.RowCount() != 4 {
		t.Errorf("merged RowCount() = %d, want 4 (one header, three rows)", g.RowCount())
	}
	wantCol0 := []string{"Name", "Alice", "Bob", "Cleo"}
	for r, text := range wantCol0 {
		if _, got, _ := g.At(r, 0); got != text {
			t.Errorf("At(%d, 0) = %q, want %q", r, got, text)
		}
	}
	if bbox := a.BBox(); bbox != (model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 160}) {
		t.Errorf("merged BBox() = %+v, want union of fragments", bbox)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate() after Apply() failed: %v", err)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	doc := newDoc(1)
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
	addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, header3, []string{"b", "2", "y"})

	e := newEngine()
	if _, err := e.Apply(doc); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	for _, c := range e.Analyze(doc) {
		if c.ShouldMerge {
			t.Errorf("re-analysis proposed a merge: %+v", c)
		}
	}
	again, err := e.Apply(doc)
	if err != nil {
		t.Fatalf("second Apply() failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Apply() merged %d times, want 0", len(again))
	}
}

func TestApplyHorizontal(t *testing.T) {
	doc := newDoc(1)
	a := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, nil, []string{"a", "b"}, []string{"c", "d"})
	addTable(t, doc, 0, model.BBox{X0: 105, Y0: 0, X1: 205, Y1: 50}, nil, []string{"e", "f"}, []string{"g", "h"})

	applied, err := newEngine().Apply(doc)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("Apply() merged %d times, want 1", len(applied))
	}

	g := NewGrid(doc, a)
	if g.RowCount() != 2 || g.ColCount() != 4 {
		t.Errorf("merged grid = %dx%d, want 2x4", g.RowCount(), g.ColCount())
	}
	if _, text, _ := g.At(1, 3); text != "h" {
		t.Errorf("At(1, 3) = %q, want h", text)
	}
	if a.MergeInfo.MergeType != model.MergeHorizontal {
		t.Errorf("MergeType = %s, want horizontal", a.MergeInfo.MergeType)
	}
}

func TestApplyAcrossPagesKeepsPolygon(t *testing.T) {
	doc := newDoc(2)
	box := model.BBox{X0: 50, Y0: 650, X1: 550, Y1: 780}
	a := addTable(t, doc, 0, box, header3, []string{"a", "1", "x"})
	addTable(t, doc, 1, model.BBox{X0: 50, Y0: 20, X1: 550, Y1: 150}, nil, []string{"b", "2", "y"})

	if _, err := newEngine().Apply(doc); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if a.BBox() != box {
		t.Errorf("BBox() = %+v, want %+v", a.BBox(), box)
	}
	for _, id := range a.Structure {
		if id.Page != 0 {
			t.Errorf("merged cell %s should live on page 0", id)
		}
	}
	if a.MergeInfo == nil || a.MergeInfo.MergeType != model.MergeAcrossPages {
		t.Errorf("MergeInfo = %+v, want across_pages", a.MergeInfo)
	}
	if g := NewGrid(doc, a); g.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", g.RowCount())
	}
}

func TestApplyAcrossThreePages(t *testing.T) {
	doc := newDoc(3)
	a := addTable(t, doc, 0, model.BBox{X0: 50, Y0: 650, X1: 550, Y1: 780}, header3, []string{"a", "1", "x"})
	b := addTable(t, doc, 1, model.BBox{X0: 50, Y0: 20, X1: 550, Y1: 770}, nil,
		[]string{"b", "2", "y"}, []string{"c", "3", "z"}, []string{"d", "4", "w"})
	c := addTable(t, doc, 2, model.BBox{X0: 50, Y0: 20, X1: 550, Y1: 150}, nil, []string{"e", "5", "v"})

	applied, err := newEngine().Apply(doc)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("Apply() merged %d times, want 2", len(applied))
	}

	visible := 0
	for _, blk := range doc.BlocksOfType(model.TypeTable) {
		if !blk.Base().IgnoreForOutput {
			visible++
		}
	}
	if visible != 1 {
		t.Errorf("visible tables after Apply() = %d, want 1", visible)
	}
	if a.MergeInfo == nil || a.MergeInfo.OriginalCount != 3 {
		t.Fatalf("MergeInfo = %+v, want 3 original tables", a.MergeInfo)
	}
	want := []model.BlockID{a.ID, b.ID, c.ID}
	for i, o := range a.MergeInfo.OriginalTables {
		if o.ID != want[i] {
			t.Errorf("OriginalTables[%d] = %s, want %s", i, o.ID, want[i])
		}
	}
	if g := NewGrid(doc, a); g.RowCount() != 6 {
		t.Errorf("RowCount() = %d, want 6", g.RowCount())
	}
}

// ============================================================================
// Processor Tests
// ============================================================================

func TestMergeProcessor(t *testing.T) {
	tests := []struct {
		name        string
		apply       bool
		wantIgnored bool
	}{
		{"analysis only", false, false},
		{"apply", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(1)
			addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, header3, []string{"a", "1", "x"})
			b := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 55, X1: 100, Y1: 105}, header3, []string{"b", "2", "y"})

			config := DefaultMergeConfig()
			config.Apply = tt.apply
			p := NewMergeProcessor(config)
			if p.Name() != "table_merge" {
				t.Errorf("Name() = %q, want table_merge", p.Name())
			}
			if err := p.Process(context.Background(), doc); err != nil {
				t.Fatalf("Process() failed: %v", err)
			}
			if b.IgnoreForOutput != tt.wantIgnored {
				t.Errorf("IgnoreForOutput = %v, want %v", b.IgnoreForOutput, tt.wantIgnored)
			}
			if len(doc.Metadata.TableMergeCandidates) != 1 || !doc.Metadata.TableMergeCandidates[0].ShouldMerge {
				t.Errorf("TableMergeCandidates = %+v, want one mergeable candidate", doc.Metadata.TableMergeCandidates)
			}
		})
	}
}
