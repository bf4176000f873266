package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

// ============================================================================
// Point Tests
// ============================================================================

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point
		expected float64
	}{
		{"same point", Point{0, 0}, Point{0, 0}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"vertical", Point{0, 0}, Point{0, 4}, 4},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.p1.Distance(tt.p2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Distance() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Polygon{{1, 2}, {3.5, 4}})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if string(data) != "[[1,2],[3.5,4]]" {
		t.Errorf("Marshal() = %s, want [[1,2],[3.5,4]]", data)
	}

	var p Polygon
	if err := json.Unmarshal([]byte("[[5,6],[7,8]]"), &p); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if len(p) != 2 || p[1] != (Point{7, 8}) {
		t.Errorf("Unmarshal() = %v, want [{5 6} {7 8}]", p)
	}

	if err := json.Unmarshal([]byte("[[1,2,3]]"), &p); err == nil {
		t.Error("Unmarshal() of 3-coordinate point should fail")
	}
}

// ============================================================================
// BBox Tests
// ============================================================================

func TestNewBBox(t *testing.T) {
	bbox := NewBBox(100, 50, 10, 20)
	if bbox != (BBox{10, 20, 100, 50}) {
		t.Errorf("NewBBox() = %+v, want {10 20 100 50}", bbox)
	}
}

func TestBBoxDimensions(t *testing.T) {
	b := BBox{X0: 10, Y0: 20, X1: 110, Y1: 70}
	if b.Width() != 100 {
		t.Errorf("Width() = %v, want 100", b.Width())
	}
	if b.Height() != 50 {
		t.Errorf("Height() = %v, want 50", b.Height())
	}
	if b.Area() != 5000 {
		t.Errorf("Area() = %v, want 5000", b.Area())
	}
	if c := b.Center(); c != (Point{60, 45}) {
		t.Errorf("Center() = %v, want {60 45}", c)
	}
	if b.Slice() != [4]float64{10, 20, 110, 70} {
		t.Errorf("Slice() = %v", b.Slice())
	}
}

func TestBBoxIntersects(t *testing.T) {
	base := BBox{0, 0, 100, 100}
	tests := []struct {
		name  string
		other BBox
		want  bool
	}{
		{"overlapping", BBox{50, 50, 150, 150}, true},
		{"contained", BBox{10, 10, 20, 20}, true},
		{"touching edge", BBox{100, 0, 200, 100}, true},
		{"disjoint right", BBox{101, 0, 200, 100}, false},
		{"disjoint below", BBox{0, 150, 100, 200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxIntersectionUnion(t *testing.T) {
	a := BBox{0, 0, 100, 100}
	b := BBox{50, 50, 150, 150}

	if got := a.Intersection(b); got != (BBox{50, 50, 100, 100}) {
		t.Errorf("Intersection() = %+v, want {50 50 100 100}", got)
	}
	if got := a.Union(b); got != (BBox{0, 0, 150, 150}) {
		t.Errorf("Union() = %+v, want {0 0 150 150}", got)
	}
	if got := a.Intersection(BBox{200, 200, 300, 300}); got != (BBox{}) {
		t.Errorf("Intersection() of disjoint boxes = %+v, want zero box", got)
	}
}

func TestBBoxIOU(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{"identical", BBox{0, 0, 10, 10}, BBox{0, 0, 10, 10}, 1},
		{"half overlap", BBox{0, 0, 10, 10}, BBox{5, 0, 15, 10}, 50.0 / 150.0},
		{"disjoint", BBox{0, 0, 10, 10}, BBox{20, 20, 30, 30}, 0},
		{"degenerate", BBox{}, BBox{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IOU(tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IOU() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxAxisOverlap(t *testing.T) {
	a := BBox{0, 0, 100, 50}
	b := BBox{50, 60, 150, 110}

	if got := a.XOverlapRatio(b); got != 0.5 {
		t.Errorf("XOverlapRatio() = %v, want 0.5", got)
	}
	if got := a.YOverlapRatio(b); got != 0 {
		t.Errorf("YOverlapRatio() = %v, want 0", got)
	}
	if got := a.VerticalGap(b); got != 10 {
		t.Errorf("VerticalGap() = %v, want 10", got)
	}
	if got := a.HorizontalGap(b); got != -50 {
		t.Errorf("HorizontalGap() = %v, want -50", got)
	}
}

func TestBBoxOverlapRatio(t *testing.T) {
	a := BBox{0, 0, 100, 100}
	small := BBox{10, 10, 20, 20}
	if got := a.OverlapRatio(small); got != 1 {
		t.Errorf("OverlapRatio() = %v, want 1", got)
	}
	if got := a.OverlapRatio(BBox{200, 200, 210, 210}); got != 0 {
		t.Errorf("OverlapRatio() = %v, want 0", got)
	}
}

func TestBBoxExpandAndValid(t *testing.T) {
	b := BBox{10, 10, 20, 20}.Expand(5)
	if b != (BBox{5, 5, 25, 25}) {
		t.Errorf("Expand() = %+v, want {5 5 25 25}", b)
	}
	if !b.IsValid() {
		t.Error("IsValid() = false, want true")
	}
	if (BBox{10, 10, 10, 20}).IsValid() {
		t.Error("IsValid() of zero-width box = true, want false")
	}
}

func TestPolygonBBoxAndUnion(t *testing.T) {
	p := Polygon{{10, 5}, {30, 8}, {25, 40}, {2, 20}}
	if got := p.BBox(); got != (BBox{2, 5, 30, 40}) {
		t.Errorf("BBox() = %+v, want {2 5 30 40}", got)
	}
	if got := (Polygon{}).BBox(); got != (BBox{}) {
		t.Errorf("BBox() of empty polygon = %+v", got)
	}

	u := PolygonFromBBox(BBox{0, 0, 10, 10}).Union(PolygonFromBBox(BBox{0, 20, 10, 30}))
	if got := u.BBox(); got != (BBox{0, 0, 10, 30}) {
		t.Errorf("Union().BBox() = %+v, want {0 0 10 30}", got)
	}
	if len(u) != 4 {
		t.Errorf("Union() has %d vertices, want 4", len(u))
	}
}

// ============================================================================
// BlockID / BlockType Tests
// ============================================================================

func TestBlockIDRoundTrip(t *testing.T) {
	id := BlockID{Page: 3, Type: TypeSectionHeader, Seq: 7}
	if id.String() != "3/SectionHeader/7" {
		t.Errorf("String() = %q, want 3/SectionHeader/7", id.String())
	}

	parsed, err := ParseBlockID(id.String())
	if err != nil {
		t.Fatalf("ParseBlockID() failed: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseBlockID() = %v, want %v", parsed, id)
	}

	for _, bad := range []string{"", "1/Text", "x/Text/1", "1/Bogus/1", "1/Text/y"} {
		if _, err := ParseBlockID(bad); err == nil {
			t.Errorf("ParseBlockID(%q) should fail", bad)
		}
	}
}

func TestParseBlockType(t *testing.T) {
	for _, bt := range AllBlockTypes() {
		got, err := ParseBlockType(bt.String())
		if err != nil {
			t.Errorf("ParseBlockType(%q) failed: %v", bt, err)
			continue
		}
		if got != bt {
			t.Errorf("ParseBlockType(%q) = %v", bt, got)
		}
	}

	_, err := ParseBlockType("Paragraph")
	if !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("ParseBlockType(Paragraph) error = %v, want ErrUnknownBlockType", err)
	}
}

// ============================================================================
// Document Tests
// ============================================================================

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument(nil)
	doc.AddPage(NewPage(612, 792))
	return doc
}

func mustNewBlock(t *testing.T, doc *Document, page int, bt BlockType, b BBox) Block {
	t.Helper()
	blk, err := doc.NewBlock(page, bt, PolygonFromBBox(b))
	if err != nil {
		t.Fatalf("NewBlock(%s) failed: %v", bt, err)
	}
	return blk
}

func TestDocumentNewBlockSequence(t *testing.T) {
	doc := newTestDocument(t)
	doc.AddPage(NewPage(612, 792))

	a := mustNewBlock(t, doc, 0, TypeText, BBox{})
	b := mustNewBlock(t, doc, 0, TypeText, BBox{})
	c := mustNewBlock(t, doc, 0, TypeTable, BBox{})
	d := mustNewBlock(t, doc, 1, TypeText, BBox{})

	tests := []struct {
		blk  Block
		want string
	}{
		{a, "0/Text/0"},
		{b, "0/Text/1"},
		{c, "0/Table/0"},
		{d, "1/Text/0"},
	}
	for _, tt := range tests {
		if got := tt.blk.Base().ID.String(); got != tt.want {
			t.Errorf("id = %q, want %q", got, tt.want)
		}
	}
	if doc.BlockCount() != 4 {
		t.Errorf("BlockCount() = %d, want 4", doc.BlockCount())
	}
	if doc.Page(1).Index != 1 {
		t.Errorf("Page(1).Index = %d, want 1", doc.Page(1).Index)
	}
	if doc.Page(5) != nil {
		t.Error("Page(5) should be nil")
	}
}

func TestDocumentWalkOrder(t *testing.T) {
	doc := newTestDocument(t)
	group := mustNewBlock(t, doc, 0, TypeListGroup, BBox{})
	item1 := mustNewBlock(t, doc, 0, TypeListItem, BBox{})
	item2 := mustNewBlock(t, doc, 0, TypeListItem, BBox{})
	text := mustNewBlock(t, doc, 0, TypeText, BBox{})

	group.Base().AddChild(item1.Base().ID)
	group.Base().AddChild(item2.Base().ID)
	doc.Page(0).Append(group.Base().ID)
	doc.Page(0).Append(text.Base().ID)

	var visited []string
	var depths []int
	err := doc.Walk(func(b Block, depth int) error {
		visited = append(visited, b.Base().ID.String())
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}

	want := []string{"0/ListGroup/0", "0/ListItem/0", "0/ListItem/1", "0/Text/0"}
	if len(visited) != len(want) {
		t.Fatalf("Walk() visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
	if depths[1] != 1 || depths[3] != 0 {
		t.Errorf("depths = %v, want [0 1 1 0]", depths)
	}

	items := doc.BlocksOfType(TypeListItem)
	if len(items) != 2 {
		t.Errorf("BlocksOfType(ListItem) returned %d blocks, want 2", len(items))
	}

	layout := doc.TopLevelLayout(0)
	if len(layout) != 3 {
		t.Errorf("TopLevelLayout() returned %d blocks, want 3", len(layout))
	}
}

func TestDocumentValidateDangling(t *testing.T) {
	doc := newTestDocument(t)
	text := mustNewBlock(t, doc, 0, TypeText, BBox{})
	doc.Page(0).Append(text.Base().ID)

	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() failed on a sound document: %v", err)
	}

	text.Base().AddChild(BlockID{Page: 0, Type: TypeLine, Seq: 42})
	if err := doc.Validate(); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("Validate() error = %v, want ErrDanglingReference", err)
	}
	if _, err := doc.Contained(text); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("Contained() error = %v, want ErrDanglingReference", err)
	}
}

func TestDocumentText(t *testing.T) {
	doc := newTestDocument(t)
	text := mustNewBlock(t, doc, 0, TypeText, BBox{})
	line1 := mustNewBlock(t, doc, 0, TypeLine, BBox{})
	line2 := mustNewBlock(t, doc, 0, TypeLine, BBox{})
	s1 := mustNewBlock(t, doc, 0, TypeSpan, BBox{}).(*Span)
	s2 := mustNewBlock(t, doc, 0, TypeSpan, BBox{}).(*Span)
	s3 := mustNewBlock(t, doc, 0, TypeSpan, BBox{}).(*Span)
	s1.Text, s2.Text, s3.Text = "Hello ", "world", "again"

	line1.Base().AddChild(s1.ID)
	line1.Base().AddChild(s2.ID)
	line2.Base().AddChild(s3.ID)
	text.Base().AddChild(line1.Base().ID)
	text.Base().AddChild(line2.Base().ID)

	if got := doc.Text(text); got != "Hello world again" {
		t.Errorf("Text() = %q, want %q", got, "Hello world again")
	}
}

func TestDocumentParentStructure(t *testing.T) {
	doc := newTestDocument(t)
	group := mustNewBlock(t, doc, 0, TypeTableGroup, BBox{})
	caption := mustNewBlock(t, doc, 0, TypeCaption, BBox{})
	table := mustNewBlock(t, doc, 0, TypeTable, BBox{})
	group.Base().AddChild(caption.Base().ID)
	group.Base().AddChild(table.Base().ID)
	doc.Page(0).Append(group.Base().ID)

	list, index, ok := doc.ParentStructure(table.Base().ID)
	if !ok || index != 1 || list[0] != caption.Base().ID {
		t.Errorf("ParentStructure() = %v, %d, %v", list, index, ok)
	}

	_, index, ok = doc.ParentStructure(group.Base().ID)
	if !ok || index != 0 {
		t.Errorf("ParentStructure(group) = %d, %v, want 0, true", index, ok)
	}

	if _, _, ok := doc.ParentStructure(BlockID{Type: TypeText, Seq: 9}); ok {
		t.Error("ParentStructure() of unknown id should report false")
	}
}

func TestStructureRemove(t *testing.T) {
	doc := newTestDocument(t)
	a := mustNewBlock(t, doc, 0, TypeText, BBox{})
	b := mustNewBlock(t, doc, 0, TypeFootnote, BBox{})
	c := mustNewBlock(t, doc, 0, TypeText, BBox{})
	page := doc.Page(0)
	page.Append(a.Base().ID)
	page.Append(b.Base().ID)
	page.Append(c.Base().ID)

	if !page.Remove(b.Base().ID) {
		t.Fatal("Remove() = false, want true")
	}
	if len(page.Structure) != 2 || page.Structure[1] != c.Base().ID {
		t.Errorf("Structure after Remove() = %v", page.Structure)
	}
	if page.Remove(b.Base().ID) {
		t.Error("second Remove() = true, want false")
	}
	if _, ok := doc.Block(b.Base().ID); !ok {
		t.Error("removed block should remain in the document")
	}
}
