package htmldoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/docstruct/model"
)

func openString(t *testing.T, markup string, mode FurnitureMode) *Reader {
	t.Helper()
	opts := DefaultOptions()
	opts.Furniture = mode
	r, err := OpenReaderWithOptions(strings.NewReader(markup), opts)
	if err != nil {
		t.Fatalf("OpenReaderWithOptions() failed: %v", err)
	}
	return r
}

// topLevelTypes returns the types of the blocks without a parent, page by page.
func topLevelTypes(pages []model.RawPage) []string {
	var out []string
	for _, p := range pages {
		for _, b := range p.Blocks {
			if b.Parent == nil {
				out = append(out, b.Type)
			}
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenReader_SimpleHTML(t *testing.T) {
	html := `<!DOCTYPE html>
<html lang="en-GB">
<head>
	<title>Test Document</title>
	<meta name="author" content="Test Author">
	<meta property="og:title" content="Shared Title">
</head>
<body>
	<h1>Main Heading</h1>
	<p>This is a paragraph.</p>
</body>
</html>`

	r, err := OpenReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer r.Close()

	if r.Title() != "Test Document" {
		t.Errorf("Title() = %q, want 'Test Document'", r.Title())
	}
	if r.Language() != "en-GB" {
		t.Errorf("Language() = %q, want 'en-GB'", r.Language())
	}
	if r.Meta("author") != "Test Author" {
		t.Errorf("Meta(author) = %q, want 'Test Author'", r.Meta("author"))
	}
	if r.Meta("og:title") != "Shared Title" {
		t.Errorf("Meta(og:title) = %q, want 'Shared Title'", r.Meta("og:title"))
	}
}

func TestOpenReader_InvalidHTML(t *testing.T) {
	// Even malformed HTML should parse (HTML parser is lenient)
	r, err := OpenReader(strings.NewReader(`<html><body><p>unclosed paragraph`))
	if err != nil {
		t.Fatalf("OpenReader() should handle malformed HTML: %v", err)
	}
	defer r.Close()

	if got := topLevelTypes(r.RawPages()); !equalStrings(got, []string{"Text"}) {
		t.Errorf("types = %v, want [Text]", got)
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open("/nonexistent/file.html")
	if err == nil {
		t.Error("Open() expected error for nonexistent file")
	}
}

func TestOpen_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.html")
	if err := os.WriteFile(path, []byte(`<html><body><p>From file</p></body></html>`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer r.Close()

	pages := r.RawPages()
	if len(pages) != 1 || len(pages[0].Blocks) != 1 {
		t.Fatalf("RawPages() = %+v, want one page with one block", pages)
	}
	if pages[0].Blocks[0].Text != "From file" {
		t.Errorf("Text = %q, want 'From file'", pages[0].Blocks[0].Text)
	}
}

func TestRawPages_ElementTypes(t *testing.T) {
	html := `<html><body>
<h1>Title</h1>
<p>Intro paragraph.</p>
<h2>Details</h2>
<ul><li>One</li><li>Two<ul><li>Nested</li></ul></li></ul>
<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>
<blockquote>Quoted words.</blockquote>
<pre>x := 1</pre>
</body></html>`

	r := openString(t, html, FurnitureNone)
	pages := r.RawPages()

	want := []string{"SectionHeader", "Text", "SectionHeader", "ListGroup", "Table", "Text", "Code"}
	if got := topLevelTypes(pages); !equalStrings(got, want) {
		t.Fatalf("types = %v, want %v", got, want)
	}

	var levels []int
	var items []string
	var itemIndents []int
	for _, b := range pages[0].Blocks {
		switch b.Type {
		case "SectionHeader":
			levels = append(levels, b.Attrs.Level)
		case "ListItem":
			items = append(items, b.Text)
			itemIndents = append(itemIndents, b.Attrs.Indent)
		}
	}
	if len(levels) != 2 || levels[0] != 1 || levels[1] != 2 {
		t.Errorf("heading levels = %v, want [1 2]", levels)
	}
	if !equalStrings(items, []string{"One", "Two", "Nested"}) {
		t.Errorf("list items = %v", items)
	}
	if len(itemIndents) == 3 && itemIndents[2] != 1 {
		t.Errorf("nested item indent = %d, want 1", itemIndents[2])
	}
}

func TestRawPages_BuildsDocument(t *testing.T) {
	html := `<html><body>
<h1>Report</h1>
<figure><img src="cat.png" alt="A cat"><figcaption>Figure 1: Cat</figcaption></figure>
<table><caption>Table 1: Scores</caption><tr><th>Name</th><th>Score</th></tr><tr><td>Ann</td><td>9</td></tr></table>
<ol><li>First</li><li>Second</li></ol>
</body></html>`

	r := openString(t, html, FurnitureStandard)
	doc, err := model.NewBuilder(nil).Build(r.RawPages())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	groups := doc.BlocksOfType(model.TypePictureGroup)
	if len(groups) != 1 {
		t.Fatalf("picture groups = %d, want 1", len(groups))
	}
	children, _ := doc.Contained(groups[0])
	if len(children) != 2 || children[0].Type() != model.TypePicture || children[1].Type() != model.TypeCaption {
		t.Fatalf("picture group children = %v", children)
	}
	pic := children[0].(*model.Picture)
	if pic.ImageRef != "cat.png" || pic.Description != "A cat" {
		t.Errorf("picture = (%q, %q), want (cat.png, A cat)", pic.ImageRef, pic.Description)
	}

	tables := doc.BlocksOfType(model.TypeTable)
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	tbl := tables[0].(*model.Table)
	if tbl.ExtractionMethod != "html" {
		t.Errorf("ExtractionMethod = %q, want html", tbl.ExtractionMethod)
	}
	cells, _ := doc.Contained(tbl)
	if len(cells) != 4 {
		t.Fatalf("cells = %d, want 4", len(cells))
	}
	if c := cells[0].(*model.TableCell); !c.IsHeader || c.Text != "Name" {
		t.Errorf("first cell = %+v, want header 'Name'", c)
	}
	if c := cells[3].(*model.TableCell); c.Row != 1 || c.Col != 1 || c.Text != "9" {
		t.Errorf("last cell = (%d,%d,%q), want (1,1,'9')", c.Row, c.Col, c.Text)
	}
	if len(doc.BlocksOfType(model.TypeTableGroup)) != 1 {
		t.Error("captioned table should be wrapped in a TableGroup")
	}

	lists := doc.BlocksOfType(model.TypeListGroup)
	if len(lists) != 1 || !lists[0].(*model.ListGroup).Ordered {
		t.Errorf("lists = %v, want one ordered list", lists)
	}
}

func TestRawPages_Furniture(t *testing.T) {
	html := `<html><body>
<nav><p>Home About</p></nav>
<main>
<h1>Main</h1>
<p>Body text.</p>
<div class="site-footer"><p>Styled footer</p></div>
<div id="sidebar"><p>Widgets</p></div>
</main>
<aside><p>Ads</p></aside>
<footer><p>Copyright 2024</p></footer>
</body></html>`

	tests := []struct {
		mode FurnitureMode
		want []string
	}{
		{FurnitureNone, []string{"Text", "SectionHeader", "Text", "Text", "Text", "Text", "Text"}},
		{FurnitureExplicit, []string{"PageHeader", "SectionHeader", "Text", "Text", "Text", "PageFooter"}},
		{FurnitureStandard, []string{"PageHeader", "SectionHeader", "Text", "PageFooter", "PageFooter"}},
	}

	for _, tt := range tests {
		r := openString(t, html, tt.mode)
		if got := topLevelTypes(r.RawPages()); !equalStrings(got, tt.want) {
			t.Errorf("mode %d: types = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestRawPages_AggressiveLinkDensity(t *testing.T) {
	html := `<html><body>
<div><a href="/1">One</a> <a href="/2">Two</a> <a href="/3">Three</a> <a href="/4">Four</a></div>
<p>Actual content with a <a href="/x">link</a>.</p>
</body></html>`

	standard := topLevelTypes(openString(t, html, FurnitureStandard).RawPages())
	if !equalStrings(standard, []string{"Text", "Text"}) {
		t.Errorf("standard types = %v, want [Text Text]", standard)
	}
	aggressive := topLevelTypes(openString(t, html, FurnitureAggressive).RawPages())
	if !equalStrings(aggressive, []string{"PageHeader", "Text"}) {
		t.Errorf("aggressive types = %v, want [PageHeader Text]", aggressive)
	}
}

func TestRawPages_CodeLines(t *testing.T) {
	html := "<html><body><pre><code class=\"language-go\">func main() {\n    fmt.Println(\"hi\")\n}</code></pre></body></html>"

	pages := openString(t, html, FurnitureNone).RawPages()
	blocks := pages[0].Blocks
	if len(blocks) != 4 {
		t.Fatalf("blocks = %d, want Code + 3 lines", len(blocks))
	}
	code := blocks[0]
	if code.Type != "Code" || code.Attrs.Language != "go" {
		t.Errorf("code block = %s/%q, want Code/go", code.Type, code.Attrs.Language)
	}
	if !strings.Contains(code.Text, "    fmt.Println") {
		t.Errorf("code text lost indentation: %q", code.Text)
	}
	opts := DefaultOptions()
	if x := blocks[2].Polygon.BBox().X0; x != opts.Margin+4*opts.CharWidth {
		t.Errorf("indented line X0 = %v, want %v", x, opts.Margin+4*opts.CharWidth)
	}
	if blocks[2].Text != `fmt.Println("hi")` {
		t.Errorf("line text = %q", blocks[2].Text)
	}
}

func TestRawPages_Equation(t *testing.T) {
	html := `<html><body><math><semantics><mi>x</mi><annotation encoding="application/x-tex">x^2</annotation></semantics></math></body></html>`

	blocks := openString(t, html, FurnitureNone).RawPages()[0].Blocks
	if len(blocks) != 1 || blocks[0].Type != "Equation" || blocks[0].Text != "x^2" {
		t.Errorf("blocks = %+v, want one Equation x^2", blocks)
	}
}

func TestRawPages_TableSplitsAcrossPages(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><table>")
	for i := 0; i < 60; i++ {
		sb.WriteString("<tr><td>a</td><td>b</td></tr>")
	}
	sb.WriteString("</table></body></html>")

	pages := openString(t, sb.String(), FurnitureNone).RawPages()
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}

	// 720pt of content area at 21pt per row
	wantRows := []int{34, 26}
	for i, p := range pages {
		cells := 0
		firstRow := -1
		for _, b := range p.Blocks {
			if b.Type == "TableCell" {
				if firstRow < 0 {
					firstRow = b.Attrs.Row
				}
				cells++
			}
		}
		if cells != wantRows[i]*2 {
			t.Errorf("page %d cells = %d, want %d", i, cells, wantRows[i]*2)
		}
		if firstRow != 0 {
			t.Errorf("page %d first row = %d, want 0", i, firstRow)
		}
	}
	if y := pages[1].Blocks[0].Polygon.BBox().Y0; y != DefaultOptions().Margin {
		t.Errorf("continuation Y0 = %v, want top margin", y)
	}
}

func TestRawPages_Empty(t *testing.T) {
	pages := openString(t, `<html><body></body></html>`, FurnitureStandard).RawPages()
	if len(pages) != 1 || len(pages[0].Blocks) != 0 {
		t.Errorf("RawPages() = %+v, want one empty page", pages)
	}
}

// ============================================================================
// Table parsing
// ============================================================================

func TestParseTableHTML_WithHeader(t *testing.T) {
	table, err := ParseTableHTML(`<table>
	<thead><tr><th>Name</th><th>Value</th></tr></thead>
	<tbody><tr><td>A</td><td>1</td></tr></tbody>
</table>`)
	if err != nil {
		t.Fatalf("ParseTableHTML() failed: %v", err)
	}

	if !table.HasHeader {
		t.Error("Table should have header")
	}
	if !table.Rows[0][0].IsHeader {
		t.Error("First cell should be header")
	}
	if table.RowCount() != 2 || table.ColCount() != 2 {
		t.Errorf("grid = %dx%d, want 2x2", table.RowCount(), table.ColCount())
	}
}

func TestParseTableHTML_Spans(t *testing.T) {
	table, err := ParseTableHTML(`<table>
	<tr><td colspan="2">Wide</td></tr>
	<tr><td rowspan="2">Tall</td><td>A</td></tr>
	<tr><td>B</td></tr>
</table>`)
	if err != nil {
		t.Fatalf("ParseTableHTML() failed: %v", err)
	}

	if table.Rows[0][0].ColSpan != 2 {
		t.Errorf("ColSpan = %d, want 2", table.Rows[0][0].ColSpan)
	}
	if table.Rows[1][0].RowSpan != 2 {
		t.Errorf("RowSpan = %d, want 2", table.Rows[1][0].RowSpan)
	}

	tests := []struct {
		text     string
		row, col int
	}{
		{"Wide", 0, 0},
		{"Tall", 1, 0},
		{"A", 1, 1},
		{"B", 2, 1},
	}
	cells := table.Positioned()
	if len(cells) != len(tests) {
		t.Fatalf("Positioned() = %d cells, want %d", len(cells), len(tests))
	}
	for i, tt := range tests {
		c := cells[i]
		if c.Text != tt.text || c.Row != tt.row || c.Col != tt.col {
			t.Errorf("cell %d = %q at (%d,%d), want %q at (%d,%d)", i, c.Text, c.Row, c.Col, tt.text, tt.row, tt.col)
		}
	}
	if table.RowCount() != 3 || table.ColCount() != 2 {
		t.Errorf("grid = %dx%d, want 3x2", table.RowCount(), table.ColCount())
	}
}

func TestParseTableHTML_NoTable(t *testing.T) {
	if _, err := ParseTableHTML(`<p>no table here</p>`); !errors.Is(err, ErrNoTable) {
		t.Errorf("ParseTableHTML() error = %v, want ErrNoTable", err)
	}
}

func TestShouldSkipElement(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"script", true},
		{"style", true},
		{"noscript", true},
		{"p", false},
		{"div", false},
	}

	for _, tt := range tests {
		if got := shouldSkipElement(tt.tag); got != tt.want {
			t.Errorf("shouldSkipElement(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func BenchmarkRawPages(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 200; i++ {
		sb.WriteString("<h2>Section</h2><p>Lorem ipsum dolor sit amet, consectetur adipiscing elit.</p>")
	}
	sb.WriteString("</body></html>")
	markup := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, _ := OpenReader(strings.NewReader(markup))
		_ = r.RawPages()
	}
}
