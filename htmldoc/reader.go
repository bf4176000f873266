package htmldoc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTable is returned by ParseTableHTML when the markup holds no table
var ErrNoTable = errors.New("htmldoc: no <table> element")

// Options controls parsing and the synthetic page layout.
type Options struct {
	// Furniture selects how navigation, headers and footers are recognised
	Furniture FurnitureMode

	// PageWidth and PageHeight are the synthetic page size in points
	PageWidth  float64
	PageHeight float64

	// Margin is the blank border around the content area
	Margin float64

	// LineHeight is the height of one line of body text
	LineHeight float64

	// CharWidth is the average glyph advance used to estimate wrapping
	CharWidth float64
}

// DefaultOptions returns US Letter pages with standard furniture detection.
func DefaultOptions() Options {
	return Options{
		Furniture:  FurnitureStandard,
		PageWidth:  612,
		PageHeight: 792,
		Margin:     36,
		LineHeight: 14,
		CharWidth:  6,
	}
}

// Reader provides access to HTML document content.
type Reader struct {
	doc      *html.Node
	title    string
	language string
	metadata map[string]string
	elements []parsedElement
	options  Options
}

// Open opens an HTML file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f)
}

// OpenReader parses HTML from an io.Reader with DefaultOptions.
func OpenReader(r io.Reader) (*Reader, error) {
	return OpenReaderWithOptions(r, DefaultOptions())
}

// OpenReaderWithOptions parses HTML from an io.Reader.
func OpenReaderWithOptions(r io.Reader, opts Options) (*Reader, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{
		doc:      doc,
		metadata: make(map[string]string),
		elements: make([]parsedElement, 0),
		options:  opts,
	}
	if htmlNode := findElement(doc, "html"); htmlNode != nil {
		reader.language = getAttr(htmlNode, "lang")
	}
	reader.extractHead(doc)
	reader.extractBody(doc)

	return reader, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	return nil
}

// Title returns the document title from <title>.
func (r *Reader) Title() string {
	return r.title
}

// Language returns the lang attribute of the <html> element.
func (r *Reader) Language() string {
	return r.language
}

// Meta returns the content of a <meta> tag by name or property.
func (r *Reader) Meta(name string) string {
	return r.metadata[name]
}

// extractHead extracts title and meta tags from the head element.
func (r *Reader) extractHead(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "head" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "title":
				r.title = getTextContent(c)
			case "meta":
				name, content := "", ""
				for _, attr := range c.Attr {
					switch attr.Key {
					case "name", "property":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if name != "" && content != "" {
					r.metadata[name] = content
				}
			}
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.extractHead(c)
	}
}

// extractBody extracts content from the body element.
func (r *Reader) extractBody(n *html.Node) {
	body := findElement(n, "body")
	if body == nil {
		body = n
	}

	ctx := &parseContext{furniture: newFurnitureClassifier(r.options.Furniture, n)}
	r.traverseNode(body, ctx)
	r.flushList(ctx)
}

// parseContext tracks the current parsing state.
type parseContext struct {
	furniture   *furnitureClassifier
	inList      bool
	listOrdered bool
	listLevel   int
	listItems   []listItem
}

func (r *Reader) flushList(ctx *parseContext) {
	if ctx.inList && len(ctx.listItems) > 0 {
		r.elements = append(r.elements, parsedElement{
			Kind:    elementList,
			Items:   ctx.listItems,
			Ordered: ctx.listOrdered,
		})
	}
	ctx.inList = false
	ctx.listItems = nil
}

// traverseNode recursively processes DOM nodes.
func (r *Reader) traverseNode(n *html.Node, ctx *parseContext) {
	if n.Type == html.ElementNode {
		if n.Data == "math" {
			if text := mathSource(n); text != "" {
				r.flushList(ctx)
				r.elements = append(r.elements, parsedElement{Kind: elementEquation, Text: text})
			}
			return
		}
		if shouldSkipElement(n.Data) {
			return
		}

		if !ctx.inList {
			switch role := ctx.furniture.classify(n); role {
			case furnitureSkip:
				return
			case furnitureHeader, furnitureFooter:
				kind := elementPageHeader
				if role == furnitureFooter {
					kind = elementPageFooter
				}
				if text := collapseSpace(getTextContent(n)); text != "" {
					r.elements = append(r.elements, parsedElement{Kind: kind, Text: text})
				}
				return
			}
		}

		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			r.flushList(ctx)
			level := int(n.Data[1] - '0')
			if text := collapseSpace(getTextContent(n)); text != "" {
				r.elements = append(r.elements, parsedElement{
					Kind:  elementHeading,
					Text:  text,
					Level: level,
				})
			}
			return

		case "p", "div":
			if n.Data == "p" {
				r.flushList(ctx)
			}
			text := collapseSpace(getTextContent(n))
			if text != "" && !isBlockContainer(n) {
				r.elements = append(r.elements, parsedElement{
					Kind: elementParagraph,
					Text: text,
				})
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				r.traverseNode(c, ctx)
			}
			return

		case "ul", "ol":
			if ctx.inList && ctx.listLevel == 0 {
				r.flushList(ctx)
			}

			prevInList := ctx.inList
			prevOrdered := ctx.listOrdered
			prevLevel := ctx.listLevel

			ctx.inList = true
			ctx.listOrdered = n.Data == "ol"
			if !prevInList {
				ctx.listItems = make([]listItem, 0)
				ctx.listLevel = 0
			}

			for c := n.FirstChild; c != nil; c = c.NextSibling {
				r.traverseNode(c, ctx)
			}

			if !prevInList {
				r.flushList(ctx)
			}
			ctx.listOrdered = prevOrdered
			ctx.listLevel = prevLevel
			return

		case "li":
			if ctx.inList {
				if text := collapseSpace(getDirectTextContent(n)); text != "" {
					ctx.listItems = append(ctx.listItems, listItem{
						Text:  text,
						Level: ctx.listLevel,
					})
				}
				ctx.listLevel++
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
						r.traverseNode(c, ctx)
					}
				}
				ctx.listLevel--
			}
			return

		case "table":
			r.flushList(ctx)
			table := parseTable(n)
			if len(table.Rows) > 0 {
				elem := parsedElement{Kind: elementTable, Table: table}
				if caption := findElement(n, "caption"); caption != nil {
					elem.Caption = collapseSpace(getTextContent(caption))
				}
				r.elements = append(r.elements, elem)
			}
			return

		case "pre", "code":
			r.flushList(ctx)
			if lines := codeLines(n); len(lines) > 0 {
				r.elements = append(r.elements, parsedElement{
					Kind:     elementCode,
					Lines:    lines,
					Language: codeLanguage(n),
				})
			}
			return

		case "blockquote":
			r.flushList(ctx)
			if text := collapseSpace(getTextContent(n)); text != "" {
				r.elements = append(r.elements, parsedElement{
					Kind: elementBlockquote,
					Text: text,
				})
			}
			return

		case "figure":
			r.flushList(ctx)
			img := findElement(n, "img")
			if img == nil {
				break
			}
			elem := parsedElement{Kind: elementPicture, Src: getAttr(img, "src"), Text: getAttr(img, "alt")}
			if caption := findElement(n, "figcaption"); caption != nil {
				elem.Caption = collapseSpace(getTextContent(caption))
			}
			r.elements = append(r.elements, elem)
			return

		case "img":
			r.flushList(ctx)
			r.elements = append(r.elements, parsedElement{
				Kind: elementPicture,
				Src:  getAttr(n, "src"),
				Text: getAttr(n, "alt"),
			})
			return

		case "br", "hr":
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.traverseNode(c, ctx)
	}
}

// ParseTableHTML parses the first <table> in a markup fragment.
func ParseTableHTML(markup string) (*ParsedTable, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parsing table HTML: %w", err)
	}
	for _, n := range nodes {
		if tableNode := findElement(n, "table"); tableNode != nil {
			return parseTable(tableNode), nil
		}
	}
	return nil, ErrNoTable
}

// parseTable extracts a table from an HTML table element.
func parseTable(tableNode *html.Node) *ParsedTable {
	table := &ParsedTable{
		Rows: make([][]TableCell, 0),
	}

	for c := tableNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead":
			table.HasHeader = true
			parseTableRows(c, table, true)
		case "tbody", "tfoot":
			parseTableRows(c, table, false)
		case "tr":
			if row := parseTableRow(c, false); len(row) > 0 {
				table.Rows = append(table.Rows, row)
			}
		}
	}

	// If no explicit header but first row has th elements, mark as header
	if !table.HasHeader && len(table.Rows) > 0 {
		for _, cell := range table.Rows[0] {
			if cell.IsHeader {
				table.HasHeader = true
				break
			}
		}
	}

	return table
}

// parseTableRows parses rows within thead or tbody.
func parseTableRows(section *html.Node, table *ParsedTable, isHeader bool) {
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "tr" {
			if row := parseTableRow(c, isHeader); len(row) > 0 {
				table.Rows = append(table.Rows, row)
			}
		}
	}
}

// parseTableRow parses a single table row.
func parseTableRow(tr *html.Node, isHeader bool) []TableCell {
	row := make([]TableCell, 0)

	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cell := TableCell{
				Text:     collapseSpace(getTextContent(c)),
				IsHeader: isHeader || c.Data == "th",
				RowSpan:  1,
				ColSpan:  1,
			}

			for _, attr := range c.Attr {
				switch attr.Key {
				case "rowspan":
					fmt.Sscanf(attr.Val, "%d", &cell.RowSpan)
				case "colspan":
					fmt.Sscanf(attr.Val, "%d", &cell.ColSpan)
				}
			}
			cell.RowSpan = max(cell.RowSpan, 1)
			cell.ColSpan = max(cell.ColSpan, 1)

			row = append(row, cell)
		}
	}

	return row
}

// codeLines returns the raw lines of a code block, without leading and
// trailing blank lines.
func codeLines(n *html.Node) []string {
	var sb strings.Builder
	rawText(n, &sb)
	text := strings.ReplaceAll(sb.String(), "\t", "    ")
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \r")
	}
	return lines
}

// codeLanguage reads a "language-xxx" or "lang-xxx" class from the node or
// its first <code> child.
func codeLanguage(n *html.Node) string {
	nodes := []*html.Node{n}
	if code := findElement(n, "code"); code != nil && code != n {
		nodes = append(nodes, code)
	}
	for _, node := range nodes {
		for _, class := range strings.Fields(getAttr(node, "class")) {
			for _, prefix := range []string{"language-", "lang-"} {
				if strings.HasPrefix(class, prefix) {
					return strings.TrimPrefix(class, prefix)
				}
			}
		}
	}
	return ""
}

// mathSource prefers a TeX annotation over the MathML text content.
func mathSource(n *html.Node) string {
	var found string
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if found != "" {
			return
		}
		if c.Type == html.ElementNode && c.Data == "annotation" {
			if enc := getAttr(c, "encoding"); strings.Contains(enc, "tex") {
				found = strings.TrimSpace(getTextContent(c))
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			visit(k)
		}
	}
	visit(n)
	if found != "" {
		return found
	}
	var sb strings.Builder
	rawText(n, &sb)
	return collapseSpace(sb.String())
}

// shouldSkipElement returns true if the element should be skipped during content extraction.
func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed", "head":
		return true
	}
	return false
}

// isBlockContainer returns true if the element is a block container with block-level children.
func isBlockContainer(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "div", "p", "ul", "ol", "table", "h1", "h2", "h3", "h4", "h5", "h6",
				"blockquote", "pre", "article", "section", "figure", "img", "header", "footer", "nav", "aside":
				return true
			}
		}
	}
	return false
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// getTextContent extracts all text content from a node and its descendants.
func getTextContent(n *html.Node) string {
	var result strings.Builder
	getTextContentRecursive(n, &result)
	return strings.TrimSpace(result.String())
}

func getTextContentRecursive(n *html.Node, result *strings.Builder) {
	if n.Type == html.TextNode {
		result.WriteString(n.Data)
	}
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}
		if n.Data == "br" {
			result.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getTextContentRecursive(c, result)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td", "th":
			result.WriteString(" ")
		}
	}
}

// rawText collects text nodes verbatim, keeping whitespace.
func rawText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rawText(c, sb)
	}
}

// getDirectTextContent gets text content from a node, excluding nested block elements.
func getDirectTextContent(n *html.Node) string {
	var result strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			result.WriteString(c.Data)
		} else if c.Type == html.ElementNode {
			switch c.Data {
			case "ul", "ol", "div", "p", "table", "blockquote":
			default:
				result.WriteString(getTextContent(c))
			}
		}
	}
	return strings.TrimSpace(result.String())
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
