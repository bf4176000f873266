package render

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/docstruct/model"
)

// placeholder marks where a child's HTML is substituted into its parent.
func placeholder(id model.BlockID) string {
	return fmt.Sprintf(`<content-ref src="%s"></content-ref>`, id)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func raw(s string) *html.Node {
	return &html.Node{Type: html.RawNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func appendAll(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

// refs returns one placeholder node per child, separated by sep when it is
// not empty.
func refs(b model.Block, sep string) []*html.Node {
	ids := b.Base().Structure
	out := make([]*html.Node, 0, 2*len(ids))
	for i, id := range ids {
		if i > 0 && sep != "" {
			out = append(out, text(sep))
		}
		out = append(out, raw(placeholder(id)))
	}
	return out
}

// template builds the markup of a block with placeholders for its children.
func template(doc *model.Document, b model.Block) ([]*html.Node, error) {
	typeAttr := attr("block-type", b.Type().String())
	switch v := b.(type) {
	case *model.Span:
		n := text(v.Text)
		if v.Italic {
			n = appendAll(element(atom.I), n)
		}
		if v.Bold {
			n = appendAll(element(atom.B), n)
		}
		return []*html.Node{n}, nil

	case *model.Line:
		return refs(b, ""), nil

	case *model.SectionHeader:
		level := min(max(v.Level, 1), 6)
		a := []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}[level-1]
		return []*html.Node{appendAll(element(a, typeAttr), refs(b, " ")...)}, nil

	case *model.Code:
		code := element(atom.Code)
		if v.Language != "" {
			code.Attr = append(code.Attr, attr("class", "language-"+v.Language))
		}
		if v.Code != "" {
			code.AppendChild(text(v.Code))
		} else {
			appendAll(code, refs(b, "\n")...)
		}
		return []*html.Node{appendAll(element(atom.Pre, typeAttr), code)}, nil

	case *model.Equation:
		if v.LaTeX == "" {
			return []*html.Node{appendAll(element(atom.P, typeAttr), refs(b, " ")...)}, nil
		}
		math := element(atom.Math, attr("display", "block"))
		math.AppendChild(text(v.LaTeX))
		return []*html.Node{math}, nil

	case *model.Reference:
		return []*html.Node{appendAll(element(atom.Span, attr("id", v.Ref)), refs(b, " ")...)}, nil

	case *model.ListGroup:
		list := element(atom.Ul, typeAttr)
		if v.Ordered {
			list = element(atom.Ol, typeAttr)
		}
		return []*html.Node{appendAll(list, refs(b, "")...)}, nil

	case *model.ListItem:
		return []*html.Node{appendAll(element(atom.Li, typeAttr), refs(b, " ")...)}, nil

	case *model.Figure:
		return []*html.Node{image(typeAttr, v.ImageRef, v.Description)}, nil

	case *model.Picture:
		return []*html.Node{image(typeAttr, v.ImageRef, v.Description)}, nil

	case *model.Table:
		n, err := tableNode(doc, v)
		if err != nil {
			return nil, err
		}
		return []*html.Node{n}, nil

	case *model.TableCell:
		a := atom.Td
		if v.IsHeader {
			a = atom.Th
		}
		return []*html.Node{appendAll(element(a, spanAttrs(v)...), text(cellText(doc, v)))}, nil

	case *model.FigureGroup, *model.TableGroup, *model.PictureGroup,
		*model.TableOfContents, *model.Form, *model.ComplexRegion:
		return []*html.Node{appendAll(element(atom.Div, typeAttr), refs(b, "")...)}, nil
	}

	// Text, Caption, Footnote, PageHeader, PageFooter, Handwriting
	return []*html.Node{appendAll(element(atom.P, typeAttr), refs(b, " ")...)}, nil
}

func image(typeAttr html.Attribute, src, alt string) *html.Node {
	img := element(atom.Img, typeAttr)
	if src != "" {
		img.Attr = append(img.Attr, attr("src", src))
	}
	img.Attr = append(img.Attr, attr("alt", alt))
	return img
}

func spanAttrs(c *model.TableCell) []html.Attribute {
	var attrs []html.Attribute
	if c.RowSpan > 1 {
		attrs = append(attrs, attr("rowspan", fmt.Sprint(c.RowSpan)))
	}
	if c.ColSpan > 1 {
		attrs = append(attrs, attr("colspan", fmt.Sprint(c.ColSpan)))
	}
	return attrs
}

func cellText(doc *model.Document, c *model.TableCell) string {
	if c.Text != "" {
		return c.Text
	}
	return doc.Text(c)
}

// tableNode builds a <table> from the table's visible cells, one <tr> per
// row in (row, col) order.
func tableNode(doc *model.Document, t *model.Table) (*html.Node, error) {
	var cells []*model.TableCell
	for _, id := range t.Structure {
		blk, ok := doc.Block(id)
		if !ok {
			return nil, &Error{Block: id, Err: ErrMissingBlock}
		}
		if c, ok := blk.(*model.TableCell); ok && !c.IgnoreForOutput {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})

	table := element(atom.Table, attr("block-type", model.TypeTable.String()))
	var tr *html.Node
	row := -1
	for _, c := range cells {
		if tr == nil || c.Row != row {
			tr = element(atom.Tr)
			table.AppendChild(tr)
			row = c.Row
		}
		a := atom.Td
		if c.IsHeader {
			a = atom.Th
		}
		tr.AppendChild(appendAll(element(a, spanAttrs(c)...), text(cellText(doc, c))))
	}
	return table, nil
}

func renderNodes(nodes []*html.Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// TableHTML renders a table's cells as HTML. A table carrying explicit
// HTML returns it unchanged.
func TableHTML(doc *model.Document, t *model.Table) (string, error) {
	if t.HTML != "" {
		return t.HTML, nil
	}
	n, err := tableNode(doc, t)
	if err != nil {
		return "", err
	}
	return renderNodes([]*html.Node{n})
}

// blockHTML renders a block's template and substitutes each child's HTML
// at its placeholder. Ignored children render as nothing.
func blockHTML(doc *model.Document, b model.Block, children map[model.BlockID]string) (string, error) {
	if b.Base().HTML != "" {
		return b.Base().HTML, nil
	}
	nodes, err := template(doc, b)
	if err != nil {
		return "", err
	}
	out, err := renderNodes(nodes)
	if err != nil {
		return "", err
	}
	if len(b.Base().Structure) == 0 {
		return out, nil
	}
	pairs := make([]string, 0, 2*len(b.Base().Structure))
	for _, id := range b.Base().Structure {
		pairs = append(pairs, placeholder(id), children[id])
	}
	return strings.NewReplacer(pairs...).Replace(out), nil
}
