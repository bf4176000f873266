package model

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/text/language"
)

// RawPage is one page of detections as supplied by a provider.
type RawPage struct {
	Polygon Polygon    `json:"polygon,omitempty"`
	Width   float64    `json:"width,omitempty"`
	Height  float64    `json:"height,omitempty"`
	Blocks  []RawBlock `json:"blocks"`

	Image image.Image `json:"-"`
}

// RawBlock is a single detection. Parent is an index into the page's
// Blocks list naming the detection this one nests under.
type RawBlock struct {
	Type     string   `json:"block_type"`
	Polygon  Polygon  `json:"polygon"`
	Text     string   `json:"text,omitempty"`
	ImageRef string   `json:"image_ref,omitempty"`
	Parent   *int     `json:"parent,omitempty"`
	Attrs    RawAttrs `json:"attrs,omitempty"`
}

// RawAttrs carries the provider hints that map onto variant fields.
type RawAttrs struct {
	Level            int     `json:"level,omitempty"`
	Row              int     `json:"row,omitempty"`
	Col              int     `json:"col,omitempty"`
	RowSpan          int     `json:"row_span,omitempty"`
	ColSpan          int     `json:"col_span,omitempty"`
	Header           bool    `json:"header,omitempty"`
	Bold             bool    `json:"bold,omitempty"`
	Italic           bool    `json:"italic,omitempty"`
	FontName         string  `json:"font_name,omitempty"`
	FontSize         float64 `json:"font_size,omitempty"`
	Language         string  `json:"language,omitempty"`
	Ordered          bool    `json:"ordered,omitempty"`
	Indent           int     `json:"indent,omitempty"`
	Ref              string  `json:"ref,omitempty"`
	ExtractionMethod string  `json:"extraction_method,omitempty"`
}

// Builder turns raw detections into a validated Document.
type Builder struct {
	registry *Registry
}

// NewBuilder creates a builder using reg, or the default registry when nil
func NewBuilder(reg *Registry) *Builder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Builder{registry: reg}
}

// Build constructs the document. Ids are assigned in the order detections
// are received; nesting hints establish structure. Any unknown tag, bad
// parent index, cycle or dangling reference aborts construction.
func (b *Builder) Build(pages []RawPage, languages ...string) (*Document, error) {
	doc := NewDocument(b.registry)

	for _, tag := range languages {
		parsed, err := language.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", tag, err)
		}
		doc.Metadata.Languages = append(doc.Metadata.Languages, parsed.String())
	}

	for pageIndex, raw := range pages {
		page := &Page{Polygon: raw.Polygon, Image: raw.Image, Structure: make([]BlockID, 0)}
		if len(page.Polygon) == 0 {
			page.Polygon = PolygonFromBBox(BBox{X1: raw.Width, Y1: raw.Height})
		}
		doc.AddPage(page)

		if err := b.buildPage(doc, page, pageIndex, raw.Blocks); err != nil {
			return nil, err
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, &ConstructionError{Page: -1, Index: -1, Err: err}
	}
	return doc, nil
}

func (b *Builder) buildPage(doc *Document, page *Page, pageIndex int, raws []RawBlock) error {
	blocks := make([]Block, len(raws))
	for i, raw := range raws {
		t, _, err := b.registry.ResolveName(raw.Type)
		if err != nil {
			return &ConstructionError{Page: pageIndex, Index: i, Err: err}
		}
		blk, err := doc.NewBlock(pageIndex, t, raw.Polygon.Clone())
		if err != nil {
			return &ConstructionError{Page: pageIndex, Index: i, Err: err}
		}
		applyRaw(blk, raw)
		blocks[i] = blk
	}

	for i, raw := range raws {
		if raw.Parent == nil {
			page.Append(blocks[i].Base().ID)
			continue
		}
		parent := *raw.Parent
		if parent < 0 || parent >= len(raws) {
			return &ConstructionError{
				Page:  pageIndex,
				Index: i,
				Err:   fmt.Errorf("%w: parent index %d out of range", ErrDanglingReference, parent),
			}
		}
		if err := checkAcyclic(raws, i); err != nil {
			return &ConstructionError{Page: pageIndex, Index: i, Err: err}
		}
		blocks[parent].Base().AddChild(blocks[i].Base().ID)
	}

	for i, raw := range raws {
		if err := synthesizeText(doc, blocks[i], raw); err != nil {
			return &ConstructionError{Page: pageIndex, Index: i, Err: err}
		}
	}
	return nil
}

// checkAcyclic follows parent hints from index i and fails if they loop.
func checkAcyclic(raws []RawBlock, i int) error {
	seen := map[int]bool{i: true}
	for cur := raws[i].Parent; cur != nil; {
		p := *cur
		if p < 0 || p >= len(raws) {
			return nil
		}
		if seen[p] {
			return fmt.Errorf("%w: block %d", ErrCyclicStructure, i)
		}
		seen[p] = true
		cur = raws[p].Parent
	}
	return nil
}

// applyRaw copies provider payload onto the variant's own fields.
func applyRaw(blk Block, raw RawBlock) {
	a := raw.Attrs
	text := raw.Text
	switch v := blk.(type) {
	case *Span:
		v.Text = text
		v.FontName, v.FontSize = a.FontName, a.FontSize
		v.Bold, v.Italic = a.Bold, a.Italic
	case *SectionHeader:
		v.Level = a.Level
	case *Code:
		v.Code = text
		v.Language = a.Language
	case *Equation:
		v.LaTeX = text
	case *Reference:
		v.Ref = a.Ref
	case *ListGroup:
		v.Ordered = a.Ordered
	case *ListItem:
		v.Indent = a.Indent
	case *Figure:
		v.Description, v.ImageRef = text, raw.ImageRef
	case *Picture:
		v.Description, v.ImageRef = text, raw.ImageRef
	case *Table:
		v.ExtractionMethod = a.ExtractionMethod
	case *TableCell:
		v.Text = strings.TrimSpace(text)
		v.Row, v.Col = a.Row, a.Col
		v.RowSpan, v.ColSpan = max(a.RowSpan, 1), max(a.ColSpan, 1)
		v.IsHeader, v.Bold = a.Header, a.Bold
	}
}

// synthesizeText gives a text-bearing block that arrived with raw text but
// no children a Line holding a single Span, so all text lives in spans.
func synthesizeText(doc *Document, blk Block, raw RawBlock) error {
	text := strings.TrimSpace(raw.Text)
	base := blk.Base()
	if text == "" || len(base.Structure) > 0 {
		return nil
	}

	var parent *BaseBlock
	switch {
	case blk.Type() == TypeLine:
		parent = base
	case blk.Type().IsTextContainer():
		line, err := doc.NewBlock(base.ID.Page, TypeLine, base.Polygon.Clone())
		if err != nil {
			return err
		}
		base.AddChild(line.Base().ID)
		parent = line.Base()
	default:
		return nil
	}

	span, err := doc.NewBlock(base.ID.Page, TypeSpan, base.Polygon.Clone())
	if err != nil {
		return err
	}
	if s, ok := span.(*Span); ok {
		s.Text = text
		s.FontName, s.FontSize = raw.Attrs.FontName, raw.Attrs.FontSize
		s.Bold, s.Italic = raw.Attrs.Bold, raw.Attrs.Italic
	}
	parent.AddChild(span.Base().ID)
	return nil
}
