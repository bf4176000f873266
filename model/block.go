package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BlockID identifies a block within a document: the page it belongs to,
// its variant tag and a sequence number unique per (page, tag).
type BlockID struct {
	Page int
	Type BlockType
	Seq  int
}

// String returns the "<page>/<type>/<seq>" form used on the wire.
func (id BlockID) String() string {
	return fmt.Sprintf("%d/%s/%d", id.Page, id.Type, id.Seq)
}

// IsZero reports whether the id was never assigned.
func (id BlockID) IsZero() bool {
	return id.Type == TypeUnknown
}

// ParseBlockID parses the "<page>/<type>/<seq>" form.
func ParseBlockID(s string) (BlockID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return BlockID{}, fmt.Errorf("block id %q: want <page>/<type>/<seq>", s)
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil {
		return BlockID{}, fmt.Errorf("block id %q: page: %w", s, err)
	}
	bt, err := ParseBlockType(parts[1])
	if err != nil {
		return BlockID{}, fmt.Errorf("block id %q: %w", s, err)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return BlockID{}, fmt.Errorf("block id %q: seq: %w", s, err)
	}
	return BlockID{Page: page, Type: bt, Seq: seq}, nil
}

// MarshalJSON encodes the id in its string form.
func (id BlockID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the string form.
func (id *BlockID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBlockID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Block is implemented by every variant. Type returns the variant's own
// declared tag; Base exposes the fields shared by all variants.
type Block interface {
	Type() BlockType
	Base() *BaseBlock
}

// BaseBlock holds the fields common to all variants.
type BaseBlock struct {
	ID      BlockID
	Polygon Polygon

	// Structure lists child ids in reading or cell order.
	Structure []BlockID

	// IgnoreForOutput keeps the block addressable but excludes it from
	// rendering.
	IgnoreForOutput bool

	// HTML, when set, is rendered verbatim instead of being assembled
	// from the children.
	HTML string
}

// Base returns the shared fields.
func (b *BaseBlock) Base() *BaseBlock { return b }

// BBox returns the bounding box of the block polygon.
func (b *BaseBlock) BBox() BBox { return b.Polygon.BBox() }

// AddChild appends a child id to the structure.
func (b *BaseBlock) AddChild(id BlockID) {
	b.Structure = append(b.Structure, id)
}

// RemoveChild removes the first occurrence of id, reporting whether it was
// present.
func (b *BaseBlock) RemoveChild(id BlockID) bool {
	var removed bool
	b.Structure, removed = removeID(b.Structure, id)
	return removed
}

func removeID(ids []BlockID, id BlockID) ([]BlockID, bool) {
	for i, c := range ids {
		if c == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

// Line is one visual line of text; its children are spans.
type Line struct{ BaseBlock }

// Span is a run of text sharing one style.
type Span struct {
	BaseBlock
	Text     string
	FontName string
	FontSize float64
	Bold     bool
	Italic   bool
}

// Text is a paragraph of body text.
type Text struct {
	BaseBlock
	HasContinuation bool
}

// SectionHeader is a heading. Level 0 means not yet determined.
type SectionHeader struct {
	BaseBlock
	Level int
}

// Caption describes a figure, table or picture.
type Caption struct{ BaseBlock }

// Code is a block of source code.
type Code struct {
	BaseBlock
	Code     string
	Language string
}

// Equation is a display equation.
type Equation struct {
	BaseBlock
	LaTeX string
}

// Footnote is a note placed at the bottom of a page.
type Footnote struct{ BaseBlock }

// Reference is an anchor other blocks can point at.
type Reference struct {
	BaseBlock
	Ref string
}

// PageHeader is running page furniture at the top of a page.
type PageHeader struct{ BaseBlock }

// PageFooter is running page furniture at the bottom of a page.
type PageFooter struct{ BaseBlock }

// ListGroup groups list items.
type ListGroup struct {
	BaseBlock
	Ordered bool
}

// ListItem is one entry of a list.
type ListItem struct {
	BaseBlock
	Indent int
}

// FigureGroup groups a figure with its caption.
type FigureGroup struct{ BaseBlock }

// TableGroup groups a table with its caption.
type TableGroup struct{ BaseBlock }

// PictureGroup groups a picture with its caption.
type PictureGroup struct{ BaseBlock }

// Figure is a chart or diagram.
type Figure struct {
	BaseBlock
	Description string
	ImageRef    string
}

// Picture is a photograph or other raster image.
type Picture struct {
	BaseBlock
	Description string
	ImageRef    string
}

// TableOfContents is a detected table of contents region.
type TableOfContents struct{ BaseBlock }

// Form is a fillable form region.
type Form struct{ BaseBlock }

// ComplexRegion is a region with mixed content.
type ComplexRegion struct{ BaseBlock }

// Handwriting is a handwritten region.
type Handwriting struct{ BaseBlock }

func (*Line) Type() BlockType            { return TypeLine }
func (*Span) Type() BlockType            { return TypeSpan }
func (*Text) Type() BlockType            { return TypeText }
func (*SectionHeader) Type() BlockType   { return TypeSectionHeader }
func (*Caption) Type() BlockType         { return TypeCaption }
func (*Code) Type() BlockType            { return TypeCode }
func (*Equation) Type() BlockType        { return TypeEquation }
func (*Footnote) Type() BlockType        { return TypeFootnote }
func (*Reference) Type() BlockType       { return TypeReference }
func (*PageHeader) Type() BlockType      { return TypePageHeader }
func (*PageFooter) Type() BlockType      { return TypePageFooter }
func (*ListGroup) Type() BlockType       { return TypeListGroup }
func (*ListItem) Type() BlockType        { return TypeListItem }
func (*FigureGroup) Type() BlockType     { return TypeFigureGroup }
func (*TableGroup) Type() BlockType      { return TypeTableGroup }
func (*PictureGroup) Type() BlockType    { return TypePictureGroup }
func (*Figure) Type() BlockType          { return TypeFigure }
func (*Picture) Type() BlockType         { return TypePicture }
func (*Table) Type() BlockType           { return TypeTable }
func (*TableCell) Type() BlockType       { return TypeTableCell }
func (*TableOfContents) Type() BlockType { return TypeTableOfContents }
func (*Form) Type() BlockType            { return TypeForm }
func (*ComplexRegion) Type() BlockType   { return TypeComplexRegion }
func (*Handwriting) Type() BlockType     { return TypeHandwriting }
