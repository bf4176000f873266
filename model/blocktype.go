package model

import "fmt"

// BlockType is the closed enumeration of block variant tags.
type BlockType int

const (
	TypeUnknown BlockType = iota
	TypeLine
	TypeSpan
	TypeText
	TypeSectionHeader
	TypeCaption
	TypeCode
	TypeEquation
	TypeFootnote
	TypeReference
	TypePageHeader
	TypePageFooter
	TypeListGroup
	TypeListItem
	TypeFigureGroup
	TypeTableGroup
	TypePictureGroup
	TypeFigure
	TypePicture
	TypeTable
	TypeTableCell
	TypeTableOfContents
	TypeForm
	TypeComplexRegion
	TypeHandwriting

	typeSentinel
)

var blockTypeNames = map[BlockType]string{
	TypeLine:            "Line",
	TypeSpan:            "Span",
	TypeText:            "Text",
	TypeSectionHeader:   "SectionHeader",
	TypeCaption:         "Caption",
	TypeCode:            "Code",
	TypeEquation:        "Equation",
	TypeFootnote:        "Footnote",
	TypeReference:       "Reference",
	TypePageHeader:      "PageHeader",
	TypePageFooter:      "PageFooter",
	TypeListGroup:       "ListGroup",
	TypeListItem:        "ListItem",
	TypeFigureGroup:     "FigureGroup",
	TypeTableGroup:      "TableGroup",
	TypePictureGroup:    "PictureGroup",
	TypeFigure:          "Figure",
	TypePicture:         "Picture",
	TypeTable:           "Table",
	TypeTableCell:       "TableCell",
	TypeTableOfContents: "TableOfContents",
	TypeForm:            "Form",
	TypeComplexRegion:   "ComplexRegion",
	TypeHandwriting:     "Handwriting",
}

// AllBlockTypes returns every tag of the enumeration in declaration order.
func AllBlockTypes() []BlockType {
	types := make([]BlockType, 0, int(typeSentinel)-1)
	for t := TypeLine; t < typeSentinel; t++ {
		types = append(types, t)
	}
	return types
}

func (t BlockType) String() string {
	if name, ok := blockTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether t is a member of the enumeration.
func (t BlockType) Valid() bool {
	return t > TypeUnknown && t < typeSentinel
}

// MarshalText encodes the tag by name.
func (t BlockType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlockType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag name.
func (t *BlockType) UnmarshalText(text []byte) error {
	parsed, err := ParseBlockType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseBlockType resolves a tag name such as "SectionHeader".
func ParseBlockType(name string) (BlockType, error) {
	for t, n := range blockTypeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnknownBlockType, name)
}

// IsGroup reports whether the tag is one of the grouping variants.
func (t BlockType) IsGroup() bool {
	switch t {
	case TypeListGroup, TypeFigureGroup, TypeTableGroup, TypePictureGroup:
		return true
	}
	return false
}

// IsTextContainer reports whether blocks of this tag hold their text in
// Line/Span children.
func (t BlockType) IsTextContainer() bool {
	switch t {
	case TypeText, TypeSectionHeader, TypeCaption, TypeFootnote, TypeListItem,
		TypePageHeader, TypePageFooter, TypeHandwriting, TypeForm,
		TypeTableOfContents, TypeComplexRegion, TypeReference:
		return true
	}
	return false
}
