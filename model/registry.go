package model

import "fmt"

// Constructor builds an empty variant around the shared fields.
type Constructor func(base BaseBlock) Block

// Registry maps block tags to variant constructors. It is populated at
// start-up and read-only afterwards, so concurrent reads need no locking.
type Registry struct {
	ctors map[BlockType]Constructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[BlockType]Constructor)}
}

// Register binds a tag to its constructor. Each tag may be registered once.
func (r *Registry) Register(t BlockType, ctor Constructor) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownBlockType, int(t))
	}
	if _, exists := r.ctors[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, t)
	}
	r.ctors[t] = ctor
	return nil
}

// Resolve returns the constructor registered for a tag.
func (r *Registry) Resolve(t BlockType) (Constructor, error) {
	ctor, ok := r.ctors[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockType, t)
	}
	return ctor, nil
}

// ResolveName resolves a tag by its wire name.
func (r *Registry) ResolveName(name string) (BlockType, Constructor, error) {
	t, err := ParseBlockType(name)
	if err != nil {
		return TypeUnknown, nil, err
	}
	ctor, err := r.Resolve(t)
	if err != nil {
		return TypeUnknown, nil, err
	}
	return t, ctor, nil
}

// New constructs a variant for the tag and stamps the given id.
func (r *Registry) New(id BlockID, base BaseBlock) (Block, error) {
	ctor, err := r.Resolve(id.Type)
	if err != nil {
		return nil, err
	}
	base.ID = id
	return ctor(base), nil
}

// Len returns the number of registered tags
func (r *Registry) Len() int {
	return len(r.ctors)
}

// Check verifies the registry is a bijection over the enumeration: every
// tag is registered and every constructor declares the tag it is
// registered under.
func (r *Registry) Check() error {
	all := AllBlockTypes()
	if len(r.ctors) != len(all) {
		return fmt.Errorf("registry has %d tags, enumeration has %d", len(r.ctors), len(all))
	}
	for _, t := range all {
		ctor, err := r.Resolve(t)
		if err != nil {
			return err
		}
		if got := ctor(BaseBlock{}).Type(); got != t {
			return fmt.Errorf("registry key %s builds a %s", t, got)
		}
	}
	return nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry of all variants.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func mustRegister(t BlockType, ctor Constructor) {
	if err := defaultRegistry.Register(t, ctor); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister(TypeLine, func(b BaseBlock) Block { return &Line{BaseBlock: b} })
	mustRegister(TypeSpan, func(b BaseBlock) Block { return &Span{BaseBlock: b} })
	mustRegister(TypeText, func(b BaseBlock) Block { return &Text{BaseBlock: b} })
	mustRegister(TypeSectionHeader, func(b BaseBlock) Block { return &SectionHeader{BaseBlock: b} })
	mustRegister(TypeCaption, func(b BaseBlock) Block { return &Caption{BaseBlock: b} })
	mustRegister(TypeCode, func(b BaseBlock) Block { return &Code{BaseBlock: b} })
	mustRegister(TypeEquation, func(b BaseBlock) Block { return &Equation{BaseBlock: b} })
	mustRegister(TypeFootnote, func(b BaseBlock) Block { return &Footnote{BaseBlock: b} })
	mustRegister(TypeReference, func(b BaseBlock) Block { return &Reference{BaseBlock: b} })
	mustRegister(TypePageHeader, func(b BaseBlock) Block { return &PageHeader{BaseBlock: b} })
	mustRegister(TypePageFooter, func(b BaseBlock) Block { return &PageFooter{BaseBlock: b} })
	mustRegister(TypeListGroup, func(b BaseBlock) Block { return &ListGroup{BaseBlock: b} })
	mustRegister(TypeListItem, func(b BaseBlock) Block { return &ListItem{BaseBlock: b} })
	mustRegister(TypeFigureGroup, func(b BaseBlock) Block { return &FigureGroup{BaseBlock: b} })
	mustRegister(TypeTableGroup, func(b BaseBlock) Block { return &TableGroup{BaseBlock: b} })
	mustRegister(TypePictureGroup, func(b BaseBlock) Block { return &PictureGroup{BaseBlock: b} })
	mustRegister(TypeFigure, func(b BaseBlock) Block { return &Figure{BaseBlock: b} })
	mustRegister(TypePicture, func(b BaseBlock) Block { return &Picture{BaseBlock: b} })
	mustRegister(TypeTable, func(b BaseBlock) Block { return &Table{BaseBlock: b} })
	mustRegister(TypeTableCell, func(b BaseBlock) Block { return &TableCell{BaseBlock: b, RowSpan: 1, ColSpan: 1} })
	mustRegister(TypeTableOfContents, func(b BaseBlock) Block { return &TableOfContents{BaseBlock: b} })
	mustRegister(TypeForm, func(b BaseBlock) Block { return &Form{BaseBlock: b} })
	mustRegister(TypeComplexRegion, func(b BaseBlock) Block { return &ComplexRegion{BaseBlock: b} })
	mustRegister(TypeHandwriting, func(b BaseBlock) Block { return &Handwriting{BaseBlock: b} })

	if err := defaultRegistry.Check(); err != nil {
		panic(err)
	}
}
