package model

import (
	"errors"
	"fmt"
	"strings"
)

// Document owns the pages and is the only owner of block storage. Blocks
// refer to each other by id through the document's block map.
type Document struct {
	Pages    []*Page
	Metadata Metadata

	registry *Registry
	blocks   map[BlockID]Block
	nextSeq  map[seqKey]int
}

type seqKey struct {
	page int
	typ  BlockType
}

// Metadata contains document-level information
type Metadata struct {
	TableOfContents      []TOCEntry       `json:"table_of_contents"`
	Languages            []string         `json:"languages"`
	TableMergeCandidates []MergeCandidate `json:"table_merge_candidates,omitempty"`
}

// TOCEntry represents an entry in the table of contents
type TOCEntry struct {
	Title        string  `json:"title"`
	HeadingLevel int     `json:"heading_level"`
	PageID       int     `json:"page_id"`
	Block        BlockID `json:"block_id"`
	Polygon      Polygon `json:"polygon"`
}

// NewDocument creates a new empty document backed by the given registry,
// or the default registry when reg is nil.
func NewDocument(reg *Registry) *Document {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Document{
		Metadata: Metadata{
			TableOfContents: make([]TOCEntry, 0),
			Languages:       make([]string, 0),
		},
		Pages:    make([]*Page, 0),
		registry: reg,
		blocks:   make(map[BlockID]Block),
		nextSeq:  make(map[seqKey]int),
	}
}

// Registry returns the registry used to construct blocks
func (d *Document) Registry() *Registry {
	return d.registry
}

// AddPage appends a page and assigns its index
func (d *Document) AddPage(page *Page) {
	page.Index = len(d.Pages)
	d.Pages = append(d.Pages, page)
}

// Page returns a page by index, or nil when out of range
func (d *Document) Page(index int) *Page {
	if index < 0 || index >= len(d.Pages) {
		return nil
	}
	return d.Pages[index]
}

// PageCount returns the total number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Block looks up a block by id
func (d *Document) Block(id BlockID) (Block, bool) {
	b, ok := d.blocks[id]
	return b, ok
}

// BlockCount returns the number of stored blocks, including orphaned and
// ignored ones.
func (d *Document) BlockCount() int {
	return len(d.blocks)
}

// NewBlock allocates the next id for (page, t), constructs the variant and
// stores it. The block is not attached to any structure.
func (d *Document) NewBlock(page int, t BlockType, polygon Polygon) (Block, error) {
	key := seqKey{page: page, typ: t}
	id := BlockID{Page: page, Type: t, Seq: d.nextSeq[key]}
	b, err := d.registry.New(id, BaseBlock{Polygon: polygon})
	if err != nil {
		return nil, err
	}
	d.nextSeq[key]++
	d.blocks[id] = b
	return b, nil
}

// Contained resolves the children of a block in structure order.
func (d *Document) Contained(b Block) ([]Block, error) {
	base := b.Base()
	children := make([]Block, 0, len(base.Structure))
	for _, id := range base.Structure {
		child, ok := d.blocks[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s references %s", ErrDanglingReference, base.ID, id)
		}
		children = append(children, child)
	}
	return children, nil
}

// Walk visits every block reachable from the pages depth-first, in page
// order and then structure order. Each block is visited once. Returning an
// error from fn stops the walk.
func (d *Document) Walk(fn func(b Block, depth int) error) error {
	seen := make(map[BlockID]bool)
	var visit func(ids []BlockID, depth int) error
	visit = func(ids []BlockID, depth int) error {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			b, ok := d.blocks[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrDanglingReference, id)
			}
			if err := fn(b, depth); err != nil {
				return err
			}
			if err := visit(b.Base().Structure, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, page := range d.Pages {
		if err := visit(page.Structure, 0); err != nil {
			return err
		}
	}
	return nil
}

// BlocksOfType returns the reachable blocks whose tag is one of types, in
// walk order. Dangling references are skipped; use Validate to detect them.
func (d *Document) BlocksOfType(types ...BlockType) []Block {
	want := make(map[BlockType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Block
	seen := make(map[BlockID]bool)
	var visit func(ids []BlockID)
	visit = func(ids []BlockID) {
		for _, id := range ids {
			b, ok := d.blocks[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			if want[b.Type()] {
				out = append(out, b)
			}
			visit(b.Base().Structure)
		}
	}
	for _, page := range d.Pages {
		visit(page.Structure)
	}
	return out
}

// TopLevelLayout returns the top-level blocks of a page with grouping
// blocks replaced by their children.
func (d *Document) TopLevelLayout(page int) []Block {
	p := d.Page(page)
	if p == nil {
		return nil
	}
	var out []Block
	for _, id := range p.Structure {
		b, ok := d.blocks[id]
		if !ok {
			continue
		}
		if !b.Type().IsGroup() {
			out = append(out, b)
			continue
		}
		for _, cid := range b.Base().Structure {
			if child, ok := d.blocks[cid]; ok {
				out = append(out, child)
			}
		}
	}
	return out
}

// ParentStructure returns the structure list that holds id (a page's or a
// block's) and the position of id within it.
func (d *Document) ParentStructure(id BlockID) ([]BlockID, int, bool) {
	if p := d.Page(id.Page); p != nil {
		for i, c := range p.Structure {
			if c == id {
				return p.Structure, i, true
			}
		}
	}
	var found []BlockID
	index := -1
	_ = d.Walk(func(b Block, _ int) error {
		for i, c := range b.Base().Structure {
			if c == id {
				found, index = b.Base().Structure, i
				return errStopWalk
			}
		}
		return nil
	})
	if index < 0 {
		return nil, -1, false
	}
	return found, index, true
}

var errStopWalk = errors.New("stop walk")

// Text returns the plain text of a block and its descendants.
func (d *Document) Text(b Block) string {
	switch v := b.(type) {
	case *Span:
		return v.Text
	case *Code:
		if v.Code != "" {
			return v.Code
		}
	case *Equation:
		if v.LaTeX != "" {
			return v.LaTeX
		}
	case *TableCell:
		if v.Text != "" || len(v.Structure) == 0 {
			return v.Text
		}
	}

	if b.Type() == TypeLine {
		var sb strings.Builder
		for _, id := range b.Base().Structure {
			if child, ok := d.blocks[id]; ok {
				sb.WriteString(d.Text(child))
			}
		}
		return strings.TrimSpace(sb.String())
	}

	parts := make([]string, 0, len(b.Base().Structure))
	for _, id := range b.Base().Structure {
		child, ok := d.blocks[id]
		if !ok {
			continue
		}
		if t := strings.TrimSpace(d.Text(child)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks that every id in every structure list resolves.
func (d *Document) Validate() error {
	for _, page := range d.Pages {
		for _, id := range page.Structure {
			if _, ok := d.blocks[id]; !ok {
				return fmt.Errorf("%w: page %d references %s", ErrDanglingReference, page.Index, id)
			}
		}
	}
	for id, b := range d.blocks {
		for _, cid := range b.Base().Structure {
			if _, ok := d.blocks[cid]; !ok {
				return fmt.Errorf("%w: %s references %s", ErrDanglingReference, id, cid)
			}
		}
	}
	return nil
}
