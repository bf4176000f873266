package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/docstruct/model"
)

// ErrMissingBlock is wrapped by Error when a structure entry does not resolve
var ErrMissingBlock = errors.New("render: missing block")

// Error reports the block that could not be rendered.
type Error struct {
	Block model.BlockID
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Block, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds renderer settings
type Config struct {
	// Indent pretty-prints Marshal output when non-empty
	Indent string

	// Logger receives render summaries. nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns compact output
func DefaultConfig() Config {
	return Config{}
}

// Node is one rendered block. Optional fields are omitted when unset.
type Node struct {
	ID               string            `json:"id"`
	BlockType        string            `json:"block_type"`
	HTML             string            `json:"html"`
	Polygon          model.Polygon     `json:"polygon"`
	BBox             [4]float64        `json:"bbox"`
	SectionHierarchy map[string]string `json:"section_hierarchy"`
	Children         []*Node           `json:"children,omitempty"`

	HeadingLevel int    `json:"heading_level,omitempty"`
	Language     string `json:"language,omitempty"`
	Description  string `json:"description,omitempty"`

	// Table only
	ExtractionMethod  string             `json:"extraction_method,omitempty"`
	ExtractionDetails map[string]any     `json:"extraction_details,omitempty"`
	QualityScore      *float64           `json:"quality_score,omitempty"`
	QualityMetrics    map[string]float64 `json:"quality_metrics,omitempty"`
	MergeInfo         *model.MergeInfo   `json:"merge_info,omitempty"`
}

// DocumentOutput is the top-level JSON object.
type DocumentOutput struct {
	Children  []*Node        `json:"children"`
	BlockType string         `json:"block_type"`
	Metadata  model.Metadata `json:"metadata"`
}

// Renderer walks a document into its JSON form.
type Renderer struct {
	config Config
	logger *slog.Logger
}

// NewRenderer creates a renderer
func NewRenderer(config Config) *Renderer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{config: config, logger: logger}
}

// Marshal renders the document and encodes it as JSON. HTML fragments are
// written unescaped.
func (r *Renderer) Marshal(doc *model.Document) ([]byte, error) {
	out, err := r.Render(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.config.Indent != "" {
		enc.SetIndent("", r.config.Indent)
	}
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Render walks the pages depth-first. Ignored blocks are left out; a
// structure entry that does not resolve fails the render.
func (r *Renderer) Render(doc *model.Document) (*DocumentOutput, error) {
	w := &walk{doc: doc, seen: make(map[model.BlockID]bool)}
	out := &DocumentOutput{
		Children:  make([]*Node, 0, len(doc.Pages)),
		BlockType: "Document",
		Metadata:  doc.Metadata,
	}
	for _, page := range doc.Pages {
		node, err := w.page(page)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, node)
	}
	r.logger.Debug("rendered document", "pages", len(out.Children), "nodes", w.nodes)
	return out, nil
}

// walk carries the hierarchy across the whole document.
type walk struct {
	doc     *model.Document
	tracker Tracker
	seen    map[model.BlockID]bool
	nodes   int
}

// visit resolves id, failing on a missing block or a second visit.
func (w *walk) visit(id model.BlockID) (model.Block, error) {
	b, ok := w.doc.Block(id)
	if !ok {
		return nil, &Error{Block: id, Err: ErrMissingBlock}
	}
	if w.seen[id] {
		return nil, &Error{Block: id, Err: model.ErrCyclicStructure}
	}
	w.seen[id] = true
	return b, nil
}

func (w *walk) page(page *model.Page) (*Node, error) {
	node := &Node{
		ID:               page.ID(),
		BlockType:        "Page",
		Polygon:          page.Polygon,
		BBox:             page.BBox().Slice(),
		SectionHierarchy: w.tracker.Snapshot(),
		Children:         make([]*Node, 0, len(page.Structure)),
	}
	var html []byte
	for _, id := range page.Structure {
		child, childHTML, err := w.block(id)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		node.Children = append(node.Children, child)
		html = append(html, childHTML...)
	}
	node.HTML = string(html)
	return node, nil
}

// block renders one block as a node. It returns a nil node for ignored
// blocks.
func (w *walk) block(id model.BlockID) (*Node, string, error) {
	b, err := w.visit(id)
	if err != nil {
		return nil, "", err
	}
	base := b.Base()
	if base.IgnoreForOutput {
		return nil, "", nil
	}
	if h, ok := b.(*model.SectionHeader); ok {
		w.tracker.Enter(h.Level, w.doc.Text(h))
	}

	node := newNode(b, w.tracker.Snapshot())
	w.nodes++

	children := make(map[model.BlockID]string, len(base.Structure))
	if isContainer(b.Type()) {
		node.Children = make([]*Node, 0, len(base.Structure))
		for _, cid := range base.Structure {
			child, childHTML, err := w.block(cid)
			if err != nil {
				return nil, "", err
			}
			if child != nil {
				node.Children = append(node.Children, child)
			}
			children[cid] = childHTML
		}
	} else {
		for _, cid := range base.Structure {
			childHTML, err := w.html(cid)
			if err != nil {
				return nil, "", err
			}
			children[cid] = childHTML
		}
	}

	html, err := blockHTML(w.doc, b, children)
	if err != nil {
		return nil, "", err
	}
	node.HTML = html
	return node, html, nil
}

// html renders the markup of a block nested in a leaf-shaped parent.
func (w *walk) html(id model.BlockID) (string, error) {
	b, err := w.visit(id)
	if err != nil {
		return "", err
	}
	if b.Base().IgnoreForOutput {
		return "", nil
	}
	children := make(map[model.BlockID]string, len(b.Base().Structure))
	for _, cid := range b.Base().Structure {
		childHTML, err := w.html(cid)
		if err != nil {
			return "", err
		}
		children[cid] = childHTML
	}
	return blockHTML(w.doc, b, children)
}

// isContainer reports the variants whose children are rendered as nodes.
func isContainer(t model.BlockType) bool {
	switch t {
	case model.TypeListGroup, model.TypeFigureGroup, model.TypeTableGroup,
		model.TypePictureGroup, model.TypeTableOfContents:
		return true
	}
	return false
}

func newNode(b model.Block, hierarchy map[string]string) *Node {
	base := b.Base()
	node := &Node{
		ID:               base.ID.String(),
		BlockType:        b.Type().String(),
		Polygon:          base.Polygon,
		BBox:             base.BBox().Slice(),
		SectionHierarchy: hierarchy,
	}

	switch v := b.(type) {
	case *model.SectionHeader:
		node.HeadingLevel = v.Level
	case *model.Code:
		node.Language = v.Language
	case *model.Picture:
		node.Description = v.Description
	case *model.Figure:
		node.Description = v.Description
	case *model.Table:
		node.ExtractionMethod = v.ExtractionMethod
		if len(v.ExtractionDetails) > 0 {
			node.ExtractionDetails = v.ExtractionDetails
		}
		node.QualityScore = v.QualityScore
		if len(v.QualityMetrics) > 0 {
			node.QualityMetrics = v.QualityMetrics
		}
		node.MergeInfo = v.MergeInfo
	}
	return node
}
