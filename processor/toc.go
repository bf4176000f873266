package processor

import (
	"context"

	"github.com/tsawler/docstruct/model"
)

// TOCProcessor builds the document table of contents from the visible
// section headers in reading order.
type TOCProcessor struct{}

// NewTOCProcessor creates the table of contents stage
func NewTOCProcessor() *TOCProcessor { return &TOCProcessor{} }

// Name returns the stage name
func (p *TOCProcessor) Name() string { return string(KindDocumentTOC) }

// BlockTypes returns the block types the stage touches
func (p *TOCProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeSectionHeader}
}

// Process fills the document table of contents from section headers
func (p *TOCProcessor) Process(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	toc := make([]model.TOCEntry, 0)
	for _, b := range doc.BlocksOfType(model.TypeSectionHeader) {
		h := b.(*model.SectionHeader)
		if h.IgnoreForOutput {
			continue
		}
		title := doc.Text(h)
		if title == "" {
			continue
		}
		toc = append(toc, model.TOCEntry{
			Title:        title,
			HeadingLevel: max(h.Level, 1),
			PageID:       h.ID.Page,
			Block:        h.ID,
			Polygon:      h.Polygon,
		})
	}
	doc.Metadata.TableOfContents = toc
	return nil
}
