package processor

import (
	"context"

	"github.com/tsawler/docstruct/model"
)

// FootnoteProcessor moves each page's top-level footnotes to the end of
// the page, keeping their relative order.
type FootnoteProcessor struct{}

// NewFootnoteProcessor creates the footnote stage
func NewFootnoteProcessor() *FootnoteProcessor { return &FootnoteProcessor{} }

// Name returns the stage name
func (p *FootnoteProcessor) Name() string { return string(KindFootnote) }

// BlockTypes returns the block types the stage touches
func (p *FootnoteProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeFootnote}
}

// Process moves top-level footnotes to the end of each page
func (p *FootnoteProcessor) Process(ctx context.Context, doc *model.Document) error {
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		body := make([]model.BlockID, 0, len(page.Structure))
		var notes []model.BlockID
		for _, id := range page.Structure {
			if id.Type == model.TypeFootnote {
				notes = append(notes, id)
			} else {
				body = append(body, id)
			}
		}
		if len(notes) > 0 {
			page.Structure = append(body, notes...)
		}
	}
	return nil
}
