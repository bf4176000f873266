package llm

import (
	"github.com/tsawler/docstruct/model"
)

const handwritingPrompt = `Transcribe the handwritten text in the image exactly as
written, preserving line breaks. Do not add commentary.
Respond with a JSON object {"text": "<transcription>"}.`

var handwritingSchema = Schema{Name: "handwriting", Required: []string{"text"}}

// HandwritingProcessor transcribes handwriting blocks
type HandwritingProcessor struct{}

// NewHandwritingProcessor creates the handwriting stage
func NewHandwritingProcessor() *HandwritingProcessor { return &HandwritingProcessor{} }

// Name returns the stage name
func (p *HandwritingProcessor) Name() string { return "llm_handwriting" }

// BlockTypes returns the block types the stage touches
func (p *HandwritingProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeHandwriting, model.TypeLine, model.TypeSpan}
}

// Tasks requests a transcription for every handwriting block
func (p *HandwritingProcessor) Tasks(doc *model.Document, config Config) []Task {
	return imageTasks(doc, config, handwritingSchema, func(model.Block) (string, bool) {
		return handwritingPrompt, true
	}, model.TypeHandwriting)
}

// Finalize replaces the block's lines with a single line holding the
// transcription. The previous lines are orphaned, not destroyed.
func (p *HandwritingProcessor) Finalize(doc *model.Document, res Result) error {
	hw, err := lookup[*model.Handwriting](doc, res.Task.Block)
	if err != nil {
		return err
	}
	text, err := decodeField(res.Response, "text")
	if err != nil {
		return err
	}

	line, err := doc.NewBlock(hw.ID.Page, model.TypeLine, hw.Polygon.Clone())
	if err != nil {
		return err
	}
	span, err := doc.NewBlock(hw.ID.Page, model.TypeSpan, hw.Polygon.Clone())
	if err != nil {
		return err
	}
	span.(*model.Span).Text = text
	line.Base().AddChild(span.Base().ID)
	hw.Structure = []model.BlockID{line.Base().ID}
	hw.HTML = ""
	return nil
}
