package llm

import (
	"github.com/tsawler/docstruct/model"
)

const picturePrompt = `Describe the image in two or three sentences for a reader
who cannot see it. Mention any text, data or labels it contains.
Respond with a JSON object {"description": "<description>"}.`

var pictureSchema = Schema{Name: "picture_description", Required: []string{"description"}}

// PictureDescriptionProcessor writes descriptions for pictures and figures
// that do not have one yet.
type PictureDescriptionProcessor struct{}

// NewPictureDescriptionProcessor creates the picture description stage
func NewPictureDescriptionProcessor() *PictureDescriptionProcessor {
	return &PictureDescriptionProcessor{}
}

// Name returns the stage name
func (p *PictureDescriptionProcessor) Name() string { return "llm_picture_description" }

// BlockTypes returns the block types the stage touches
func (p *PictureDescriptionProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypePicture, model.TypeFigure}
}

// Tasks requests a description for every undescribed picture or figure
func (p *PictureDescriptionProcessor) Tasks(doc *model.Document, config Config) []Task {
	return imageTasks(doc, config, pictureSchema, func(b model.Block) (string, bool) {
		return picturePrompt, describedText(b) == ""
	}, model.TypePicture, model.TypeFigure)
}

// Finalize stores the description on the block
func (p *PictureDescriptionProcessor) Finalize(doc *model.Document, res Result) error {
	blk, err := lookup[model.Block](doc, res.Task.Block)
	if err != nil {
		return err
	}
	desc, err := decodeField(res.Response, "description")
	if err != nil {
		return err
	}
	switch v := blk.(type) {
	case *model.Picture:
		v.Description = desc
	case *model.Figure:
		v.Description = desc
	}
	return nil
}

func describedText(b model.Block) string {
	switch v := b.(type) {
	case *model.Picture:
		return v.Description
	case *model.Figure:
		return v.Description
	}
	return ""
}
