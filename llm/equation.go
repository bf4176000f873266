package llm

import (
	"fmt"

	"github.com/tsawler/docstruct/model"
)

const equationPrompt = `You are an expert in mathematical typesetting.
Convert the equation shown in the image to LaTeX. If the existing LaTeX
below already matches the image exactly, return it unchanged.
Respond with a JSON object {"latex": "<latex>"}.

Existing LaTeX:
%s`

var equationSchema = Schema{Name: "equation", Required: []string{"latex"}}

// EquationProcessor recognises or corrects the LaTeX of equation blocks
type EquationProcessor struct{}

// NewEquationProcessor creates the equation stage
func NewEquationProcessor() *EquationProcessor { return &EquationProcessor{} }

// Name returns the stage name
func (p *EquationProcessor) Name() string { return "llm_equation" }

// BlockTypes returns the block types the stage touches
func (p *EquationProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeEquation}
}

// Tasks requests LaTeX for every equation with an image region
func (p *EquationProcessor) Tasks(doc *model.Document, config Config) []Task {
	return imageTasks(doc, config, equationSchema, func(b model.Block) (string, bool) {
		eq := b.(*model.Equation)
		return fmt.Sprintf(equationPrompt, eq.LaTeX), true
	}, model.TypeEquation)
}

// Finalize stores the returned LaTeX
func (p *EquationProcessor) Finalize(doc *model.Document, res Result) error {
	eq, err := lookup[*model.Equation](doc, res.Task.Block)
	if err != nil {
		return err
	}
	latex, err := decodeField(res.Response, "latex")
	if err != nil {
		return err
	}
	eq.LaTeX = latex
	eq.HTML = ""
	return nil
}
