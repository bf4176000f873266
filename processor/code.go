package processor

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// CodeProcessor rebuilds the text of code blocks that only carry lines.
// Indentation is inferred from each line's offset from the leftmost line,
// measured in the block's average character width.
type CodeProcessor struct{}

// NewCodeProcessor creates the code formatting stage
func NewCodeProcessor() *CodeProcessor { return &CodeProcessor{} }

// Name returns the stage name
func (p *CodeProcessor) Name() string { return string(KindCode) }

// BlockTypes returns the block types the stage touches
func (p *CodeProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeCode}
}

// Process rebuilds the text of code blocks from their lines
func (p *CodeProcessor) Process(ctx context.Context, doc *model.Document) error {
	for _, b := range doc.BlocksOfType(model.TypeCode) {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := b.(*model.Code)
		if code.Code != "" {
			continue
		}
		code.Code = formatCode(doc, code)
	}
	return nil
}

type codeLine struct {
	x0    float64
	width float64
	text  string
}

func formatCode(doc *model.Document, code *model.Code) string {
	var lines []codeLine
	for _, id := range code.Structure {
		child, ok := doc.Block(id)
		if !ok || child.Type() != model.TypeLine {
			continue
		}
		box := child.Base().BBox()
		lines = append(lines, codeLine{x0: box.X0, width: box.Width(), text: doc.Text(child)})
	}
	if len(lines) == 0 {
		return ""
	}

	minX := lines[0].x0
	var widthSum float64
	var chars int
	for _, l := range lines {
		minX = math.Min(minX, l.x0)
		if n := utf8.RuneCountInString(l.text); n > 0 {
			widthSum += l.width
			chars += n
		}
	}
	charWidth := 0.0
	if chars > 0 {
		charWidth = widthSum / float64(chars)
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		indent := 0
		if charWidth > 0 {
			indent = int(math.Round((l.x0 - minX) / charWidth))
		}
		out[i] = strings.Repeat(" ", indent) + l.text
	}
	return strings.Join(out, "\n")
}
