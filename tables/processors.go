package tables

import (
	"context"

	"github.com/tsawler/docstruct/model"
)

// QualityProcessor is the pipeline stage that scores every visible table
type QualityProcessor struct {
	evaluator *Evaluator
}

// NewQualityProcessor creates the table quality stage
func NewQualityProcessor(config QualityConfig) *QualityProcessor {
	return &QualityProcessor{evaluator: NewEvaluator(config)}
}

// Name returns the stage name
func (p *QualityProcessor) Name() string { return "table_quality" }

// BlockTypes returns the block types the stage touches
func (p *QualityProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeTable}
}

// Process attaches quality_score and quality_metrics to each table
func (p *QualityProcessor) Process(ctx context.Context, doc *model.Document) error {
	for _, b := range doc.BlocksOfType(model.TypeTable) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := b.(*model.Table)
		if t.IgnoreForOutput {
			continue
		}
		score, metrics := p.evaluator.Evaluate(doc, t)
		t.SetQuality(score, metrics)
	}
	return nil
}

// MergeProcessor is the pipeline stage that analyses, and when configured
// applies, table merges. Candidates are stored in the document metadata.
type MergeProcessor struct {
	engine *Engine
}

// NewMergeProcessor creates the table merge stage
func NewMergeProcessor(config MergeConfig) *MergeProcessor {
	return &MergeProcessor{engine: NewEngine(config)}
}

// Name returns the stage name
func (p *MergeProcessor) Name() string { return "table_merge" }

// BlockTypes returns the block types the stage touches
func (p *MergeProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeTable, model.TypeTableCell}
}

// Process runs the merge engine. With Apply unset it only records the
// analysis; otherwise the applied merges are recorded followed by the
// remaining candidates of the merged document.
func (p *MergeProcessor) Process(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.engine.config.Apply {
		doc.Metadata.TableMergeCandidates = p.engine.Analyze(doc)
		return nil
	}

	applied, err := p.engine.Apply(doc)
	if err != nil {
		return err
	}
	doc.Metadata.TableMergeCandidates = append(applied, p.engine.Analyze(doc)...)
	return nil
}
