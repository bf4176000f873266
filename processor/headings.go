package processor

import (
	"context"
	"sort"

	"github.com/tsawler/docstruct/model"
)

// HeadingConfig holds configuration for section header level assignment
type HeadingConfig struct {
	// MaxLevels caps the number of distinct levels. Smaller headers beyond
	// the last level share it.
	// Default: 4
	MaxLevels int

	// MergeTolerance is the relative height difference under which two
	// headers fall into the same level
	// Default: 0.1
	MergeTolerance float64
}

// DefaultHeadingConfig returns the default configuration
func DefaultHeadingConfig() HeadingConfig {
	return HeadingConfig{MaxLevels: 4, MergeTolerance: 0.1}
}

// SectionHeaderProcessor assigns levels to section headers that arrived
// without one. Header line heights are clustered; the tallest cluster is
// level 1.
type SectionHeaderProcessor struct {
	config HeadingConfig
}

// NewSectionHeaderProcessor creates the section header stage
func NewSectionHeaderProcessor(config HeadingConfig) *SectionHeaderProcessor {
	if config.MaxLevels <= 0 {
		config.MaxLevels = DefaultHeadingConfig().MaxLevels
	}
	return &SectionHeaderProcessor{config: config}
}

// Name returns the stage name
func (p *SectionHeaderProcessor) Name() string { return string(KindSectionHeader) }

// BlockTypes returns the block types the stage touches
func (p *SectionHeaderProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeSectionHeader}
}

// Process assigns levels to section headers that lack one
func (p *SectionHeaderProcessor) Process(ctx context.Context, doc *model.Document) error {
	var headers []*model.SectionHeader
	heights := make(map[model.BlockID]float64)
	missing := false
	for _, b := range doc.BlocksOfType(model.TypeSectionHeader) {
		h := b.(*model.SectionHeader)
		if h.IgnoreForOutput {
			continue
		}
		headers = append(headers, h)
		heights[h.ID] = lineHeight(doc, h)
		if h.Level <= 0 {
			missing = true
		}
	}
	if !missing {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bounds := p.clusters(heights)
	for _, h := range headers {
		if h.Level > 0 {
			continue
		}
		h.Level = levelFor(heights[h.ID], bounds)
	}
	return nil
}

// clusters groups heights from tallest to shortest and returns the lower
// bound of each level.
func (p *SectionHeaderProcessor) clusters(heights map[model.BlockID]float64) []float64 {
	values := make([]float64, 0, len(heights))
	for _, v := range heights {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	var bounds []float64
	top := 0.0
	for _, v := range values {
		if len(bounds) > 0 && (v >= top*(1-p.config.MergeTolerance) || len(bounds) == p.config.MaxLevels) {
			bounds[len(bounds)-1] = v
			continue
		}
		top = v
		bounds = append(bounds, v)
	}
	return bounds
}

func levelFor(height float64, bounds []float64) int {
	for i, b := range bounds {
		if height >= b {
			return i + 1
		}
	}
	return max(len(bounds), 1)
}

// lineHeight is the mean height of a block's lines, or the block height
// when it has no lines.
func lineHeight(doc *model.Document, b model.Block) float64 {
	var sum float64
	var n int
	for _, id := range b.Base().Structure {
		child, ok := doc.Block(id)
		if !ok || child.Type() != model.TypeLine {
			continue
		}
		sum += child.Base().BBox().Height()
		n++
	}
	if n == 0 {
		return b.Base().BBox().Height()
	}
	return sum / float64(n)
}
