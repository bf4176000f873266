package processor

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// FurnitureConfig holds configuration for running header/footer detection
type FurnitureConfig struct {
	// HeaderRegionRatio is the fraction of the page height from the top
	// considered the header zone
	// Default: 0.1
	HeaderRegionRatio float64

	// FooterRegionRatio is the fraction of the page height from the bottom
	// considered the footer zone
	// Default: 0.1
	FooterRegionRatio float64

	// MinOccurrenceRatio is the minimum fraction of pages a text must appear on
	// Default: 0.5
	MinOccurrenceRatio float64

	// PositionTolerance is the maximum offset between occurrences, as a
	// fraction of the page height
	// Default: 0.02
	PositionTolerance float64

	// MinPages is the minimum number of pages a text must repeat on
	// Default: 2
	MinPages int
}

// DefaultFurnitureConfig returns the default detection configuration
func DefaultFurnitureConfig() FurnitureConfig {
	return FurnitureConfig{
		HeaderRegionRatio:  0.1,
		FooterRegionRatio:  0.1,
		MinOccurrenceRatio: 0.5,
		PositionTolerance:  0.02,
		MinPages:           2,
	}
}

type region int

const (
	headerRegion region = iota
	footerRegion
)

// FurnitureProcessor hides page headers and footers. Explicit PageHeader
// and PageFooter blocks are always hidden; Text blocks are hidden when the
// same text recurs in the same margin band across enough pages.
type FurnitureProcessor struct {
	config FurnitureConfig
}

// NewFurnitureProcessor creates the page furniture stage
func NewFurnitureProcessor(config FurnitureConfig) *FurnitureProcessor {
	return &FurnitureProcessor{config: config}
}

// Name returns the stage name
func (p *FurnitureProcessor) Name() string { return string(KindPageHeader) }

// BlockTypes returns the block types the stage touches
func (p *FurnitureProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypePageHeader, model.TypePageFooter, model.TypeText}
}

// Process marks page furniture and repeated margin text ignored
func (p *FurnitureProcessor) Process(ctx context.Context, doc *model.Document) error {
	for _, b := range doc.BlocksOfType(model.TypePageHeader, model.TypePageFooter) {
		b.Base().IgnoreForOutput = true
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	minPages := max(p.config.MinPages, int(math.Ceil(float64(doc.PageCount())*p.config.MinOccurrenceRatio)))
	if doc.PageCount() < minPages {
		return nil
	}

	groups := make(map[groupKey][]candidate)
	var order []groupKey
	for _, c := range p.candidates(doc) {
		key := groupKey{region: c.region, text: normalizeForComparison(c.text)}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	for _, key := range order {
		group := groups[key]
		if len(key.text) <= 2 && !isPageNumberPattern(key.text) {
			continue
		}
		pages := make(map[int]bool)
		for _, c := range group {
			pages[c.block.Base().ID.Page] = true
		}
		if len(pages) < minPages || !p.consistentPosition(group) {
			continue
		}
		for _, c := range group {
			c.block.Base().IgnoreForOutput = true
		}
	}
	return nil
}

type groupKey struct {
	region region
	text   string
}

// candidate is a top-level Text block inside a margin band. offset is the
// distance from the nearest page edge as a fraction of the page height.
type candidate struct {
	block  model.Block
	region region
	offset float64
	text   string
}

func (p *FurnitureProcessor) candidates(doc *model.Document) []candidate {
	var out []candidate
	for _, page := range doc.Pages {
		h := page.Height()
		if h <= 0 {
			continue
		}
		for _, id := range page.Structure {
			b, ok := doc.Block(id)
			if !ok || b.Type() != model.TypeText || b.Base().IgnoreForOutput {
				continue
			}
			text := strings.TrimSpace(doc.Text(b))
			if text == "" {
				continue
			}
			box := b.Base().BBox()
			switch {
			case box.Y1 <= h*p.config.HeaderRegionRatio:
				out = append(out, candidate{block: b, region: headerRegion, offset: box.Y0 / h, text: text})
			case box.Y0 >= h*(1-p.config.FooterRegionRatio):
				out = append(out, candidate{block: b, region: footerRegion, offset: (h - box.Y1) / h, text: text})
			}
		}
	}
	return out
}

// consistentPosition checks that every occurrence sits at the same offset
// as the first one.
func (p *FurnitureProcessor) consistentPosition(group []candidate) bool {
	if len(group) < 2 {
		return false
	}
	ref := group[0].offset
	for _, c := range group[1:] {
		if math.Abs(c.offset-ref) > p.config.PositionTolerance {
			return false
		}
	}
	return true
}

var digits = regexp.MustCompile(`\d+`)

// normalizeForComparison replaces digit runs so numbered furniture groups
// together
func normalizeForComparison(text string) string {
	return digits.ReplaceAllString(strings.TrimSpace(text), "#")
}

var pageNumberPatterns = []string{
	"#",
	"page #",
	"- # -",
	"# of #",
	"page # of #",
	"#/#",
	"p. #",
	"p.#",
	"pg #",
	"pg. #",
}

// isPageNumberPattern checks if normalized text looks like a page number
func isPageNumberPattern(normalized string) bool {
	trimmed := strings.TrimSpace(normalized)
	for _, pattern := range pageNumberPatterns {
		if strings.EqualFold(trimmed, pattern) {
			return true
		}
	}
	return false
}
