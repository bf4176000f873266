package tables

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// Engine decides whether pairs of detected tables are fragments of one
// logical table, and optionally merges them.
type Engine struct {
	config MergeConfig
	logger *slog.Logger
}

// NewEngine creates a merge engine with the given configuration
func NewEngine(config MergeConfig) *Engine {
	return &Engine{config: config, logger: config.logger()}
}

// Config returns the engine configuration
func (e *Engine) Config() MergeConfig {
	return e.config
}

// Analyze scores every candidate pair of tables. Pairs are evaluated in
// page order then top-to-bottom. Analysis never mutates the document.
func (e *Engine) Analyze(doc *model.Document) []model.MergeCandidate {
	infos := eligibleTables(doc)
	if len(infos) < 2 {
		return nil
	}
	titles := e.inferTitles(doc, infos)

	pairs := e.candidatePairs(doc, infos)
	candidates := make([]model.MergeCandidate, 0, len(pairs))
	for _, p := range pairs {
		c := e.evaluate(doc, infos[p[0]], infos[p[1]], titles)
		e.logger.Debug("table merge candidate",
			"table_a", c.TableA.String(),
			"table_b", c.TableB.String(),
			"merge_type", string(c.MergeType),
			"confidence", c.Confidence,
			"should_merge", c.ShouldMerge)
		for _, w := range c.Warnings {
			e.logger.Warn("table merge warning",
				"table_a", c.TableA.String(),
				"table_b", c.TableB.String(),
				"warning", w)
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// evaluate scores one pair. a precedes b in candidate order.
func (e *Engine) evaluate(doc *model.Document, a, b *tableInfo, titles map[model.BlockID]*model.InferredTitle) model.MergeCandidate {
	c := model.MergeCandidate{
		TableA: a.table.ID,
		TableB: b.table.ID,
		TitleA: titles[a.table.ID],
		TitleB: titles[b.table.ID],
	}
	for _, t := range []*model.InferredTitle{c.TitleA, c.TitleB} {
		if t != nil && t.Source == model.TypeText {
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("title %q inferred from Text block %s is low confidence", t.Text, t.Block))
		}
	}

	if a.page != b.page {
		c.MergeType = model.MergeAcrossPages
	} else {
		c.MergeType = model.MergeVertical
	}

	if a.grid.IsEmpty() || b.grid.IsEmpty() {
		for _, t := range []*tableInfo{a, b} {
			if t.grid.IsEmpty() {
				c.Warnings = append(c.Warnings, fmt.Sprintf("table %s has zero rows", t.table.ID))
			}
		}
		c.Reasoning = "zero-row table treated as extraction noise; never merged" + e.titleNote(c)
		return c
	}

	var adjacency float64
	switch c.MergeType {
	case model.MergeAcrossPages:
		adjacency = e.acrossPageAdjacency(doc, a, b)
	default:
		v := e.verticalAdjacency(a, b)
		h := e.horizontalAdjacency(a, b)
		adjacency = v
		if h > v {
			c.MergeType = model.MergeHorizontal
			adjacency = h
		}
	}

	var (
		columns float64
		note    string
	)
	if c.MergeType == model.MergeHorizontal {
		columns, note = rowCompatibility(a.grid, b.grid)
	} else {
		var warn string
		columns, note, warn = e.columnCompatibility(a.grid, b.grid)
		if warn != "" {
			c.Warnings = append(c.Warnings, warn)
		}
	}

	n := e.intervening(doc, a, b, c.MergeType)
	intervening := 1 / float64(1+n)

	c.Confidence = clamp(
		WeightColumns*columns+WeightAdjacency*adjacency+WeightIntervening*intervening,
		0, 1)
	c.ShouldMerge = c.Confidence > e.config.Threshold

	verdict := "below"
	if c.ShouldMerge {
		verdict = "above"
	}
	c.Reasoning = fmt.Sprintf(
		"%s: %s; column score %.2f, adjacency %.2f, %d intervening blocks (%.2f); confidence %.2f %s threshold %.2f%s",
		c.MergeType, note, columns, adjacency, n, intervening,
		c.Confidence, verdict, e.config.Threshold, e.titleNote(c))
	return c
}

func (e *Engine) titleNote(c model.MergeCandidate) string {
	var parts []string
	if c.TitleA != nil {
		parts = append(parts, fmt.Sprintf("A titled %q (inferred from %s)", c.TitleA.Text, c.TitleA.Source))
	}
	if c.TitleB != nil {
		parts = append(parts, fmt.Sprintf("B titled %q (inferred from %s)", c.TitleB.Text, c.TitleB.Source))
	}
	if len(parts) == 0 {
		return ""
	}
	return "; " + strings.Join(parts, ", ")
}

// columnCompatibility compares column counts and header text. A
// mismatched count scores low unless a has a header row and b has none,
// which is how a continuation without a repeated header looks.
func (e *Engine) columnCompatibility(a, b *Grid) (float64, string, string) {
	ca, cb := a.ColCount(), b.ColCount()
	ha, hb := a.HasHeaderRow(), b.HasHeaderRow()

	if ca == cb {
		if ha && hb {
			sim := headerSimilarity(a.HeaderTexts(), b.HeaderTexts(), e.config.HeaderMatchThreshold)
			return 0.1 + 0.9*sim, fmt.Sprintf("%d columns each, header similarity %.2f", ca, sim), ""
		}
		return 0.9, fmt.Sprintf("%d columns each, no repeated header", ca), ""
	}

	ratio := float64(min(ca, cb)) / float64(max(ca, cb))
	warn := fmt.Sprintf("column count mismatch: %d vs %d", ca, cb)
	switch {
	case ha && !hb:
		return 0.6 * ratio, fmt.Sprintf("%d vs %d columns, continuation without header", ca, cb), warn
	case ha && hb:
		return 0.2 * ratio, fmt.Sprintf("%d vs %d columns, both with headers", ca, cb), warn
	default:
		return 0.2 * ratio, fmt.Sprintf("%d vs %d columns, no header to explain the mismatch", ca, cb), warn
	}
}

// rowCompatibility is the side-by-side analogue of column compatibility.
func rowCompatibility(a, b *Grid) (float64, string) {
	ra, rb := a.RowCount(), b.RowCount()
	if ra == rb {
		return 1, fmt.Sprintf("%d rows each", ra)
	}
	ratio := float64(min(ra, rb)) / float64(max(ra, rb))
	return 0.5 * ratio, fmt.Sprintf("%d vs %d rows", ra, rb)
}

func (e *Engine) rowUnit(t *tableInfo) float64 {
	rh := t.grid.RowHeight()
	if rh <= 0 && e.config.MaxGapRowMultiple > 0 {
		rh = e.config.MinProximity / e.config.MaxGapRowMultiple
	}
	return rh
}

// verticalAdjacency scores b sitting directly below a: the gap must be at
// most a few row heights and the left/right edges must nearly agree.
func (e *Engine) verticalAdjacency(a, b *tableInfo) float64 {
	rh := e.rowUnit(a)
	maxGap := e.config.MaxGapRowMultiple * rh
	gap := a.box.VerticalGap(b.box)
	if maxGap <= 0 || gap > maxGap || gap < -rh/2 {
		return 0
	}
	gapScore := 1 - 0.5*math.Max(gap, 0)/maxGap
	tol := e.config.ExtentTolerance * math.Max(a.box.Width(), b.box.Width())
	return gapScore * extentScore(a.box.X0, a.box.X1, b.box.X0, b.box.X1, tol)
}

// horizontalAdjacency scores the two tables sitting side by side with
// near-equal top and bottom edges.
func (e *Engine) horizontalAdjacency(a, b *tableInfo) float64 {
	left, right := a, b
	if b.box.X0 < a.box.X0 {
		left, right = b, a
	}
	rh := e.rowUnit(left)
	maxGap := e.config.MaxGapRowMultiple * rh
	gap := left.box.HorizontalGap(right.box)
	if maxGap <= 0 || gap > maxGap || gap < -rh/2 {
		return 0
	}
	gapScore := 1 - 0.5*math.Max(gap, 0)/maxGap
	tol := e.config.ExtentTolerance * math.Max(a.box.Height(), b.box.Height())
	return gapScore * extentScore(a.box.Y0, a.box.Y1, b.box.Y0, b.box.Y1, tol)
}

// acrossPageAdjacency requires the tail of a to end in the bottom margin
// band of its page and b to start in the top band of the next page.
func (e *Engine) acrossPageAdjacency(doc *model.Document, a, b *tableInfo) float64 {
	ha, hb := pageHeight(doc, a.tailPage), pageHeight(doc, b.page)
	band := e.config.PageMarginFraction
	if ha <= 0 || hb <= 0 || band <= 0 {
		return 0
	}
	ma := math.Max(0, (ha-a.tail.Y1)/ha)
	mb := math.Max(0, b.box.Y0/hb)
	if ma > band || mb > band {
		return 0
	}
	score := (1 - 0.5*ma/band) * (1 - 0.5*mb/band)

	tol := e.config.ExtentTolerance * math.Max(a.tail.Width(), b.box.Width())
	ext := extentScore(a.tail.X0, a.tail.X1, b.box.X0, b.box.X1, tol)
	if ext == 0 {
		// Layouts may shift between pages; misaligned edges halve the score.
		ext = 0.5
	}
	return score * ext
}

// extentScore is 1 for identical edges, falling to 0.5 at the tolerance
// and 0 beyond it.
func extentScore(a0, a1, b0, b1, tol float64) float64 {
	if tol <= 0 {
		tol = 1
	}
	d0, d1 := math.Abs(a0-b0), math.Abs(a1-b1)
	if d0 > tol || d1 > tol {
		return 0
	}
	return 1 - (d0+d1)/(4*tol)
}

// intervening counts the non-table content blocks lying between a and b.
func (e *Engine) intervening(doc *model.Document, a, b *tableInfo, mt model.MergeType) int {
	count := func(page int, inside func(model.BBox) bool) int {
		n := 0
		for _, blk := range doc.TopLevelLayout(page) {
			if skipIntervening(blk) {
				continue
			}
			if inside(blk.Base().BBox()) {
				n++
			}
		}
		return n
	}

	switch mt {
	case model.MergeAcrossPages:
		below := count(a.tailPage, func(box model.BBox) bool {
			return box.IsValid() && box.Center().Y > a.tail.Y1
		})
		above := count(b.page, func(box model.BBox) bool {
			return box.IsValid() && box.Center().Y < b.box.Y0
		})
		return below + above

	case model.MergeHorizontal:
		left, right := a.box, b.box
		if right.X0 < left.X0 {
			left, right = right, left
		}
		y0, y1 := math.Min(left.Y0, right.Y0), math.Max(left.Y1, right.Y1)
		return count(a.page, func(box model.BBox) bool {
			c := box.Center()
			return box.IsValid() && c.X > left.X1 && c.X < right.X0 && c.Y >= y0 && c.Y <= y1
		})

	default:
		x0, x1 := math.Min(a.box.X0, b.box.X0), math.Max(a.box.X1, b.box.X1)
		return count(a.page, func(box model.BBox) bool {
			c := box.Center()
			return box.IsValid() && c.Y > a.box.Y1 && c.Y < b.box.Y0 && c.X >= x0 && c.X <= x1
		})
	}
}

func skipIntervening(b model.Block) bool {
	if b.Base().IgnoreForOutput {
		return true
	}
	switch b.Type() {
	case model.TypeTable, model.TypeTableCell, model.TypePageHeader, model.TypePageFooter:
		return true
	}
	return false
}
