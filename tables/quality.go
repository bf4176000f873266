package tables

import (
	"math"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// Metric keys reported by the evaluator
const (
	MetricRegularity = "structural_regularity"
	MetricFill       = "cell_fill_ratio"
	MetricDensity    = "text_density"
	MetricHeader     = "header_plausibility"
	MetricRows       = "row_count"
	MetricCols       = "column_count"
	MetricCells      = "cell_count"
	MetricEmpty      = "empty_table"
)

// Evaluator scores the structural soundness of a table
type Evaluator struct {
	config QualityConfig
}

// NewEvaluator creates an evaluator with the given configuration
func NewEvaluator(config QualityConfig) *Evaluator {
	return &Evaluator{config: config}
}

// Evaluate returns a score in [0, 100] and its component metrics. A table
// with zero rows scores 0 and is flagged with empty_table=1. Evaluation
// never mutates the table.
func (e *Evaluator) Evaluate(doc *model.Document, table *model.Table) (float64, map[string]float64) {
	return e.EvaluateGrid(NewGrid(doc, table))
}

// EvaluateGrid scores an already built grid
func (e *Evaluator) EvaluateGrid(g *Grid) (float64, map[string]float64) {
	metrics := map[string]float64{
		MetricRows:  float64(g.RowCount()),
		MetricCols:  float64(g.ColCount()),
		MetricCells: float64(g.CellCount()),
		MetricEmpty: 0,
	}

	if g.IsEmpty() || g.ColCount() == 0 {
		metrics[MetricEmpty] = 1
		metrics[MetricRegularity] = 0
		metrics[MetricFill] = 0
		metrics[MetricDensity] = 0
		metrics[MetricHeader] = 0
		return 0, metrics
	}

	regularity := e.regularity(g)
	fill := e.fillRatio(g)
	density := e.density(g)
	header := e.headerPlausibility(g)

	metrics[MetricRegularity] = regularity
	metrics[MetricFill] = fill
	metrics[MetricDensity] = density
	metrics[MetricHeader] = header

	score := 100 * (regularity*WeightRegularity +
		fill*WeightFill +
		density*WeightDensity +
		header*WeightHeader)

	return clamp(score, 0, 100), metrics
}

// regularity averages the consistency of row widths and column heights.
func (e *Evaluator) regularity(g *Grid) float64 {
	rowScore := math.Max(0, 1-coefficientOfVariation(g.RowWidths()))
	colScore := math.Max(0, 1-coefficientOfVariation(g.ColHeights()))
	return (rowScore + colScore) / 2
}

// fillRatio is the fraction of rows x cols slots covered by a non-empty cell.
func (e *Evaluator) fillRatio(g *Grid) float64 {
	expected := g.RowCount() * g.ColCount()
	if expected == 0 {
		return 0
	}
	return float64(g.FilledSlots()) / float64(expected)
}

// density is the fraction of non-empty cells whose length is plausible
// relative to the average of their column.
func (e *Evaluator) density(g *Grid) float64 {
	sums := make(map[int]float64)
	counts := make(map[int]float64)
	for i, cell := range g.Cells {
		if g.Texts[i] == "" {
			continue
		}
		sums[cell.Col] += float64(utf8.RuneCountInString(g.Texts[i]))
		counts[cell.Col]++
	}

	plausible, total := 0, 0
	for i, cell := range g.Cells {
		if g.Texts[i] == "" {
			continue
		}
		total++
		n := float64(utf8.RuneCountInString(g.Texts[i]))
		if e.config.MaxCellChars > 0 && n > float64(e.config.MaxCellChars) {
			continue
		}
		// Compare against the average of the other cells in the column.
		others := counts[cell.Col] - 1
		if others <= 0 {
			plausible++
			continue
		}
		avg := (sums[cell.Col] - n) / others
		if n <= avg*e.config.DensityFactor+e.config.DensitySlack {
			plausible++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(plausible) / float64(total)
}

// headerPlausibility rewards a first row or column distinguishable from
// the body by styling, or failing that by position and content type.
func (e *Evaluator) headerPlausibility(g *Grid) float64 {
	switch {
	case g.HasHeaderRow():
		return 1
	case g.HasHeaderColumn():
		return 0.75
	case g.HasTextualHeader():
		return 0.5
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
