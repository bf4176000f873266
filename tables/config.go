package tables

import "log/slog"

// Quality score weights. Each component metric lies in [0, 1] and the
// score is 100 times their weighted sum, so it is monotonic in every metric.
const (
	WeightRegularity = 0.30
	WeightFill       = 0.30
	WeightDensity    = 0.20
	WeightHeader     = 0.20
)

// Merge confidence weights and the decision threshold. should_merge is true
// iff the weighted confidence exceeds MergeThreshold.
const (
	WeightColumns     = 0.40
	WeightAdjacency   = 0.35
	WeightIntervening = 0.25

	DefaultMergeThreshold = 0.7
)

// QualityConfig holds evaluator parameters
type QualityConfig struct {
	// A cell is implausibly long when its text exceeds DensityFactor times
	// the column average plus DensitySlack characters.
	DensityFactor float64
	DensitySlack  float64

	// Cells longer than this are always implausible
	MaxCellChars int
}

// DefaultQualityConfig returns default evaluator configuration
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		DensityFactor: 3.0,
		DensitySlack:  20,
		MaxCellChars:  1000,
	}
}

// MergeConfig holds merge engine configuration
type MergeConfig struct {
	// Confidence threshold for should_merge
	Threshold float64

	// Maximum gap between fragments, as a multiple of table A's row height
	MaxGapRowMultiple float64

	// Allowed difference between edges on the shared axis, as a fraction
	// of the larger table extent
	ExtentTolerance float64

	// Fraction of the page height treated as the top/bottom margin band
	// for across-page continuation
	PageMarginFraction float64

	// Minimum padding used by the proximity filter, in page units
	MinProximity float64

	// Per-column similarity below this does not count as a header match
	HeaderMatchThreshold float64

	// Maximum characters of a text block that may be inferred as a title
	MaxTitleChars int

	// Apply merges after analysis instead of only recording candidates
	Apply bool

	// Logger receives candidate decisions and warnings. nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultMergeConfig returns default merge engine configuration
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		Threshold:            DefaultMergeThreshold,
		MaxGapRowMultiple:    3.0,
		ExtentTolerance:      0.10,
		PageMarginFraction:   0.2,
		MinProximity:         20,
		HeaderMatchThreshold: 0.6,
		MaxTitleChars:        200,
	}
}

func (c MergeConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
