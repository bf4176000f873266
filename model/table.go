package model

// Table is a detected table. Its structure lists TableCell ids.
//
// The extraction, quality and merge fields are optional: an empty string,
// nil pointer or nil map means the field was never set.
type Table struct {
	BaseBlock

	ExtractionMethod  string
	ExtractionDetails map[string]any

	QualityScore   *float64
	QualityMetrics map[string]float64

	MergeInfo *MergeInfo
}

// SetQuality attaches a quality score and its component metrics.
func (t *Table) SetQuality(score float64, metrics map[string]float64) {
	t.QualityScore = &score
	t.QualityMetrics = metrics
}

// TableCell is one cell of a table grid (0-indexed row and column).
type TableCell struct {
	BaseBlock
	Row      int
	Col      int
	RowSpan  int
	ColSpan  int
	IsHeader bool
	Bold     bool
	Text     string
}

// MergeType classifies how two table fragments relate.
type MergeType string

const (
	MergeVertical    MergeType = "vertical"
	MergeHorizontal  MergeType = "horizontal"
	MergeAcrossPages MergeType = "across_pages"
)

// MergeInfo records the provenance of a table synthesised from fragments.
type MergeInfo struct {
	MergeType       MergeType       `json:"merge_type"`
	MergeMethod     string          `json:"merge_method"`
	MergeConfidence float64         `json:"merge_confidence"`
	OriginalTables  []OriginalTable `json:"original_tables"`
	OriginalCount   int             `json:"original_count"`
}

// Contains reports whether id is one of the recorded original tables.
func (m *MergeInfo) Contains(id BlockID) bool {
	if m == nil {
		return false
	}
	for _, o := range m.OriginalTables {
		if o.ID == id {
			return true
		}
	}
	return false
}

// OriginalTable is one fragment that went into a merged table.
type OriginalTable struct {
	ID   BlockID    `json:"id"`
	Page int        `json:"page"`
	BBox [4]float64 `json:"bbox"`
}

// InferredTitle is a caption-like block attached to a table for audit
// purposes only.
type InferredTitle struct {
	Block      BlockID   `json:"block_id"`
	Source     BlockType `json:"source"`
	Text       string    `json:"text"`
	IsInferred bool      `json:"is_inferred"`
}

// MergeCandidate is the merge engine's verdict on one pair of tables.
type MergeCandidate struct {
	TableA      BlockID        `json:"table_a_id"`
	TableB      BlockID        `json:"table_b_id"`
	ShouldMerge bool           `json:"should_merge"`
	Confidence  float64        `json:"confidence"`
	MergeType   MergeType      `json:"merge_type"`
	Reasoning   string         `json:"reasoning"`
	Warnings    []string       `json:"warnings,omitempty"`
	TitleA      *InferredTitle `json:"title_a,omitempty"`
	TitleB      *InferredTitle `json:"title_b,omitempty"`
}
