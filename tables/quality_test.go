package tables

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/tsawler/docstruct/model"
)

// ============================================================================
// Evaluator Tests
// ============================================================================

func TestEvaluateWellFormedTable(t *testing.T) {
	doc := newDoc(1)
	table := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 300, Y1: 90}, header3,
		[]string{"Alice", "30", "Paris"},
		[]string{"Bob", "41", "Rome"})

	score, metrics := NewEvaluator(DefaultQualityConfig()).Evaluate(doc, table)
	if math.Abs(score-100) > 1e-9 {
		t.Errorf("score = %v, want 100", score)
	}

	want := map[string]float64{
		MetricRegularity: 1,
		MetricFill:       1,
		MetricDensity:    1,
		MetricHeader:     1,
		MetricRows:       3,
		MetricCols:       3,
		MetricCells:      9,
		MetricEmpty:      0,
	}
	for k, v := range want {
		if got, ok := metrics[k]; !ok || math.Abs(got-v) > 1e-9 {
			t.Errorf("metrics[%s] = %v, want %v", k, got, v)
		}
	}
}

func TestEvaluateZeroRows(t *testing.T) {
	doc := newDoc(1)
	table := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 100, Y1: 50}, nil)

	score, metrics := NewEvaluator(DefaultQualityConfig()).Evaluate(doc, table)
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
	if metrics[MetricEmpty] != 1 {
		t.Errorf("metrics[empty_table] = %v, want 1", metrics[MetricEmpty])
	}
	if metrics[MetricRows] != 0 {
		t.Errorf("metrics[row_count] = %v, want 0", metrics[MetricRows])
	}
}

func TestEvaluateComponentMetrics(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		rows   [][]string
		metric string
		want   func(float64) bool
	}{
		{
			name:   "sparse cells lower fill",
			header: header3,
			rows:   [][]string{{"Alice", "", ""}, {"", "41", ""}},
			metric: MetricFill,
			want:   func(v float64) bool { return math.Abs(v-5.0/9.0) < 1e-9 },
		},
		{
			name:   "ragged rows lower regularity",
			header: header3,
			rows:   [][]string{{"Alice"}, {"Bob", "41", "Rome"}},
			metric: MetricRegularity,
			want:   func(v float64) bool { return v < 1 && v > 0 },
		},
		{
			name:   "overlong cell lowers density",
			header: header3,
			rows:   [][]string{{"Alice", "30", "Paris"}, {strings.Repeat("x", 400), "41", "Rome"}},
			metric: MetricDensity,
			want:   func(v float64) bool { return math.Abs(v-8.0/9.0) < 1e-9 },
		},
		{
			name:   "no styling but textual header",
			header: nil,
			rows:   [][]string{{"Name", "Age"}, {"Alice", "30"}},
			metric: MetricHeader,
			want:   func(v float64) bool { return v == 0.5 },
		},
		{
			name:   "no header cue",
			header: nil,
			rows:   [][]string{{"a", "b"}, {"c", "d"}},
			metric: MetricHeader,
			want:   func(v float64) bool { return v == 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(1)
			table := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 300, Y1: 90}, tt.header, tt.rows...)
			score, metrics := NewEvaluator(DefaultQualityConfig()).Evaluate(doc, table)
			if score < 0 || score > 100 {
				t.Errorf("score = %v, out of [0, 100]", score)
			}
			if got := metrics[tt.metric]; !tt.want(got) {
				t.Errorf("metrics[%s] = %v", tt.metric, got)
			}
		})
	}
}

func TestEvaluateHeaderColumn(t *testing.T) {
	doc := newDoc(1)
	table := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 200, Y1: 60}, nil,
		[]string{"Q1", "10"},
		[]string{"Q2", "20"})
	for _, id := range table.Structure {
		blk, _ := doc.Block(id)
		if cell := blk.(*model.TableCell); cell.Col == 0 {
			cell.Bold = true
		}
	}

	_, metrics := NewEvaluator(DefaultQualityConfig()).Evaluate(doc, table)
	if metrics[MetricHeader] != 0.75 {
		t.Errorf("metrics[header_plausibility] = %v, want 0.75", metrics[MetricHeader])
	}
}

func TestEvaluateIsMonotonicInFill(t *testing.T) {
	full := newDoc(1)
	ft := addTable(t, full, 0, model.BBox{X0: 0, Y0: 0, X1: 300, Y1: 90}, header3,
		[]string{"a", "1", "x"}, []string{"b", "2", "y"})
	sparse := newDoc(1)
	st := addTable(t, sparse, 0, model.BBox{X0: 0, Y0: 0, X1: 300, Y1: 90}, header3,
		[]string{"a", "", "x"}, []string{"b", "2", ""})

	e := NewEvaluator(DefaultQualityConfig())
	fullScore, _ := e.Evaluate(full, ft)
	sparseScore, _ := e.Evaluate(sparse, st)
	if sparseScore >= fullScore {
		t.Errorf("sparse score %.2f should be below full score %.2f", sparseScore, fullScore)
	}
}

func TestQualityProcessor(t *testing.T) {
	doc := newDoc(1)
	visible := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 0, X1: 300, Y1: 90}, header3, []string{"a", "1", "x"})
	ignored := addTable(t, doc, 0, model.BBox{X0: 0, Y0: 200, X1: 300, Y1: 290}, header3, []string{"b", "2", "y"})
	ignored.IgnoreForOutput = true

	p := NewQualityProcessor(DefaultQualityConfig())
	if p.Name() != "table_quality" {
		t.Errorf("Name() = %q, want table_quality", p.Name())
	}
	if err := p.Process(context.Background(), doc); err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	if visible.QualityScore == nil || visible.QualityMetrics == nil {
		t.Error("visible table should be scored")
	}
	if ignored.QualityScore != nil {
		t.Error("ignored table should not be scored")
	}
}

// ============================================================================
// Similarity Tests
// ============================================================================

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Name", "name"},
		{"  Unit   Price ", "unit price"},
		{"ＡＧＥ", "age"},
	}

	for _, tt := range tests {
		if got := normalizeHeader(tt.in); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeaderSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", header3, header3, 1},
		{"case and spacing", header3, []string{"name", " AGE", "city "}, 1},
		{"unrelated", header3, []string{"Product", "Price", "Qty"}, 0},
		{"different lengths", []string{"Name", "Age"}, header3, 2.0 / 3.0},
		{"empty", nil, header3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headerSimilarity(tt.a, tt.b, 0.6)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("headerSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
