// Package tables provides table quality evaluation and the table merge
// engine.
//
// # Grid
//
// [Grid] is a row/column view over the TableCell children of a table,
// honouring row and column spans. Both the evaluator and the merge engine
// read tables through it.
//
// # Quality Evaluation
//
// [Evaluator] scores a table in [0, 100]:
//
//	score, metrics := tables.NewEvaluator(tables.DefaultQualityConfig()).Evaluate(doc, table)
//
// The score is 100 times a weighted sum of four metrics in [0, 1]:
//
//   - Structural regularity (30%) - consistency of row widths and column heights
//   - Cell fill ratio (30%) - fraction of rows x cols slots holding text
//   - Text density (20%) - fraction of cells with plausible length for their column
//   - Header plausibility (20%) - first row or column styled apart from the body
//
// A table with zero rows scores 0 with metric empty_table=1.
//
// # Merge Engine
//
// [Engine.Analyze] proposes merges between table fragments on the same page
// or on consecutive pages, in page order then top-to-bottom. Confidence is
// a weighted sum of:
//
//   - Column compatibility (40%) - column count and fuzzy header match
//   - Geometric adjacency (35%) - gap and edge alignment for the merge type
//   - Intervening content (25%) - 1/(1+n) for n blocks between the tables
//
// A candidate should merge iff its confidence exceeds the threshold (0.7
// by default). [Engine.Apply] merges iteratively until no candidate
// qualifies; the survivor records [model.MergeInfo] provenance and the
// merged-away table is marked ignored.
//
// # Pipeline Stages
//
//   - [QualityProcessor] - "table_quality"
//   - [MergeProcessor] - "table_merge"
package tables
