// Package processor runs ordered stages over a document.
//
// A [Pipeline] executes its stages one after another; a stage error or
// panic aborts the run with a [StageError] naming the stage. Pipelines are
// usually assembled with [Build] from a list of [Kind] names, resolved
// against a static registry of factories:
//
//	p, err := processor.Build(processor.DefaultKinds(), processor.DefaultDeps())
//	if err != nil {
//		return err
//	}
//	err = p.Run(ctx, doc)
//
// The simple LLM kinds (equation, picture description, handwriting) are
// folded into one llm.MetaProcessor so that their model calls share a
// single concurrency bound.
//
// The rule-based stages in this package hide page furniture, assign
// missing heading levels, rebuild code text from its lines, move
// footnotes to the end of their page and collect the table of contents.
package processor
