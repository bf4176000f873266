package llm

import (
	"context"
	"log/slog"

	"github.com/tsawler/docstruct/model"
)

// SimpleProcessor is an LLM stage with one prompt per block and no
// concurrency of its own. A MetaProcessor dispatches the prompts of all
// simple stages as one wave and routes each successful result back to
// the owning stage.
type SimpleProcessor interface {
	Name() string
	BlockTypes() []model.BlockType

	// Tasks enumerates the requests the stage wants to make
	Tasks(doc *model.Document, config Config) []Task

	// Finalize writes a successful result back into the document. It runs
	// on the pipeline goroutine after the whole wave has completed.
	Finalize(doc *model.Document, result Result) error
}

// MetaProcessor batches simple stages into a single bounded wave so the
// total number of concurrent calls does not grow with the stage count.
type MetaProcessor struct {
	stages  []SimpleProcessor
	service Service
	config  Config
	logger  *slog.Logger
}

// NewMetaProcessor creates a meta stage over the given simple stages
func NewMetaProcessor(service Service, config Config, stages ...SimpleProcessor) *MetaProcessor {
	return &MetaProcessor{
		stages:  stages,
		service: service,
		config:  config,
		logger:  config.logger(),
	}
}

// Name returns the stage name
func (m *MetaProcessor) Name() string { return "llm_meta" }

// Stages returns the batched simple stages
func (m *MetaProcessor) Stages() []SimpleProcessor { return m.stages }

// BlockTypes returns the union of the batched stages' block types
func (m *MetaProcessor) BlockTypes() []model.BlockType {
	seen := make(map[model.BlockType]bool)
	var out []model.BlockType
	for _, s := range m.stages {
		for _, t := range s.BlockTypes() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Process runs one wave over every simple stage. Block-level failures are
// logged and never returned.
func (m *MetaProcessor) Process(ctx context.Context, doc *model.Document) error {
	if !m.config.active(m.service) || len(m.stages) == 0 {
		return nil
	}

	var tasks []Task
	var owners []int
	for i, s := range m.stages {
		for _, task := range s.Tasks(doc, m.config) {
			task.Stage = s.Name()
			tasks = append(tasks, task)
			owners = append(owners, i)
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	// Write-back happens here, after the wave, in task order.
	results := NewRunner(m.service, m.config).Run(ctx, tasks)
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if err := m.stages[owners[i]].Finalize(doc, res); err != nil {
			m.logger.Warn("llm finalize failed",
				"stage", res.Task.Stage,
				"block", res.Task.Block.String(),
				"err", err)
		}
	}
	return nil
}
