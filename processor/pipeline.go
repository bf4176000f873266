package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tsawler/docstruct/model"
)

var (
	// ErrUnknownProcessor is returned when a pipeline names an unregistered kind
	ErrUnknownProcessor = errors.New("unknown processor")

	// ErrDuplicateProcessor is returned when a kind is listed more than once
	ErrDuplicateProcessor = errors.New("duplicate processor")

	// ErrStagePanic is wrapped by StageError when a stage panicked
	ErrStagePanic = errors.New("stage panicked")
)

// Processor is one stage of a pipeline. BlockTypes is advisory: a stage
// receives the whole document but should only mutate blocks of the types
// it declares.
type Processor interface {
	Name() string
	BlockTypes() []model.BlockType
	Process(ctx context.Context, doc *model.Document) error
}

// StageError reports the stage that aborted a pipeline run.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs its stages once each, in order. A stage starts only after
// the previous stage has returned.
type Pipeline struct {
	stages []Processor
	logger *slog.Logger
}

// New creates a pipeline over the given stages. A nil logger uses
// slog.Default().
func New(logger *slog.Logger, stages ...Processor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{stages: stages, logger: logger}
}

// Stages returns the stages in run order
func (p *Pipeline) Stages() []Processor {
	return p.stages
}

// Names returns the stage names in run order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage against doc. The first stage error aborts the
// run and is returned as a *StageError; stages are never retried.
func (p *Pipeline) Run(ctx context.Context, doc *model.Document) error {
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		p.logger.Debug("stage start", "stage", stage.Name(), "index", i)

		if err := runStage(ctx, stage, doc); err != nil {
			p.logger.Error("stage failed", "stage", stage.Name(), "index", i, "err", err)
			return &StageError{Stage: stage.Name(), Index: i, Err: err}
		}

		p.logger.Debug("stage done", "stage", stage.Name(), "index", i, "duration", time.Since(start))
	}
	return nil
}

// runStage calls Process, converting a panic into an error.
func runStage(ctx context.Context, stage Processor, doc *model.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return stage.Process(ctx, doc)
}
