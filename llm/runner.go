package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/docstruct/model"
)

// Task is one unit of work: a request for one block on behalf of a stage
type Task struct {
	Stage   string
	Block   model.BlockID
	Request Request
}

// Result carries the outcome of a task. Err is set when every attempt
// failed; the block must then be left unchanged.
type Result struct {
	Task     Task
	Response json.RawMessage
	Attempts int
	Err      error
}

// Runner executes tasks on a bounded worker group with per-task retries.
// A failing task never cancels its siblings.
type Runner struct {
	service Service
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a runner
func NewRunner(service Service, config Config) *Runner {
	return &Runner{service: service, config: config, logger: config.logger()}
}

// Run executes every task and returns one result per task, in task order.
// It returns once all tasks have finished.
func (r *Runner) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(max(1, r.config.MaxConcurrency))
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = r.runTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("llm block failed",
				"stage", res.Task.Stage,
				"block", res.Task.Block.String(),
				"attempts", res.Attempts,
				"err", res.Err)
		}
	}
	return results
}

func (r *Runner) runTask(ctx context.Context, task Task) Result {
	res := Result{Task: task}
	if r.service == nil {
		res.Err = ErrDisabled
		return res
	}
	attempts := max(0, r.config.MaxRetries) + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithCtx(ctx, r.config.RetryBackoff*time.Duration(attempt)); err != nil {
				res.Err = err
				return res
			}
		}
		res.Attempts = attempt + 1

		resp, err := r.call(ctx, task.Request)
		if err == nil {
			err = validate(resp, task.Request.Schema)
		}
		if err == nil {
			res.Response, res.Err = resp, nil
			return res
		}
		res.Err = err
		if !shouldRetry(ctx, err) {
			return res
		}
	}
	return res
}

// call invokes the service once, converting a panic into an error.
func (r *Runner) call(ctx context.Context, req Request) (resp json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("llm: service panic: %v", p)
		}
	}()
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	return r.service.Call(ctx, req)
}

// shouldRetry is false once the caller's context is done.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func sleepWithCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
