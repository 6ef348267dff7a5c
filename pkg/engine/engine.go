// Package engine orchestrates the task pipeline: generate code for a task,
// execute it, and retry with failure feedback until it succeeds or the
// attempt budget runs out. Generation failures are terminal; only execution
// failures are retried.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/codegen"
	"github.com/taskpilot-dev/taskpilot/pkg/executor"
	"github.com/taskpilot-dev/taskpilot/pkg/observability"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

// DefaultMaxAttempts is the total generation budget per task.
const DefaultMaxAttempts = 2

// Config holds engine tunables.
type Config struct {
	// MaxAttempts caps generation attempts per task, retries included.
	// Defaults to DefaultMaxAttempts.
	MaxAttempts int
}

func (c Config) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Engine runs tasks through the generate-execute-retry pipeline.
type Engine struct {
	generator  codegen.Generator
	dispatcher *executor.Dispatcher
	store      storage.RunStore
	cfg        Config
	logger     *slog.Logger
}

// New creates an engine. All three collaborators are required.
func New(generator codegen.Generator, dispatcher *executor.Dispatcher, store storage.RunStore, cfg Config) (*Engine, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Engine{
		generator:  generator,
		dispatcher: dispatcher,
		store:      store,
		cfg:        cfg,
		logger:     slog.Default().With("component", "engine"),
	}, nil
}

// RunTask drives one task to a terminal state and returns the run result
// or an *api.APIError describing the terminal failure.
func (e *Engine) RunTask(ctx context.Context, task string) (*api.RunResult, error) {
	st := newTaskState(task)
	for {
		switch st.phase {
		case phaseGenerating:
			e.stepGenerate(ctx, st)
		case phaseExecuting:
			e.stepExecute(ctx, st)
		case phaseSucceeded:
			return e.finishSuccess(ctx, st)
		case phaseFailed:
			return nil, e.finishFailure(ctx, st)
		default:
			return nil, api.NewServerError(fmt.Sprintf("invalid pipeline phase %d", st.phase))
		}
	}
}

func (e *Engine) stepGenerate(ctx context.Context, st *taskState) {
	start := time.Now()
	artifact, err := e.generator.Generate(ctx, codegen.Request{Task: st.prompt, Attempt: st.attempt})
	elapsed := time.Since(start)
	if err != nil {
		observability.RecordGeneration(e.generator.Name(), "error", elapsed)
		e.logger.Warn("code generation failed",
			"attempt", st.attempt,
			"error", err)
		st.failGeneration(err)
		return
	}
	observability.RecordGeneration(e.generator.Name(), "ok", elapsed)
	e.logger.Info("code generated",
		"attempt", st.attempt,
		"application_type", artifact.ApplicationType,
		"code_bytes", len(artifact.Code))
	st.artifact = artifact
	st.phase = phaseExecuting
}

func (e *Engine) stepExecute(ctx context.Context, st *taskState) {
	backend := string(st.artifact.ApplicationType)
	start := time.Now()
	result, err := e.dispatcher.Dispatch(ctx, st.artifact)
	elapsed := time.Since(start)

	if err == nil {
		observability.RecordExecution(backend, "ok", elapsed)
		st.result = result
		st.phase = phaseSucceeded
		return
	}

	var execErr *executor.ExecutionError
	if errors.As(err, &execErr) {
		observability.RecordExecution(backend, "error", elapsed)
		st.attempt++
		if st.attempt < e.cfg.maxAttempts() {
			observability.RecordRetry()
			e.logger.Info("execution failed, retrying with feedback",
				"attempt", st.attempt,
				"exit_code", execErr.ExitCode)
			st.prompt = codegen.FeedbackTask(st.task, st.artifact.Code, execErr.Stderr)
			st.phase = phaseGenerating
			return
		}
		e.logger.Warn("execution attempts exhausted",
			"attempts", st.attempt,
			"exit_code", execErr.ExitCode)
		st.fail(api.ErrorCategorySubprocess, execErr.Stderr,
			api.NewExecutionError("task execution failed: "+execErr.Stderr))
		return
	}

	observability.RecordExecution(backend, "error", elapsed)
	e.logger.Error("execution backend failed", "error", err)
	if errors.Is(err, executor.ErrShellUnavailable) {
		st.fail(api.ErrorCategoryGeneral, err.Error(),
			api.NewServerError("shell backend is not available"))
		return
	}
	st.fail(api.ErrorCategoryGeneral, err.Error(), api.NewServerError(err.Error()))
}

func (e *Engine) finishSuccess(ctx context.Context, st *taskState) (*api.RunResult, error) {
	result := &api.RunResult{
		Status: "success",
		Output: strings.TrimSpace(st.result.Stdout),
		Error:  strings.TrimSpace(st.result.Stderr),
	}
	rec := &api.RunRecord{
		Task:            st.prompt,
		ApplicationType: st.artifact.ApplicationType,
		Code:            st.artifact.Code,
		Output:          *result,
	}
	if err := e.store.SaveRunRecord(ctx, rec); err != nil {
		e.logger.Error("persisting run record failed", "error", err)
		e.recordError(ctx, api.ErrorCategoryGeneral, err.Error())
		observability.RecordTask("failure")
		return nil, api.NewServerError("persisting run record failed")
	}
	observability.RecordTask("success")
	e.logger.Info("task succeeded",
		"attempts", st.attempt+1,
		"application_type", st.artifact.ApplicationType)
	return result, nil
}

func (e *Engine) finishFailure(ctx context.Context, st *taskState) error {
	e.recordError(ctx, st.failure.category, st.failure.detail)
	observability.RecordTask("failure")
	return st.failure.apiErr
}

func (e *Engine) recordError(ctx context.Context, category api.ErrorCategory, detail string) {
	err := e.store.AppendErrorRecord(ctx, api.ErrorRecord{
		Time:     time.Now(),
		Category: category,
		Detail:   detail,
	})
	if err != nil {
		e.logger.Error("appending error record failed", "error", err)
	}
}
