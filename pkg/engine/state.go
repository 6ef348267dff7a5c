package engine

import (
	"errors"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/codegen"
	"github.com/taskpilot-dev/taskpilot/pkg/executor"
)

// phase tags the pipeline state. Transitions:
//
//	generating -> executing | failed
//	executing  -> succeeded | generating (retry) | failed
//
// succeeded and failed are terminal.
type phase int

const (
	phaseGenerating phase = iota
	phaseExecuting
	phaseSucceeded
	phaseFailed
)

// taskState carries everything a task accumulates on its way through the
// pipeline. task is the caller's text and never changes; prompt is what the
// current generation attempt sees and absorbs retry feedback.
type taskState struct {
	phase    phase
	attempt  int
	task     string
	prompt   string
	artifact *api.Artifact
	result   *executor.Result
	failure  *terminalFailure
}

type terminalFailure struct {
	category api.ErrorCategory
	detail   string
	apiErr   *api.APIError
}

func newTaskState(task string) *taskState {
	return &taskState{phase: phaseGenerating, task: task, prompt: task}
}

func (st *taskState) fail(category api.ErrorCategory, detail string, apiErr *api.APIError) {
	st.failure = &terminalFailure{category: category, detail: detail, apiErr: apiErr}
	st.phase = phaseFailed
}

// failGeneration classifies a generator error. All generation failures are
// terminal; none consume the retry budget.
func (st *taskState) failGeneration(err error) {
	var malformed *codegen.MalformedResponseError
	switch {
	case errors.As(err, &malformed):
		st.fail(api.ErrorCategoryJSONDecode, malformed.Reason,
			api.NewGenerationError("model reply could not be decoded: "+malformed.Reason))
	case errors.Is(err, codegen.ErrEmptyResponse):
		st.fail(api.ErrorCategoryGeneral, err.Error(),
			api.NewGenerationError("model returned an empty reply"))
	default:
		st.fail(api.ErrorCategoryGeneral, err.Error(),
			api.NewGenerationError(err.Error()))
	}
}
