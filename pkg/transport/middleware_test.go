package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

func okRunner(result *api.RunResult) TaskRunner {
	return TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		return result, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next TaskRunner) TaskRunner {
			return TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
				order = append(order, name)
				return next.RunTask(ctx, task)
			})
		}
	}
	runner := Chain(okRunner(&api.RunResult{Status: "success"}), mw("outer"), mw("inner"))
	if _, err := runner.RunTask(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v", order)
	}
}

func TestRequestIDAssigned(t *testing.T) {
	var seen string
	runner := Chain(TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		seen = RequestIDFromContext(ctx)
		return &api.RunResult{Status: "success"}, nil
	}), RequestID())

	if _, err := runner.RunTask(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q", seen)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	var seen string
	runner := Chain(TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		seen = RequestIDFromContext(ctx)
		return &api.RunResult{Status: "success"}, nil
	}), RequestID())

	ctx := WithRequestID(context.Background(), "req_fixed")
	if _, err := runner.RunTask(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	if seen != "req_fixed" {
		t.Errorf("request id = %q, want req_fixed", seen)
	}
}

func TestRecovery(t *testing.T) {
	runner := Chain(TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		panic("boom")
	}), Recovery(slog.New(slog.DiscardHandler)))

	_, err := runner.RunTask(context.Background(), "t")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Type != api.ErrorTypeServer {
		t.Errorf("type = %q", apiErr.Type)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	want := &api.RunResult{Status: "success", Output: "x"}
	runner := Chain(okRunner(want), Logging(slog.New(slog.DiscardHandler)))
	got, err := runner.RunTask(context.Background(), "t")
	if err != nil || got != want {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{api.NewInvalidRequestError("task", "missing"), 400},
		{api.NewForbiddenError("denied"), 403},
		{api.NewNotFoundError("gone"), 404},
		{api.NewGenerationError("bad reply"), 500},
		{api.NewExecutionError("exhausted"), 500},
		{api.NewServerError("oops"), 500},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatusFromError(tt.err); got != tt.want {
			t.Errorf("HTTPStatusFromError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorResponseHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, errors.New("secret database password leaked"))
	if rec.Code != 500 {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), string(api.ErrorTypeServer)) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
