package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/transport"
)

type fakeReader struct {
	content string
	err     error
}

func (f *fakeReader) Read(ctx context.Context, path string) (string, error) {
	return f.content, f.err
}

// connect runs the server over in-memory transports and returns a connected
// client session.
func connect(t *testing.T, runner transport.TaskRunner, reader transport.FileReader) *mcp.ClientSession {
	t.Helper()
	server := NewServer("test", runner, reader)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connecting client: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
	})
	return session
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return text.Text
}

func TestToolsAreListed(t *testing.T) {
	session := connect(t, transport.TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		return &api.RunResult{Status: "success"}, nil
	}), &fakeReader{})

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	if !names["run_task"] || !names["read_file"] {
		t.Errorf("tools = %v", names)
	}
}

func TestRunTaskTool(t *testing.T) {
	var gotTask string
	session := connect(t, transport.TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		gotTask = task
		return &api.RunResult{Status: "success", Output: "42"}, nil
	}), &fakeReader{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_task",
		Arguments: map[string]any{"task": "compute the answer"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %v", res.Content)
	}
	if gotTask != "compute the answer" {
		t.Errorf("task = %q", gotTask)
	}
	if got := textContent(t, res); got != "42" {
		t.Errorf("output = %q", got)
	}
}

func TestRunTaskToolReportsStderr(t *testing.T) {
	session := connect(t, transport.TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		return &api.RunResult{Status: "success", Output: "done", Error: "warning: x"}, nil
	}), &fakeReader{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_task",
		Arguments: map[string]any{"task": "t"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	got := textContent(t, res)
	if !strings.Contains(got, "done") || !strings.Contains(got, "warning: x") {
		t.Errorf("output = %q", got)
	}
}

func TestRunTaskToolFailure(t *testing.T) {
	session := connect(t, transport.TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		return nil, api.NewExecutionError("task execution failed")
	}), &fakeReader{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_task",
		Arguments: map[string]any{"task": "t"},
	})
	if err == nil && (res == nil || !res.IsError) {
		t.Error("expected a tool error for a failed pipeline")
	}
}

func TestReadFileTool(t *testing.T) {
	session := connect(t, transport.TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
		return &api.RunResult{}, nil
	}), &fakeReader{content: "file body"})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "read_file",
		Arguments: map[string]any{"path": "hello.txt"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := textContent(t, res); got != "file body" {
		t.Errorf("content = %q", got)
	}
}
