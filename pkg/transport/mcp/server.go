// Package mcp exposes the gateway as MCP tools over streamable HTTP, so
// agent frameworks can drive the task pipeline and read sandbox files
// through the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taskpilot-dev/taskpilot/pkg/transport"
)

// RunTaskInput is the input schema for the run_task tool.
type RunTaskInput struct {
	Task string `json:"task" jsonschema_description:"Natural-language description of the task to run"`
}

// ReadFileInput is the input schema for the read_file tool.
type ReadFileInput struct {
	Path string `json:"path" jsonschema_description:"Sandbox-relative path of the file to read"`
}

// NewServer builds an MCP server with run_task and read_file tools backed
// by the same runner and reader the HTTP endpoints use.
func NewServer(version string, runner transport.TaskRunner, reader transport.FileReader) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "taskpilot", Version: version},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_task",
		Description: "Generates code for a natural-language task, executes it in the sandbox and returns its output",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RunTaskInput) (*mcp.CallToolResult, struct{}, error) {
		result, err := runner.RunTask(ctx, input.Task)
		if err != nil {
			return nil, struct{}{}, err
		}
		text := result.Output
		if result.Error != "" {
			text = fmt.Sprintf("%s\n[stderr]\n%s", result.Output, result.Error)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, struct{}{}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_file",
		Description: "Reads a file from inside the sandbox directory",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ReadFileInput) (*mcp.CallToolResult, struct{}, error) {
		content, err := reader.Read(ctx, input.Path)
		if err != nil {
			return nil, struct{}{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: content}},
		}, struct{}{}, nil
	})

	return server
}

// Handler serves the MCP server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}
