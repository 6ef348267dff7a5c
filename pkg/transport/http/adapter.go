// Package http adapts the gateway's handler contracts to HTTP endpoints:
//
//	POST /run?task=...   run a task through the pipeline
//	GET  /read?path=...  read a file from the sandbox
//	GET  /last           return the last successful run record
//	GET  /healthz        liveness and store health
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
	"github.com/taskpilot-dev/taskpilot/pkg/transport"
)

// Adapter exposes the gateway operations over HTTP.
type Adapter struct {
	runner  transport.TaskRunner
	reader  transport.FileReader
	records transport.RunRecorder
	health  func(ctx context.Context) error
	mux     *http.ServeMux
}

// AdapterOption customizes an Adapter.
type AdapterOption func(*Adapter)

// WithHealthCheck adds a backend check to the healthz endpoint.
func WithHealthCheck(check func(ctx context.Context) error) AdapterOption {
	return func(a *Adapter) {
		a.health = check
	}
}

// NewAdapter wires the handlers onto a ServeMux.
func NewAdapter(runner transport.TaskRunner, reader transport.FileReader, records transport.RunRecorder, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		runner:  runner,
		reader:  reader,
		records: records,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mux.HandleFunc("POST /run", a.handleRun)
	a.mux.HandleFunc("GET /read", a.handleRead)
	a.mux.HandleFunc("GET /last", a.handleLast)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	return a
}

// Handler returns the adapter's routes with request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return requestIDMiddleware(a.mux)
}

func (a *Adapter) handleRun(w http.ResponseWriter, r *http.Request) {
	task := r.URL.Query().Get("task")
	if apiErr := api.ValidateTask(task); apiErr != nil {
		transport.WriteErrorResponse(w, apiErr)
		return
	}
	result, err := a.runner.RunTask(r.Context(), task)
	if err != nil {
		transport.WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *Adapter) handleRead(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		transport.WriteErrorResponse(w, api.NewInvalidRequestError("path", "path must not be empty"))
		return
	}
	content, err := a.reader.Read(r.Context(), path)
	if err != nil {
		transport.WriteErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

func (a *Adapter) handleLast(w http.ResponseWriter, r *http.Request) {
	rec, err := a.records.LastRunRecord(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoRuns) {
			transport.WriteErrorResponse(w, api.NewNotFoundError("no successful run recorded"))
			return
		}
		transport.WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			transport.WriteErrorResponse(w, api.NewServerError("store unavailable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestIDMiddleware propagates X-Request-ID into the context, generating
// one when the client sent none, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.WithRequestID(r.Context(), id)))
	})
}
