package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/transport"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultShutdownTimeout   = 15 * time.Second
)

// Server runs an Adapter with the default middleware stack and graceful
// shutdown. Execution can be long-running, so there is no write timeout by
// default; per-execution deadlines belong to the executor config.
type Server struct {
	addr       string
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerOption customizes a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares []transport.Middleware
	wrap        func(http.Handler) http.Handler
	logger      *slog.Logger
}

// WithMiddleware appends pipeline middleware after the defaults.
func WithMiddleware(mw ...transport.Middleware) ServerOption {
	return func(c *serverConfig) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithHTTPWrapper wraps the assembled handler, e.g. with auth or metrics.
func WithHTTPWrapper(wrap func(http.Handler) http.Handler) ServerOption {
	return func(c *serverConfig) {
		c.wrap = wrap
	}
}

// WithLogger overrides the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// NewServer builds a server around the runner and read/record views. The
// runner is wrapped with recovery, request ID and logging middleware.
func NewServer(addr string, runner transport.TaskRunner, reader transport.FileReader, records transport.RunRecorder, adapterOpts []AdapterOption, opts ...ServerOption) *Server {
	cfg := &serverConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	middlewares := append([]transport.Middleware{
		transport.Recovery(cfg.logger),
		transport.RequestID(),
		transport.Logging(cfg.logger),
	}, cfg.middlewares...)

	adapter := NewAdapter(transport.Chain(runner, middlewares...), reader, records, adapterOpts...)
	handler := adapter.Handler()
	if cfg.wrap != nil {
		handler = cfg.wrap(handler)
	}

	return &Server{
		addr:    addr,
		handler: handler,
		logger:  cfg.logger,
	}
}

// Handler exposes the assembled handler for embedding into a larger mux.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.ServeOn(listener)
}

// ServeOn serves on an existing listener; tests use it with a random port.
func (s *Server) ServeOn(listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	s.logger.Info("http server listening", "addr", listener.Addr().String())
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
