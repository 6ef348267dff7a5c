// Command server runs the taskpilot gateway: an HTTP service that turns
// natural-language tasks into generated code, executes it in a sandbox
// directory and serves the results.
//
// Configuration comes from an optional YAML file plus environment
// variables; see pkg/config. The codegen API token (TASKPILOT_API_TOKEN or
// the legacy AIPROXY_TOKEN) is required.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskpilot-dev/taskpilot/pkg/auth"
	"github.com/taskpilot-dev/taskpilot/pkg/auth/apikey"
	authjwt "github.com/taskpilot-dev/taskpilot/pkg/auth/jwt"
	"github.com/taskpilot-dev/taskpilot/pkg/codegen/openaicompat"
	"github.com/taskpilot-dev/taskpilot/pkg/config"
	"github.com/taskpilot-dev/taskpilot/pkg/engine"
	"github.com/taskpilot-dev/taskpilot/pkg/executor"
	"github.com/taskpilot-dev/taskpilot/pkg/files"
	"github.com/taskpilot-dev/taskpilot/pkg/observability"
	"github.com/taskpilot-dev/taskpilot/pkg/sandbox"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
	filestore "github.com/taskpilot-dev/taskpilot/pkg/storage/file"
	"github.com/taskpilot-dev/taskpilot/pkg/storage/memory"
	"github.com/taskpilot-dev/taskpilot/pkg/storage/postgres"
	"github.com/taskpilot-dev/taskpilot/pkg/transport"
	transporthttp "github.com/taskpilot-dev/taskpilot/pkg/transport/http"
	transportmcp "github.com/taskpilot-dev/taskpilot/pkg/transport/mcp"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return err
	}

	logsDir := filepath.Join(root.Dir(), cfg.Sandbox.LogsDir)
	closeLog, err := setupLogging(logsDir)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logsDir)
	if err != nil {
		return err
	}
	defer store.Close()

	generator, err := openaicompat.New(openaicompat.Config{
		BaseURL:     cfg.Codegen.BaseURL,
		APIKey:      cfg.Codegen.APIToken,
		Model:       cfg.Codegen.Model,
		Timeout:     cfg.Codegen.Timeout(),
		Temperature: cfg.Codegen.Temperature,
	})
	if err != nil {
		return err
	}
	defer generator.Close()

	dispatcher := executor.NewDispatcher(
		executor.NewScriptRunner(cfg.Executor.Interpreter, root.Dir(), cfg.Executor.Timeout()),
		executor.NewShellRunner(cfg.Executor.Shell, root.Dir(), cfg.Executor.Timeout()),
	)

	eng, err := engine.New(generator, dispatcher, store, engine.Config{
		MaxAttempts: cfg.Engine.MaxAttempts,
	})
	if err != nil {
		return err
	}

	reader := files.NewService(root, store)

	wrapper, err := composeHandler(cfg, eng, reader)
	if err != nil {
		return err
	}
	server := transporthttp.NewServer(
		cfg.Server.Addr(),
		eng,
		reader,
		store,
		[]transporthttp.AdapterOption{
			transporthttp.WithHealthCheck(store.HealthCheck),
		},
		transporthttp.WithHTTPWrapper(wrapper),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	slog.Info("gateway started",
		"addr", cfg.Server.Addr(),
		"sandbox", root.Dir(),
		"storage", cfg.Storage.Type,
		"model", cfg.Codegen.Model,
		"mcp", cfg.MCP.Enabled)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// composeHandler mounts the gateway routes together with /metrics and the
// optional MCP endpoint, then applies metrics and auth middleware to the
// whole surface.
func composeHandler(cfg *config.Config, runner transport.TaskRunner, reader transport.FileReader) (func(http.Handler) http.Handler, error) {
	var authWrap func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		chain, limiter, err := buildAuth(cfg.Auth)
		if err != nil {
			return nil, err
		}
		authWrap = auth.Middleware(chain, limiter, auth.DefaultBypassPaths)
	}

	return func(gateway http.Handler) http.Handler {
		mux := http.NewServeMux()
		mux.Handle("/", gateway)
		mux.Handle("GET /metrics", promhttp.Handler())
		if cfg.MCP.Enabled {
			mcpServer := transportmcp.NewServer(version, runner, reader)
			mux.Handle(cfg.MCP.Path, transportmcp.Handler(mcpServer))
		}

		handler := observability.MetricsMiddleware(mux)
		if authWrap != nil {
			handler = authWrap(handler)
		}
		return handler
	}, nil
}

func buildAuth(cfg config.AuthConfig) (*auth.Chain, auth.RateLimiter, error) {
	chain := &auth.Chain{AllowAnonymous: cfg.AllowAnonymous}

	if len(cfg.APIKeys) > 0 {
		keys := make([]apikey.Key, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			keys = append(keys, apikey.Key{
				SHA256:  k.SHA256,
				Subject: k.Subject,
				Tier:    k.Tier,
				Scopes:  k.Scopes,
			})
		}
		authn, err := apikey.New(keys)
		if err != nil {
			return nil, nil, err
		}
		chain.Authenticators = append(chain.Authenticators, authn)
	}

	if cfg.JWT.Issuer != "" {
		authn, err := authjwt.New(authjwt.Config{
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
			JWKSURL:   cfg.JWT.JWKSURL,
			TierClaim: cfg.JWT.TierClaim,
		})
		if err != nil {
			return nil, nil, err
		}
		chain.Authenticators = append(chain.Authenticators, authn)
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = auth.NewInProcessLimiter(cfg.RateLimit.TierLimits, cfg.RateLimit.DefaultLimit)
	}
	return chain, limiter, nil
}

// newStore builds the record store named by the configuration. The file
// store lives in the sandbox logs directory so its records stay readable
// through the /read endpoint.
func newStore(ctx context.Context, cfg *config.Config, logsDir string) (storage.RunStore, error) {
	switch cfg.Storage.Type {
	case "file":
		return filestore.New(logsDir)
	case "memory":
		return memory.New(cfg.Storage.Memory.MaxErrors), nil
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			MaxConnLifetime: time.Duration(cfg.Storage.Postgres.LifetimeMinutes) * time.Minute,
			MigrateOnStart:  cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// setupLogging tees the service log to stderr and <logs>/app.log.
func setupLogging(logsDir string) (func(), error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logsDir, "app.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening app.log: %w", err)
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	return func() { f.Close() }, nil
}
