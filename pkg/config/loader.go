package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied before any file or environment input.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultModel          = "gpt-4o-mini"
	DefaultTimeoutSeconds = 20
	DefaultMaxAttempts    = 2
	DefaultSandboxRoot    = "/data"
	DefaultLogsDir        = "logs"
	DefaultInterpreter    = "python3"
	DefaultShell          = "bash"
	DefaultStorageType    = "file"
	DefaultMCPPath        = "/mcp"
)

// configFilePaths is the discovery order when TASKPILOT_CONFIG is unset.
var configFilePaths = []string{
	"./taskpilot.yaml",
	"/etc/taskpilot/config.yaml",
}

// Load builds the configuration: defaults, then the first YAML file found,
// then environment overrides, then secret file references, then validation.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("TASKPILOT_CONFIG")
	if path == "" {
		for _, candidate := range configFilePaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := resolveSecretFiles(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: DefaultHost, Port: DefaultPort},
		Codegen: CodegenConfig{
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Engine:   EngineConfig{MaxAttempts: DefaultMaxAttempts},
		Executor: ExecutorConfig{Interpreter: DefaultInterpreter, Shell: DefaultShell},
		Sandbox:  SandboxConfig{Root: DefaultSandboxRoot, LogsDir: DefaultLogsDir},
		Storage:  StorageConfig{Type: DefaultStorageType},
		MCP:      MCPConfig{Path: DefaultMCPPath},
	}
}

// applyEnv overrides file values from the environment. OPENAI_API_CHAT and
// AIPROXY_TOKEN are honored as legacy aliases for deployments migrating
// from the earlier gateway.
func applyEnv(cfg *Config) {
	setString(&cfg.Codegen.BaseURL, "TASKPILOT_BASE_URL", "OPENAI_API_CHAT")
	setString(&cfg.Codegen.APIToken, "TASKPILOT_API_TOKEN", "AIPROXY_TOKEN")
	setString(&cfg.Codegen.Model, "TASKPILOT_MODEL")
	setString(&cfg.Sandbox.Root, "TASKPILOT_SANDBOX_ROOT")
	setString(&cfg.Storage.Type, "TASKPILOT_STORAGE")
	setString(&cfg.Storage.Postgres.DSN, "TASKPILOT_POSTGRES_DSN")
	setString(&cfg.Server.Host, "TASKPILOT_HOST")
	setInt(&cfg.Server.Port, "TASKPILOT_PORT")
	setInt(&cfg.Engine.MaxAttempts, "TASKPILOT_MAX_ATTEMPTS")
	setInt(&cfg.Executor.TimeoutSeconds, "TASKPILOT_EXECUTION_TIMEOUT_SECONDS")

	if v := os.Getenv("TASKPILOT_MCP_ENABLED"); v != "" {
		cfg.MCP.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TASKPILOT_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = v == "true" || v == "1"
	}
}

func setString(target *string, names ...string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*target = v
			return
		}
	}
}

func setInt(target *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// resolveSecretFiles loads values referenced through *_file fields so
// secrets can be mounted instead of inlined.
func resolveSecretFiles(cfg *Config) error {
	if cfg.Codegen.APITokenFile != "" && cfg.Codegen.APIToken == "" {
		token, err := readSecretFile(cfg.Codegen.APITokenFile)
		if err != nil {
			return fmt.Errorf("reading api token file: %w", err)
		}
		cfg.Codegen.APIToken = token
	}
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		dsn, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("reading postgres DSN file: %w", err)
		}
		cfg.Storage.Postgres.DSN = dsn
	}
	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Validate rejects configurations the gateway cannot start with.
func (c *Config) Validate() error {
	if c.Codegen.APIToken == "" {
		return fmt.Errorf("codegen API token is required (set TASKPILOT_API_TOKEN or AIPROXY_TOKEN)")
	}
	if c.Codegen.BaseURL == "" {
		return fmt.Errorf("codegen base URL must not be empty")
	}
	if c.Codegen.Model == "" {
		return fmt.Errorf("codegen model must not be empty")
	}
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine max_attempts must be at least 1")
	}
	if c.Sandbox.Root == "" {
		return fmt.Errorf("sandbox root must not be empty")
	}
	if c.Executor.Interpreter == "" || c.Executor.Shell == "" {
		return fmt.Errorf("executor interpreter and shell must not be empty")
	}
	switch c.Storage.Type {
	case "file", "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("postgres storage requires a DSN")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}
