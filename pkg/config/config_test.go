package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TASKPILOT_CONFIG", "TASKPILOT_BASE_URL", "TASKPILOT_API_TOKEN",
		"TASKPILOT_MODEL", "TASKPILOT_SANDBOX_ROOT", "TASKPILOT_STORAGE",
		"TASKPILOT_POSTGRES_DSN", "TASKPILOT_HOST", "TASKPILOT_PORT",
		"TASKPILOT_MAX_ATTEMPTS", "TASKPILOT_EXECUTION_TIMEOUT_SECONDS",
		"TASKPILOT_MCP_ENABLED", "TASKPILOT_AUTH_ENABLED",
		"OPENAI_API_CHAT", "AIPROXY_TOKEN",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaultsWithToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKPILOT_API_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8000" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.Codegen.BaseURL != DefaultBaseURL {
		t.Errorf("base url = %q", cfg.Codegen.BaseURL)
	}
	if cfg.Engine.MaxAttempts != 2 {
		t.Errorf("max attempts = %d", cfg.Engine.MaxAttempts)
	}
	if cfg.Sandbox.Root != "/data" || cfg.Sandbox.LogsDir != "logs" {
		t.Errorf("sandbox = %+v", cfg.Sandbox)
	}
	if cfg.Storage.Type != "file" {
		t.Errorf("storage type = %q", cfg.Storage.Type)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when API token is missing")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeTemp(t, `
server:
  port: 9000
codegen:
  api_token: from-file
  model: custom-model
engine:
  max_attempts: 3
storage:
  type: memory
`)
	t.Setenv("TASKPILOT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Codegen.Model != "custom-model" {
		t.Errorf("model = %q", cfg.Codegen.Model)
	}
	if cfg.Engine.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.Engine.MaxAttempts)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage = %q", cfg.Storage.Type)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeTemp(t, `
codegen:
  api_token: from-file
  model: file-model
`)
	t.Setenv("TASKPILOT_CONFIG", path)
	t.Setenv("TASKPILOT_MODEL", "env-model")
	t.Setenv("TASKPILOT_MAX_ATTEMPTS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codegen.Model != "env-model" {
		t.Errorf("model = %q, env must win", cfg.Codegen.Model)
	}
	if cfg.Engine.MaxAttempts != 4 {
		t.Errorf("max attempts = %d", cfg.Engine.MaxAttempts)
	}
}

func TestLegacyEnvAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIPROXY_TOKEN", "legacy-token")
	t.Setenv("OPENAI_API_CHAT", "https://proxy.example/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codegen.APIToken != "legacy-token" {
		t.Errorf("token = %q", cfg.Codegen.APIToken)
	}
	if cfg.Codegen.BaseURL != "https://proxy.example/v1" {
		t.Errorf("base url = %q", cfg.Codegen.BaseURL)
	}
}

func TestPreferredEnvBeatsLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIPROXY_TOKEN", "legacy")
	t.Setenv("TASKPILOT_API_TOKEN", "preferred")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codegen.APIToken != "preferred" {
		t.Errorf("token = %q", cfg.Codegen.APIToken)
	}
}

func TestSecretFileResolution(t *testing.T) {
	clearEnv(t)
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenPath, []byte("secret-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, `
codegen:
  api_token_file: `+tokenPath+`
`)
	t.Setenv("TASKPILOT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codegen.APIToken != "secret-token" {
		t.Errorf("token = %q, want trimmed file content", cfg.Codegen.APIToken)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaults()
		cfg.Codegen.APIToken = "tok"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Engine.MaxAttempts = 0 }},
		{"empty sandbox root", func(c *Config) { c.Sandbox.Root = "" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty shell", func(c *Config) { c.Executor.Shell = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
