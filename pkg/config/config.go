// Package config loads gateway configuration in layers: built-in defaults,
// an optional YAML file, environment overrides and _file secret references,
// followed by validation.
package config

import (
	"fmt"
	"time"
)

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Codegen  CodegenConfig  `yaml:"codegen"`
	Engine   EngineConfig   `yaml:"engine"`
	Executor ExecutorConfig `yaml:"executor"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CodegenConfig configures the code generation backend.
type CodegenConfig struct {
	// BaseURL is the Chat Completions API root.
	BaseURL string `yaml:"base_url"`
	// APIToken authenticates against the backend. Required.
	APIToken string `yaml:"api_token"`
	// APITokenFile reads the token from a file instead.
	APITokenFile string `yaml:"api_token_file"`
	// Model is the model identifier.
	Model string `yaml:"model"`
	// TimeoutSeconds bounds one generation call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Temperature overrides the default sampling temperature.
	Temperature *float64 `yaml:"temperature"`
}

// Timeout returns the generation timeout as a duration.
func (c CodegenConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EngineConfig configures the retry controller.
type EngineConfig struct {
	// MaxAttempts caps generation attempts per task, retries included.
	MaxAttempts int `yaml:"max_attempts"`
}

// ExecutorConfig configures the subprocess backends.
type ExecutorConfig struct {
	// Interpreter runs script artifacts.
	Interpreter string `yaml:"interpreter"`
	// Shell runs shell artifacts.
	Shell string `yaml:"shell"`
	// TimeoutSeconds bounds one execution; zero disables the deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the execution timeout as a duration.
func (c ExecutorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SandboxConfig configures the containment root.
type SandboxConfig struct {
	// Root is the sandbox directory; all gateway file access stays below it.
	Root string `yaml:"root"`
	// LogsDir, relative to Root, holds the service log and run records.
	LogsDir string `yaml:"logs_dir"`
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	// Type is "file", "memory" or "postgres".
	Type     string         `yaml:"type"`
	Memory   MemoryConfig   `yaml:"memory"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	MaxErrors int `yaml:"max_errors"`
}

// PostgresConfig configures the postgres store.
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	DSNFile         string `yaml:"dsn_file"`
	MaxConns        int32  `yaml:"max_conns"`
	MinConns        int32  `yaml:"min_conns"`
	MigrateOnStart  bool   `yaml:"migrate_on_start"`
	LifetimeMinutes int    `yaml:"conn_lifetime_minutes"`
}

// AuthConfig configures inbound authentication.
type AuthConfig struct {
	// Enabled turns the auth middleware on.
	Enabled bool `yaml:"enabled"`
	// AllowAnonymous admits requests no authenticator claims.
	AllowAnonymous bool            `yaml:"allow_anonymous"`
	APIKeys        []APIKeyConfig  `yaml:"api_keys"`
	JWT            JWTConfig       `yaml:"jwt"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes one accepted API key.
type APIKeyConfig struct {
	SHA256  string   `yaml:"sha256"`
	Subject string   `yaml:"subject"`
	Tier    string   `yaml:"tier"`
	Scopes  []string `yaml:"scopes"`
}

// JWTConfig configures JWT validation; empty issuer disables it.
type JWTConfig struct {
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
	JWKSURL   string `yaml:"jwks_url"`
	TierClaim string `yaml:"tier_claim"`
}

// RateLimitConfig configures the in-process limiter.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	// TierLimits maps tier names to requests per minute.
	TierLimits map[string]int `yaml:"tier_limits"`
	// DefaultLimit applies to tiers not listed; zero means unlimited.
	DefaultLimit int `yaml:"default_limit"`
}

// MCPConfig configures the MCP surface.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
