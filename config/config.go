// Package config loads the process configuration of acp-server.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file (with ${VAR} expansion), ACP_* environment variables and finally
// command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Shivvam/agent-communication-protocol/engine"
	"github.com/Shivvam/agent-communication-protocol/logging"
	"github.com/Shivvam/agent-communication-protocol/model/providers"
	"github.com/Shivvam/agent-communication-protocol/server"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Agents  AgentsConfig  `yaml:"agents"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	APIPrefix       string        `yaml:"api_prefix"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DisableMetrics  bool          `yaml:"disable_metrics"`
}

// EngineConfig bounds run execution.
type EngineConfig struct {
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`
	EventBufferSize   int           `yaml:"event_buffer_size"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	MaxProviderCalls  int           `yaml:"max_provider_calls"`
}

// AgentsConfig tunes the built-in agents.
type AgentsConfig struct {
	// StepDelay is the pause after each emitted event.
	StepDelay time.Duration `yaml:"step_delay"`
	// Provider names the Answer Provider backend (gemini, openai, anthropic).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKeyEnv overrides the provider's credential variable.
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// Expert disables the Expert_Agent when false.
	Expert *bool `yaml:"expert"`
}

// StoreConfig selects the run store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Default returns the built-in configuration.
func Default() Config {
	ec := engine.DefaultConfig

	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			APIPrefix:       "/api",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			MaxConcurrentRuns: ec.MaxConcurrentRuns,
			EventBufferSize:   ec.EventBufferSize,
			RunTimeout:        ec.RunTimeout,
			MaxProviderCalls:  ec.MaxProviderCalls,
		},
		Agents: AgentsConfig{
			StepDelay: 500 * time.Millisecond,
			Provider:  "gemini",
		},
		Store:   StoreConfig{Driver: StoreMemory},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads a YAML file on top of the defaults. Environment references
// (${VAR} or $VAR) in the file are expanded before parsing. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML from r on top of the defaults.
func Parse(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(b)))))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}

	if c.Engine.MaxConcurrentRuns < 0 || c.Engine.EventBufferSize < 0 || c.Engine.MaxProviderCalls < 0 {
		errs = append(errs, errors.New("engine limits must not be negative"))
	}

	if c.Engine.RunTimeout < 0 || c.Agents.StepDelay < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}

	if _, err := providers.Lookup(c.Agents.Provider); err != nil {
		errs = append(errs, fmt.Errorf("agents.provider: %w", err))
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be %s or %s", c.Store.Driver, StoreMemory, StoreSQLite))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if !slices.Contains([]string{"json", "text"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format %q must be json or text", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ExpertEnabled reports whether the Expert_Agent is registered.
func (c AgentsConfig) ExpertEnabled() bool { return c.Expert == nil || *c.Expert }

// Settings returns the provider settings of the generative agents.
func (c AgentsConfig) Settings() providers.Settings {
	return providers.Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
}

// Logger builds the process logger writing to w.
func (c LoggingConfig) Logger(w io.Writer) (*logging.StructuredLogger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Config{Level: level, Format: c.Format, Output: w, AddSource: c.AddSource}), nil
}

// Build converts the engine section.
func (c EngineConfig) Build() engine.Config {
	return engine.Config{
		MaxConcurrentRuns: c.MaxConcurrentRuns,
		EventBufferSize:   c.EventBufferSize,
		RunTimeout:        c.RunTimeout,
		MaxProviderCalls:  c.MaxProviderCalls,
	}
}

// ServerOptions applies the server section.
func (c ServerConfig) ServerOptions(o *server.Options) {
	o.Host = c.Host
	o.Port = c.Port
	o.APIPrefix = c.APIPrefix
	o.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	o.ShutdownTimeout = c.ShutdownTimeout
	o.DisableMetrics = c.DisableMetrics
}
