// Command acp-server serves the built-in agents over the ACP HTTP transport.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	acp "github.com/Shivvam/agent-communication-protocol"
	"github.com/Shivvam/agent-communication-protocol/config"
	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/model/providers"
	"github.com/Shivvam/agent-communication-protocol/session/sqlite"
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Start the ACP server."`
	Agents  AgentsCmd  `cmd:"" help:"List the agents this server registers."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to a YAML config file." type:"path"`
	EnvFile   string `name:"env-file" help:"Additional .env file to load." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (json, text)."`

	// overrides applied after the config file and ACP_* variables
	Host      string `help:"Host to bind."`
	Port      int    `help:"Port to listen on."`
	Provider  string `help:"Answer Provider (gemini, openai, anthropic)."`
	Model     string `help:"Answer Provider model name."`
	StepDelay string `name:"step-delay" help:"Pause after each agent event, e.g. 500ms or 0s."`
	StoreDSN  string `name:"store-dsn" help:"SQLite DSN; enables the durable run store."`
}

// load resolves the effective configuration.
func (c *CLI) load() (config.Config, error) {
	if err := config.LoadDotEnv(c.EnvFile); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()

	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return config.Config{}, err
	}

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	if c.Provider != "" {
		cfg.Agents.Provider = c.Provider
	}

	if c.Model != "" {
		cfg.Agents.Model = c.Model
	}

	if c.StepDelay != "" {
		d, err := time.ParseDuration(c.StepDelay)
		if err != nil {
			return config.Config{}, fmt.Errorf("--step-delay: %w", err)
		}

		cfg.Agents.StepDelay = d
	}

	if c.StoreDSN != "" {
		cfg.Store.Driver = config.StoreSQLite
		cfg.Store.DSN = c.StoreDSN
	}

	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}

	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}

	return cfg, cfg.Validate()
}

func builtinAgents(cfg config.Config) ([]core.Agent, error) {
	p, err := providers.Lookup(cfg.Agents.Provider)
	if err != nil {
		return nil, err
	}

	return acp.BuiltinAgents(func(o *acp.BuiltinOptions) {
		o.StepDelay = cfg.Agents.StepDelay
		o.Resolver = p.Resolver(cfg.Agents.APIKeyEnv, cfg.Agents.Settings())
		o.Expert = cfg.Agents.ExpertEnabled()
	}), nil
}

type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}

	logger, err := cfg.Logging.Logger(os.Stderr)
	if err != nil {
		return err
	}

	logger = logger.WithComponent("acp-server")

	agents, err := builtinAgents(cfg)
	if err != nil {
		return err
	}

	var store core.RunStore

	if cfg.Store.Driver == config.StoreSQLite {
		s, err := sqlite.Open(cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer s.Close()

		store = s

		logger.Info("run persistence enabled", "driver", cfg.Store.Driver, "dsn", cfg.Store.DSN)
	}

	app := acp.New(func(o *acp.Options) {
		o.EngineConfig = cfg.Engine.Build()
		o.Logger = logger
		o.Server = append(o.Server, cfg.Server.ServerOptions)

		if store != nil {
			o.RunStore = store
		}
	})

	if err := app.Register(agents...); err != nil {
		return err
	}

	for _, d := range app.Engine().Agents() {
		logger.Info("agent registered", "agent", d.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Server().ListenAndServe(ctx)
}

type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}

	agents, err := builtinAgents(cfg)
	if err != nil {
		return err
	}

	return printAgents(os.Stdout, agents)
}

func printAgents(w io.Writer, agents []core.Agent) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINPUT\tOUTPUT\tDESCRIPTION")

	for _, a := range agents {
		d := a.Descriptor()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name,
			strings.Join(d.InputContentTypes, ","), strings.Join(d.OutputContentTypes, ","), d.Description)
	}

	return tw.Flush()
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("acp-server %s\n", version())
	return nil
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("acp-server"),
		kong.Description("Agent Communication Protocol server"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
