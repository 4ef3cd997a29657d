// Command acp-client talks to an ACP server: agent discovery, sync and
// streamed runs, run inspection and cancellation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Shivvam/agent-communication-protocol/client"
	"github.com/Shivvam/agent-communication-protocol/core"
)

const demoAgent = "Echo_Agent"

type CLI struct {
	URL     string        `default:"http://localhost:8000" env:"ACP_URL" help:"Server base URL."`
	Session string        `help:"Session ID sent with every run."`
	Timeout time.Duration `default:"5m" help:"Timeout for non-streaming requests."`

	Demo    DemoCmd    `cmd:"" default:"1" help:"List agents, run Echo_Agent synchronously, then stream it."`
	Agents  AgentsCmd  `cmd:"" help:"List the server's agents."`
	Run     RunCmd     `cmd:"" help:"Run an agent and print its outputs."`
	Stream  StreamCmd  `cmd:"" help:"Run an agent and print every event."`
	Get     GetCmd     `cmd:"" help:"Show a run."`
	Cancel  CancelCmd  `cmd:"" help:"Cancel a run."`
	History HistoryCmd `cmd:"" help:"List the runs of a session."`
}

func (c *CLI) client() *client.Client {
	return client.New(c.URL, func(o *client.Options) {
		o.Timeout = c.Timeout
		o.SessionID = c.Session
	})
}

func messages(texts []string) []core.Message {
	out := make([]core.Message, len(texts))
	for i, t := range texts {
		out[i] = core.NewUserMessage(t)
	}

	return out
}

type DemoCmd struct{}

func (d *DemoCmd) Run(ctx context.Context, cli *CLI) error {
	return demo(ctx, cli.client(), os.Stdout)
}

func demo(ctx context.Context, c *client.Client, w io.Writer) error {
	fmt.Fprintln(w, "== agents")

	if err := listAgents(ctx, c, w); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n== run %s\n", demoAgent)

	run, err := c.RunSync(ctx, demoAgent, core.NewUserMessage("hey hey to echo from client!"))
	if err != nil {
		return err
	}

	printRun(w, run)

	fmt.Fprintf(w, "\n== stream %s\n", demoAgent)

	return stream(ctx, c, w, false, demoAgent, core.NewUserMessage("Howdy!"))
}

type AgentsCmd struct{}

func (a *AgentsCmd) Run(ctx context.Context, cli *CLI) error {
	return listAgents(ctx, cli.client(), os.Stdout)
}

func listAgents(ctx context.Context, c *client.Client, w io.Writer) error {
	agents, err := c.Agents(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range agents {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
	}

	return tw.Flush()
}

type RunCmd struct {
	Agent string   `arg:"" help:"Agent name."`
	Text  []string `arg:"" optional:"" help:"Input messages, one per argument."`
	Async bool     `help:"Return immediately with the run ID."`
}

func (r *RunCmd) Run(ctx context.Context, cli *CLI) error {
	c := cli.client()

	if r.Async {
		run, err := c.RunAsync(ctx, r.Agent, messages(r.Text)...)
		if err != nil {
			return err
		}

		fmt.Println(run.RunID)

		return nil
	}

	run, err := c.RunSync(ctx, r.Agent, messages(r.Text)...)
	if err != nil {
		return err
	}

	printRun(os.Stdout, run)

	return nil
}

func printRun(w io.Writer, run *core.Run) {
	fmt.Fprintf(w, "run %s: %s\n", run.RunID, run.Status)

	for _, msg := range run.Output {
		fmt.Fprintf(w, "  %s: %s\n", msg.Role, msg.Text())
	}

	if run.Error != nil {
		fmt.Fprintf(w, "  error: %s: %s\n", run.Error.Code, run.Error.Message)
	}
}

type StreamCmd struct {
	Agent string   `arg:"" help:"Agent name."`
	Text  []string `arg:"" optional:"" help:"Input messages, one per argument."`
	Live  bool     `help:"Use the websocket endpoint instead of server-sent events."`
}

func (s *StreamCmd) Run(ctx context.Context, cli *CLI) error {
	return stream(ctx, cli.client(), os.Stdout, s.Live, s.Agent, messages(s.Text)...)
}

func stream(ctx context.Context, c *client.Client, w io.Writer, live bool, agent string, input ...core.Message) error {
	open := c.RunStream
	if live {
		open = c.RunLive
	}

	events, errs := open(ctx, agent, input...)
	for ev := range events {
		printEvent(w, ev)
	}

	return <-errs
}

func printEvent(w io.Writer, ev client.StreamEvent) {
	switch {
	case ev.Run != nil:
		fmt.Fprintf(w, "%-18s run_id=%s status=%s", ev.Type, ev.Run.RunID, ev.Run.Status)

		if ev.Type.IsTerminal() {
			texts := make([]string, len(ev.Run.Output))
			for i, msg := range ev.Run.Output {
				texts[i] = msg.Text()
			}

			fmt.Fprintf(w, " output=%q", texts)
		}

		fmt.Fprintln(w)
	case ev.Event != nil && ev.Event.IsThought():
		fmt.Fprintf(w, "%-18s %s\n", ev.Type, ev.Event.Thought())
	case ev.Event != nil:
		msg, _ := ev.Event.Output()
		fmt.Fprintf(w, "%-18s %s\n", ev.Type, msg.Text())
	}
}

type GetCmd struct {
	RunID  string `arg:"" name:"run-id" help:"Run ID."`
	Events bool   `help:"Also print the recorded events."`
}

func (g *GetCmd) Run(ctx context.Context, cli *CLI) error {
	c := cli.client()

	run, err := c.Run(ctx, g.RunID)
	if err != nil {
		return err
	}

	printRun(os.Stdout, run)

	if !g.Events {
		return nil
	}

	events, err := c.Events(ctx, g.RunID)
	if err != nil {
		return err
	}

	for _, ev := range events {
		printEvent(os.Stdout, core.EventStreamEvent(ev))
	}

	return nil
}

type CancelCmd struct {
	RunID string `arg:"" name:"run-id" help:"Run ID."`
}

func (c *CancelCmd) Run(ctx context.Context, cli *CLI) error {
	run, err := cli.client().Cancel(ctx, c.RunID)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %s\n", run.RunID, run.Status)

	return nil
}

type HistoryCmd struct {
	SessionID string `arg:"" name:"session-id" help:"Session ID."`
}

func (h *HistoryCmd) Run(ctx context.Context, cli *CLI) error {
	runs, err := cli.client().SessionRuns(ctx, h.SessionID)
	if err != nil {
		return err
	}

	printSessionRuns(os.Stdout, runs)

	return nil
}

func printSessionRuns(w io.Writer, runs []*core.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs")
		return
	}

	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-12s %-18s outputs=%d\n", run.RunID, run.Status, run.AgentName, len(run.Output))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("acp-client"),
		kong.Description("Agent Communication Protocol client"),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
