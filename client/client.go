// Package client is a Go SDK for ACP servers.
//
// It covers agent discovery, synchronous and detached runs, server-sent
// event streaming and the websocket live endpoint. Non-2xx responses are
// returned as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/logging"
)

// DefaultBaseURL is the address of a locally started server.
const DefaultBaseURL = "http://localhost:8000"

// StreamEvent is one frame of a streamed run.
type StreamEvent = core.StreamEvent

// Options configures a Client.
type Options struct {
	// HTTPClient performs requests. Defaults to a client without timeout;
	// request deadlines come from Timeout and the caller's context.
	HTTPClient *http.Client
	// Timeout bounds non-streaming requests. 0 disables it.
	Timeout time.Duration
	// Headers are added to every request.
	Headers map[string]string
	// SessionID is sent with every run request when set.
	SessionID string
	// Dialer opens websocket connections for RunLive.
	Dialer *websocket.Dialer
	Logger logging.Logger
}

// Client talks to one ACP server.
type Client struct {
	baseURL string
	opts    Options
}

// New creates a client for baseURL (e.g. "http://localhost:8000").
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient: &http.Client{},
		Timeout:    5 * time.Minute,
		Headers:    map[string]string{},
		Dialer:     websocket.DefaultDialer,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{baseURL: strings.TrimRight(baseURL, "/"), opts: opts}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

type runCreateRequest struct {
	AgentName string         `json:"agent_name"`
	SessionID string         `json:"session_id,omitempty"`
	Input     []core.Message `json:"input"`
	Mode      string         `json:"mode"`
}

func (c *Client) runRequest(agentName, mode string, input []core.Message) runCreateRequest {
	if input == nil {
		input = []core.Message{}
	}

	return runCreateRequest{AgentName: agentName, SessionID: c.opts.SessionID, Input: input, Mode: mode}
}

// Ping checks the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Agents lists the server's agents.
func (c *Client) Agents(ctx context.Context) ([]core.AgentDescriptor, error) {
	var resp struct {
		Agents []core.AgentDescriptor `json:"agents"`
	}

	if err := c.do(ctx, http.MethodGet, "/agents", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Agents, nil
}

// Agent returns one agent's descriptor.
func (c *Client) Agent(ctx context.Context, name string) (core.AgentDescriptor, error) {
	var d core.AgentDescriptor
	err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(name), nil, &d)

	return d, err
}

// RunSync runs an agent and waits for the finished run.
func (c *Client) RunSync(ctx context.Context, agentName string, input ...core.Message) (*core.Run, error) {
	var run core.Run
	if err := c.do(ctx, http.MethodPost, "/runs", c.runRequest(agentName, "sync", input), &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// RunAsync starts a detached run and returns its initial record.
func (c *Client) RunAsync(ctx context.Context, agentName string, input ...core.Message) (*core.Run, error) {
	var run core.Run
	if err := c.do(ctx, http.MethodPost, "/runs", c.runRequest(agentName, "async", input), &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// Run fetches a run record.
func (c *Client) Run(ctx context.Context, runID string) (*core.Run, error) {
	var run core.Run
	if err := c.do(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// Events fetches the recorded events of a run.
func (c *Client) Events(ctx context.Context, runID string) ([]core.Event, error) {
	var resp struct {
		Events []core.Event `json:"events"`
	}

	if err := c.do(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID)+"/events", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Events, nil
}

// SessionRuns lists the runs of a session in creation order.
func (c *Client) SessionRuns(ctx context.Context, sessionID string) ([]*core.Run, error) {
	var resp struct {
		Runs []*core.Run `json:"runs"`
	}

	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/runs", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Runs, nil
}

// Cancel requests cancellation of a run.
func (c *Client) Cancel(ctx context.Context, runID string) (*core.Run, error) {
	var run core.Run
	if err := c.do(ctx, http.MethodPost, "/runs/"+url.PathEscape(runID)+"/cancel", nil, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)

		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	c.opts.Logger.Debug("acp request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
