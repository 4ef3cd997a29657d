package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// RunStream runs an agent in stream mode. Frames are delivered in order on
// the first channel, which is closed when the stream ends; a transport or
// API error is then reported on the second channel.
func (c *Client) RunStream(ctx context.Context, agentName string, input ...core.Message) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 16)
	errs := make(chan error, 1)

	go func() {
		defer func() {
			close(events)
			close(errs)
		}()

		if err := c.stream(ctx, c.runRequest(agentName, "stream", input), events); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

func (c *Client) stream(ctx context.Context, body runCreateRequest, events chan<- StreamEvent) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/runs", body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		return fmt.Errorf("expected text/event-stream, got %s", ct)
	}

	return parseSSE(ctx, resp.Body, func(ev StreamEvent) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case events <- ev:
			return nil
		}
	})
}

// parseSSE reads "event:" / "data:" frames separated by blank lines and
// hands each decoded frame to handle. Comment lines and frames without
// data are skipped; multiple data lines are joined with newlines.
func parseSSE(ctx context.Context, body io.Reader, handle func(StreamEvent) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)

	var (
		eventType string
		data      []string
	)

	dispatch := func() error {
		defer func() {
			eventType, data = "", nil
		}()

		if len(data) == 0 {
			return nil
		}

		ev, err := core.ParseStreamEvent(core.StreamEventType(eventType), []byte(strings.Join(data, "\n")))
		if err != nil {
			return fmt.Errorf("failed to parse SSE frame: %w", err)
		}

		return handle(ev)
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == "":
			if err := dispatch(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read SSE stream: %w", err)
	}

	return dispatch()
}

// RunLive runs an agent over the websocket endpoint. Channel semantics
// match RunStream.
func (c *Client) RunLive(ctx context.Context, agentName string, input ...core.Message) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 16)
	errs := make(chan error, 1)

	go func() {
		defer func() {
			close(events)
			close(errs)
		}()

		if err := c.live(ctx, c.runRequest(agentName, "stream", input), events); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

func (c *Client) liveURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	return u + "/runs/live"
}

func (c *Client) live(ctx context.Context, body runCreateRequest, events chan<- StreamEvent) error {
	header := http.Header{}
	for k, v := range c.opts.Headers {
		header.Set(k, v)
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.liveURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return readAPIError(resp)
		}

		return fmt.Errorf("failed to dial %s: %w", c.liveURL(), err)
	}
	defer conn.Close()

	// unblock ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(body); err != nil {
		return fmt.Errorf("failed to send run request: %w", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("failed to read live frame: %w", err)
		}

		var apiErr errorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return &APIError{Code: apiErr.Error.Code, Message: apiErr.Error.Message}
		}

		var ev StreamEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("failed to parse live frame: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case events <- ev:
		}
	}
}
