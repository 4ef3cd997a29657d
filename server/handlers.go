package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// Run modes of POST /runs.
const (
	ModeSync   = "sync"
	ModeAsync  = "async"
	ModeStream = "stream"
)

// RunCreateRequest is the body of POST /runs.
type RunCreateRequest struct {
	AgentName string         `json:"agent_name"`
	SessionID string         `json:"session_id,omitempty"`
	Input     []core.Message `json:"input"`
	Mode      string         `json:"mode,omitempty"`
}

// AgentsResponse is the body of GET /agents.
type AgentsResponse struct {
	Agents []core.AgentDescriptor `json:"agents"`
}

// EventsResponse is the body of GET /runs/{run_id}/events.
type EventsResponse struct {
	Events []core.Event `json:"events"`
}

// RunsResponse is the body of GET /sessions/{session_id}/runs.
type RunsResponse struct {
	Runs []*core.Run `json:"runs"`
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, AgentsResponse{Agents: s.engine.Agents()})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	d, err := s.engine.Agent(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch req.Mode {
	case ModeSync:
		s.runSync(w, r, req)
	case ModeAsync:
		s.runAsync(w, r, req)
	case ModeStream:
		s.runStream(w, r, req)
	}
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (RunCreateRequest, error) {
	var req RunCreateRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: malformed body: %v", errInvalidInput, err)
	}

	if req.AgentName == "" {
		return req, fmt.Errorf("%w: agent_name is required", errInvalidInput)
	}

	if req.Mode == "" {
		req.Mode = ModeSync
	}

	switch req.Mode {
	case ModeSync, ModeAsync, ModeStream:
	default:
		return req, fmt.Errorf("%w: unknown mode %q", errInvalidInput, req.Mode)
	}

	return req, nil
}

func (req RunCreateRequest) runRequest() core.RunRequest {
	return core.RunRequest{AgentName: req.AgentName, SessionID: req.SessionID, Input: req.Input}
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, req RunCreateRequest) {
	run, err := s.engine.InvokeSync(r.Context(), req.runRequest())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// runAsync starts a run detached from the request and answers 202 at once.
func (s *Server) runAsync(w http.ResponseWriter, r *http.Request, req RunCreateRequest) {
	runID, events, errs, err := s.engine.Invoke(context.WithoutCancel(r.Context()), req.runRequest())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	go func() {
		for range events { //nolint:revive
		}

		if err := <-errs; err != nil {
			s.logger.Debug("async run ended with error", "run_id", runID, "error", err)
		}
	}()

	run, err := s.engine.Run(runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.Run(chi.URLParam(r, "run_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRunEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.engine.Events(chi.URLParam(r, "run_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if events == nil {
		events = []core.Event{}
	}

	writeJSON(w, http.StatusOK, EventsResponse{Events: events})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	if err := s.engine.Cancel(runID); err != nil {
		s.writeError(w, r, err)
		return
	}

	run, err := s.engine.Run(runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleListSessionRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.engine.SessionRuns(chi.URLParam(r, "session_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if runs == nil {
		runs = []*core.Run{}
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}
