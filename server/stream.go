package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// sseWriter writes server-sent event frames and flushes after each.
type sseWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	f, _ := w.(http.Flusher)

	return &sseWriter{w: w, flusher: f}
}

// Write emits one frame: "event: <type>\ndata: <json>\n\n".
func (s *sseWriter) Write(ev core.StreamEvent) error {
	data, err := json.Marshal(ev.Data())
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", ev.Type, err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}

	if s.flusher != nil {
		s.flusher.Flush()
	}

	return nil
}

// streamRun invokes req and hands every frame of the run to emit: the
// created and in-progress snapshots, one frame per agent event and the
// terminal snapshot. Invocation errors are returned before any frame.
//
// The run is bound to ctx; when emit fails the remaining frames are
// skipped but the run is still drained.
func (s *Server) streamRun(r *http.Request, req core.RunRequest, begin func(), emit func(core.StreamEvent) error) error {
	runID, events, errs, err := s.engine.Invoke(r.Context(), req)
	if err != nil {
		return err
	}

	begin()

	var writeErr error

	send := func(ev core.StreamEvent) {
		if writeErr != nil {
			return
		}

		if writeErr = emit(ev); writeErr != nil {
			s.logger.Debug("stream client gone", "run_id", runID, "error", writeErr)
		}
	}

	if run, err := s.engine.Run(runID); err == nil {
		created := run.Clone()
		created.Status = core.RunCreated
		created.Output = []core.Message{}
		created.FinishedAt = nil
		created.Error = nil

		send(core.RunStreamEvent(created))

		inProgress := created.Clone()
		inProgress.Status = core.RunInProgress
		send(core.RunStreamEvent(inProgress))
	}

	for ev := range events {
		send(core.EventStreamEvent(ev))
	}

	<-errs

	run, err := s.engine.Run(runID)
	if err != nil {
		s.logger.Error("failed to read finished run", "run_id", runID, "error", err)
		return nil
	}

	send(core.RunStreamEvent(run))

	return nil
}

func (s *Server) runStream(w http.ResponseWriter, r *http.Request, req RunCreateRequest) {
	var sse *sseWriter

	err := s.streamRun(r, req.runRequest(),
		func() { sse = newSSEWriter(w) },
		func(ev core.StreamEvent) error { return sse.Write(ev) },
	)
	if err != nil {
		s.writeError(w, r, err)
	}
}
