package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Shivvam/agent-communication-protocol/core"
)

const liveWriteWait = 10 * time.Second

// handleRunLive upgrades to a websocket, reads one run request and writes
// one JSON frame per stream event before closing. Request errors are sent
// as an error body followed by a close frame.
func (s *Server) handleRunLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req RunCreateRequest
	if err := conn.ReadJSON(&req); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.closeLive(conn, websocket.CloseUnsupportedData, err.Error())
		}

		return
	}

	// a closed or failing connection cancels the run
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = s.streamRun(r.WithContext(ctx), req.runRequest(), func() {}, func(ev core.StreamEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		return conn.WriteJSON(ev)
	})
	if err != nil {
		_, code := statusFor(err)
		_ = conn.WriteJSON(ErrorBody{Error: ErrorDetail{Code: code, Message: err.Error()}})
		s.closeLive(conn, websocket.ClosePolicyViolation, code)

		return
	}

	s.closeLive(conn, websocket.CloseNormalClosure, "")
}

func (s *Server) closeLive(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(liveWriteWait))
}
