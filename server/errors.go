package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// Error codes of the ACP error body.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeTooManyRuns  = "too_many_runs"
	CodeServerError  = "server_error"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errInvalidInput = errors.New("invalid input")

// statusFor maps domain errors to an HTTP status and ACP error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrAgentNotFound), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusTooManyRequests, CodeTooManyRuns
	case errors.Is(err, errInvalidInput),
		errors.Is(err, core.ErrUnsupportedContentType),
		errors.Is(err, core.ErrInvalidMessage),
		errors.Is(err, core.ErrInvalidEvent):
		return http.StatusBadRequest, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}

	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
