package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is a single prompt sent to an Answer Provider.
type Request struct {
	Instructions string `json:"instructions,omitempty"` // Optional system / role prompt
	Prompt       string `json:"prompt"`                 // Rendered user query
}

// TokenUsage reports provider token accounting when available.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's answer.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "safety", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info describes a model.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
}

// Model is the Answer Provider interface.
//
// Generate blocks until the provider answers or ctx is cancelled. Vendor
// failures are returned as *ProviderError; context errors are returned
// unwrapped.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns static metadata about the model.
	Info() Info
}

// Generate is the generate(prompt) -> string convenience over m.
func Generate(ctx context.Context, m Model, prompt string) (string, error) {
	resp, err := m.Generate(ctx, Request{Prompt: prompt})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// MockModel is a lightweight deterministic model for tests.
type MockModel struct {
	info      Info
	responses map[string]string
	failures  map[string]error

	mu       sync.Mutex
	requests []Request
}

// NewMockModel creates a mock model.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a canned answer for a prompt containing substr.
func (m *MockModel) AddResponse(substr, response string) { m.responses[substr] = response }

// AddFailure makes prompts containing substr fail with a ProviderError.
func (m *MockModel) AddFailure(substr string, err error) { m.failures[substr] = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	for substr, err := range m.failures {
		if strings.Contains(req.Prompt, substr) {
			return Response{}, &ProviderError{Provider: m.info.Provider, Model: m.info.Name, Err: err}
		}
	}

	for substr, text := range m.responses {
		if strings.Contains(req.Prompt, substr) {
			return Response{Text: text, FinishReason: "stop"}, nil
		}
	}

	return Response{Text: fmt.Sprintf("Mock response to: %s", req.Prompt), FinishReason: "stop"}, nil
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
