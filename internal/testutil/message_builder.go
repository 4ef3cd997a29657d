package testutil

import (
	"github.com/Shivvam/agent-communication-protocol/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().Text("hello").Part("image/png", "aGk=").Build()
type MessageBuilder struct {
	role  string
	parts []core.Part
}

// NewMessageBuilder creates a builder with role "user".
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{role: core.RoleUser} }

// Role sets the message role (chainable).
func (b *MessageBuilder) Role(r string) *MessageBuilder { b.role = r; return b }

// Text appends a text/plain part (chainable).
func (b *MessageBuilder) Text(s string) *MessageBuilder {
	b.parts = append(b.parts, core.NewTextPart(s))
	return b
}

// Part appends a part with an explicit content type (chainable).
func (b *MessageBuilder) Part(contentType, content string) *MessageBuilder {
	b.parts = append(b.parts, core.Part{ContentType: contentType, Content: content})
	return b
}

// Build returns the message.
func (b *MessageBuilder) Build() core.Message { return core.NewMessage(b.role, b.parts...) }

// UserMessages builds one single-part user message per text.
func UserMessages(texts ...string) []core.Message {
	msgs := make([]core.Message, len(texts))
	for i, t := range texts {
		msgs[i] = core.NewUserMessage(t)
	}
	return msgs
}
