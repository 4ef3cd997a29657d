package core

import (
	"fmt"
	"strings"
	"time"
)

// ContentTypeText is the default MIME type of a Part.
const ContentTypeText = "text/plain"

// Content encodings supported by a Part.
const (
	EncodingPlain  = "plain"
	EncodingBase64 = "base64"
)

// Conversation roles. Agent authored messages use "agent/<name>".
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// AgentRole returns the role used for messages authored by the named agent.
func AgentRole(name string) string { return RoleAgent + "/" + name }

// Part is one (content, content type) segment of a Message.
type Part struct {
	Name            string         `json:"name,omitempty"`
	ContentType     string         `json:"content_type"`
	Content         string         `json:"content,omitempty"`
	ContentEncoding string         `json:"content_encoding,omitempty"`
	ContentURL      string         `json:"content_url,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// NewTextPart returns a text/plain part carrying s.
func NewTextPart(s string) Part {
	return Part{ContentType: ContentTypeText, Content: s, ContentEncoding: EncodingPlain}
}

// MediaType returns the content type without parameters, lower cased,
// defaulting to text/plain.
func (p Part) MediaType() string {
	ct := p.ContentType
	if ct == "" {
		return ContentTypeText
	}

	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}

	return strings.ToLower(strings.TrimSpace(ct))
}

// IsText reports whether the part holds plain inline text.
func (p Part) IsText() bool {
	return strings.HasPrefix(p.MediaType(), "text/") && p.ContentEncoding != EncodingBase64
}

// Validate checks encoding and that the part carries content or a URL.
func (p Part) Validate() error {
	switch p.ContentEncoding {
	case "", EncodingPlain, EncodingBase64:
	default:
		return fmt.Errorf("%w: unknown content encoding %q", ErrInvalidMessage, p.ContentEncoding)
	}

	if p.Content != "" && p.ContentURL != "" {
		return fmt.Errorf("%w: part has both content and content_url", ErrInvalidMessage)
	}

	return nil
}

// normalized fills in defaults for omitted fields.
func (p Part) normalized() Part {
	if p.ContentType == "" {
		p.ContentType = ContentTypeText
	}

	if p.ContentEncoding == "" {
		p.ContentEncoding = EncodingPlain
	}

	return p
}

// Message is an ordered sequence of Parts exchanged with an agent. Messages
// are handled as values; constructors copy the part slice.
type Message struct {
	Role        string     `json:"role"`
	Parts       []Part     `json:"parts"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewMessage builds a message from parts, applying part defaults.
func NewMessage(role string, parts ...Part) Message {
	cp := make([]Part, len(parts))
	for i, p := range parts {
		cp[i] = p.normalized()
	}

	return Message{Role: role, Parts: cp}
}

// NewTextMessage builds a single-part text/plain message.
func NewTextMessage(role, text string) Message {
	return NewMessage(role, NewTextPart(text))
}

// NewUserMessage is shorthand for a text message authored by the user.
func NewUserMessage(text string) Message { return NewTextMessage(RoleUser, text) }

// Text concatenates the content of all text parts.
func (m Message) Text() string {
	var b strings.Builder

	for _, p := range m.Parts {
		if p.IsText() {
			b.WriteString(p.Content)
		}
	}

	return b.String()
}

// ContentTypes lists the distinct media types in part order.
func (m Message) ContentTypes() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.Parts))

	for _, p := range m.Parts {
		mt := p.MediaType()
		if _, ok := seen[mt]; ok {
			continue
		}

		seen[mt] = struct{}{}
		out = append(out, mt)
	}

	return out
}

// Clone returns a copy whose part slice can be modified independently. The
// copy always has a non-nil part slice so it encodes as "parts": [].
func (m Message) Clone() Message {
	c := m
	c.Parts = make([]Part, len(m.Parts))
	copy(c.Parts, m.Parts)

	return c
}

// WithRole returns a copy of the message authored by role.
func (m Message) WithRole(role string) Message {
	c := m.Clone()
	c.Role = role

	return c
}

// Validate checks every part.
func (m Message) Validate() error {
	for i, p := range m.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}

	return nil
}
