package core

import (
	"fmt"
	"strings"
	"unicode"
)

// AgentDescriptor is the static registration metadata of an agent. It is
// created once at startup and looked up by name at dispatch time.
type AgentDescriptor struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	InputContentTypes  []string          `json:"input_content_types"`
	OutputContentTypes []string          `json:"output_content_types"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// NewTextDescriptor describes an agent consuming and producing text/plain.
func NewTextDescriptor(name, description string) AgentDescriptor {
	return AgentDescriptor{
		Name:               name,
		Description:        description,
		InputContentTypes:  []string{ContentTypeText},
		OutputContentTypes: []string{ContentTypeText},
	}
}

// Validate checks the name and content type sets.
func (d AgentDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}

	if strings.IndexFunc(d.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: name %q contains whitespace", ErrInvalidDescriptor, d.Name)
	}

	if len(d.InputContentTypes) == 0 || len(d.OutputContentTypes) == 0 {
		return fmt.Errorf("%w: %s must declare input and output content types", ErrInvalidDescriptor, d.Name)
	}

	return nil
}

// AcceptsInput reports whether contentType is in the accepted input set.
func (d AgentDescriptor) AcceptsInput(contentType string) bool {
	return matchAny(d.InputContentTypes, contentType)
}

// ProducesOutput reports whether contentType is in the declared output set.
func (d AgentDescriptor) ProducesOutput(contentType string) bool {
	return matchAny(d.OutputContentTypes, contentType)
}

// CheckInput verifies every part of every message against the input set.
func (d AgentDescriptor) CheckInput(inputs []Message) error {
	for i, m := range inputs {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}

		for _, ct := range m.ContentTypes() {
			if !d.AcceptsInput(ct) {
				return fmt.Errorf("%w: %s does not accept %s", ErrUnsupportedContentType, d.Name, ct)
			}
		}
	}

	return nil
}

// Clone returns a deep copy so callers cannot mutate registered metadata.
func (d AgentDescriptor) Clone() AgentDescriptor {
	c := d
	c.InputContentTypes = append([]string(nil), d.InputContentTypes...)
	c.OutputContentTypes = append([]string(nil), d.OutputContentTypes...)

	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}

	return c
}

func matchAny(patterns []string, contentType string) bool {
	mt := Part{ContentType: contentType}.MediaType()

	for _, p := range patterns {
		if matchMediaType(Part{ContentType: p}.MediaType(), mt) {
			return true
		}
	}

	return false
}

// matchMediaType supports "*/*" and "type/*" wildcards.
func matchMediaType(pattern, mt string) bool {
	if pattern == "*/*" || pattern == mt {
		return true
	}

	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mt, prefix+"/")
	}

	return false
}
