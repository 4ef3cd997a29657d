package core

import (
	"errors"
	"testing"
)

func TestAgentDescriptor_Validate(t *testing.T) {
	if err := NewTextDescriptor("Echo_Agent", "Echoes everything").Validate(); err != nil {
		t.Fatalf("valid descriptor rejected: %v", err)
	}

	for _, d := range []AgentDescriptor{
		{},
		{Name: "has space", InputContentTypes: []string{"*/*"}, OutputContentTypes: []string{"*/*"}},
		{Name: "no_types"},
	} {
		if err := d.Validate(); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("expected ErrInvalidDescriptor for %+v, got %v", d, err)
		}
	}
}

func TestAgentDescriptor_AcceptsInput(t *testing.T) {
	d := AgentDescriptor{Name: "a", InputContentTypes: []string{"text/*", "application/json"}, OutputContentTypes: []string{"*/*"}}

	cases := map[string]bool{
		"text/plain":                true,
		"text/markdown":             true,
		"Text/Plain; charset=utf-8": true,
		"application/json":          true,
		"image/png":                 false,
		"":                          true, // defaults to text/plain
	}
	for ct, want := range cases {
		if got := d.AcceptsInput(ct); got != want {
			t.Errorf("AcceptsInput(%q) = %v, want %v", ct, got, want)
		}
	}

	if !d.ProducesOutput("image/png") {
		t.Error("*/* should match any output type")
	}
}

func TestAgentDescriptor_CheckInput(t *testing.T) {
	d := NewTextDescriptor("Echo_Agent", "")

	if err := d.CheckInput([]Message{NewUserMessage("a"), NewUserMessage("b")}); err != nil {
		t.Fatalf("text input rejected: %v", err)
	}

	img := NewMessage(RoleUser, Part{ContentType: "image/png", ContentURL: "http://x/y.png"})
	if err := d.CheckInput([]Message{img}); !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("expected ErrUnsupportedContentType, got %v", err)
	}

	if err := d.CheckInput(nil); err != nil {
		t.Fatalf("empty input should pass: %v", err)
	}
}

func TestAgentDescriptor_Clone(t *testing.T) {
	d := NewTextDescriptor("a", "")
	d.Metadata = map[string]string{"k": "v"}

	c := d.Clone()
	c.InputContentTypes[0] = "image/png"
	c.Metadata["k"] = "changed"

	if d.InputContentTypes[0] != ContentTypeText || d.Metadata["k"] != "v" {
		t.Fatal("clone shares memory with original")
	}
}

func TestMessage_Helpers(t *testing.T) {
	m := NewMessage(RoleUser,
		Part{Content: "hello "},
		Part{ContentType: "text/plain", Content: "world"},
		Part{ContentType: "image/png", Content: "aGk=", ContentEncoding: EncodingBase64},
	)

	if m.Text() != "hello world" {
		t.Fatalf("Text() = %q", m.Text())
	}
	if m.Parts[0].ContentType != ContentTypeText || m.Parts[0].ContentEncoding != EncodingPlain {
		t.Fatalf("defaults not applied: %+v", m.Parts[0])
	}
	if cts := m.ContentTypes(); len(cts) != 2 || cts[0] != "text/plain" || cts[1] != "image/png" {
		t.Fatalf("ContentTypes() = %v", cts)
	}

	both := Part{Content: "x", ContentURL: "http://x"}
	if err := both.Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRun_Transitions(t *testing.T) {
	r := NewRun("run-1", "Echo_Agent", "", nil)
	if r.Status != RunCreated {
		t.Fatalf("status = %s", r.Status)
	}
	if !r.Transition(RunInProgress) || !r.Transition(RunCompleted) {
		t.Fatal("expected transitions to succeed")
	}
	if r.FinishedAt == nil {
		t.Fatal("terminal transition must set FinishedAt")
	}
	if r.Transition(RunInProgress) || r.Fail("server_error", errors.New("late")) {
		t.Fatal("terminal runs must not change")
	}
	if r.Status != RunCompleted || r.Error != nil {
		t.Fatalf("terminal run mutated: %+v", r)
	}
}
