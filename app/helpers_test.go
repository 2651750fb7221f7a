package app

import (
	"strings"
	"testing"

	"github.com/ohblue/craft-agents-oss/credentials"
	"github.com/ohblue/craft-agents-oss/events"
)

func TestApplyEvent_StreamingCollapsesIntoFinalText(t *testing.T) {
	m := &Model{}
	m.applyEvent(events.TextDelta{Delta: "Hello"})
	m.applyEvent(events.TextDelta{Delta: ", world"})
	if m.Streaming != "Hello, world" {
		t.Fatalf("streaming = %q", m.Streaming)
	}
	m.applyEvent(events.TextComplete{Text: "Hello, world"})
	if m.Streaming != "" {
		t.Fatalf("streaming not cleared: %q", m.Streaming)
	}
	if len(m.Transcript) != 1 || m.Transcript[0].kind != entryAssistant || m.Transcript[0].text != "Hello, world" {
		t.Fatalf("transcript = %+v", m.Transcript)
	}
}

func TestApplyEvent_ToolLifecycle(t *testing.T) {
	m := &Model{}
	m.applyEvent(events.ToolStart{
		ID:    "c1",
		Name:  "bash",
		Input: map[string]interface{}{"command": "ls"},
	})
	m.applyEvent(events.ToolResult{ID: "c1", Result: "file.txt"})

	if len(m.Transcript) != 1 {
		t.Fatalf("transcript length = %d", len(m.Transcript))
	}
	e := m.Transcript[0]
	if e.toolName != "bash" || e.toolIntent != "ls" {
		t.Fatalf("tool entry = %+v", e)
	}
	if !e.done || e.isError || e.result != "file.txt" {
		t.Fatalf("result not applied: %+v", e)
	}
}

func TestApplyEvent_ParentUpdateIndentsTool(t *testing.T) {
	m := &Model{Width: 80}
	m.applyEvent(events.ToolStart{ID: "m1", Name: "mcp__a__b"})
	m.applyEvent(events.ParentUpdate{ID: "m1", ParentID: "root"})
	m.applyEvent(events.ToolResult{ID: "m1", Result: "ok"})

	if m.Transcript[0].parentID != "root" {
		t.Fatalf("parent not applied: %+v", m.Transcript[0])
	}
	rendered := m.renderTool(m.Transcript[0])
	if !strings.HasPrefix(rendered, "  ") {
		t.Fatalf("child tool not indented: %q", rendered)
	}
}

func TestApplyEvent_ResultForUnknownIDIgnored(t *testing.T) {
	m := &Model{}
	m.applyEvent(events.ToolResult{ID: "ghost", Result: "x"})
	if len(m.Transcript) != 0 {
		t.Fatalf("unexpected transcript: %+v", m.Transcript)
	}
}

func TestToolIntent_FallsBackToInputFields(t *testing.T) {
	tests := []struct {
		name string
		ev   events.ToolStart
		want string
	}{
		{"explicit intent wins", events.ToolStart{Intent: "list files", Input: map[string]interface{}{"command": "ls"}}, "list files"},
		{"command fallback", events.ToolStart{Input: map[string]interface{}{"command": "ls -la"}}, "ls -la"},
		{"path fallback", events.ToolStart{Input: map[string]interface{}{"path": "/tmp/x"}}, "/tmp/x"},
		{"no input", events.ToolStart{}, ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := toolIntent(tc.ev); got != tc.want {
				t.Fatalf("intent = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAuthLabel(t *testing.T) {
	tests := []struct {
		name string
		auth *credentials.Auth
		want string
	}{
		{"subscription", &credentials.Auth{Tokens: &credentials.Tokens{AccessToken: "tok"}}, "subscription login"},
		{"api key", &credentials.Auth{APIKey: "sk-1"}, "api key"},
		{"empty file", &credentials.Auth{}, "not logged in"},
		{"missing file", nil, "not logged in"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := authLabel(tc.auth); got != tc.want {
				t.Fatalf("label = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUpdate_CredentialChangeNotice(t *testing.T) {
	creds := make(chan *credentials.Auth)
	m := Model{Creds: creds}

	next, cmd := m.Update(credsMsg{auth: &credentials.Auth{Tokens: &credentials.Tokens{AccessToken: "tok"}}})
	got := next.(Model)

	if len(got.Transcript) != 1 || got.Transcript[0].kind != entryInfo {
		t.Fatalf("transcript = %+v", got.Transcript)
	}
	if !strings.Contains(got.Transcript[0].text, "subscription") {
		t.Fatalf("notice = %q", got.Transcript[0].text)
	}
	if cmd == nil {
		t.Fatal("watch must re-arm after a delivery")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("short", 40); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("a", 100)
	got := truncateLine(long, 20)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("no ellipsis: %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo"); got != "one" {
		t.Fatalf("got %q", got)
	}
	if got := firstLine("only"); got != "only" {
		t.Fatalf("got %q", got)
	}
}
