// Package app is the terminal chat UI. It drives one session's agent through
// the router and renders the normalized event stream.
package app

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/ohblue/craft-agents-oss/config"
	"github.com/ohblue/craft-agents-oss/credentials"
	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/router"
)

const (
	maxChatWidth     = 100
	sessionListLimit = 50
)

// entryKind discriminates transcript entries.
type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryTool
	entryInfo
)

// entry is one rendered line group in the transcript.
type entry struct {
	kind entryKind

	// entryUser / entryAssistant / entryInfo
	text string

	// entryTool
	toolID     string
	toolName   string
	toolIntent string
	parentID   string
	result     string
	isError    bool
	done       bool
}

// agentEventMsg delivers one normalized event plus the channel to keep
// pumping.
type agentEventMsg struct {
	ev events.Event
	ch <-chan events.Event
}

// turnDoneMsg reports that the event channel closed.
type turnDoneMsg struct{}

// turnErrMsg reports a turn that failed before producing events.
type turnErrMsg struct{ err error }

// titleMsg delivers a best-effort generated session title.
type titleMsg struct{ title string }

// sessionsLoadedMsg delivers the stored session list.
type sessionsLoadedMsg struct {
	sessions []*router.Session
	err      error
}

// credsMsg delivers a fresh Codex credential snapshot after auth.json changed.
type credsMsg struct{ auth *credentials.Auth }

// Model is the bubbletea application state.
type Model struct {
	Viewport  viewport.Model
	TextInput textarea.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer

	Router   *router.Router
	Registry *config.Registry
	Session  *router.Session
	Agent    router.ChatAgent

	// Creds, when set, delivers Codex credential snapshots as auth.json
	// changes; each one is surfaced as an informational notice.
	Creds <-chan *credentials.Auth

	Transcript []entry
	Streaming  string

	// pendingTitleSeed holds the first user message of an untitled session
	// until its turn finishes and a title can be generated from it.
	pendingTitleSeed string

	Loading bool
	Err     error

	Width  int
	Height int

	ModelSelectorOpen bool
	SelectedModelIdx  int

	SessionListOpen    bool
	Sessions           []*router.Session
	SessionSelectedIdx int
}
