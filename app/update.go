package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/ohblue/craft-agents-oss/credentials"
	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/router"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case agentEventMsg:
		m.applyEvent(msg.ev)
		m.refreshViewport()
		return m, waitForEvent(msg.ch)

	case turnDoneMsg:
		m.Loading = false
		m.refreshViewport()
		if m.Session != nil && m.Session.Title == "" && m.pendingTitleSeed != "" {
			seed := m.pendingTitleSeed
			m.pendingTitleSeed = ""
			return m, m.generateTitle(seed)
		}
		return m, nil

	case turnErrMsg:
		m.Loading = false
		m.Err = msg.err
		m.Transcript = append(m.Transcript, entry{kind: entryInfo, text: "error: " + msg.err.Error()})
		m.refreshViewport()
		return m, nil

	case titleMsg:
		if msg.title != "" && m.Session != nil {
			m.Session.Title = msg.title
		}
		return m, nil

	case sessionsLoadedMsg:
		m.Sessions = msg.sessions
		m.Err = msg.err
		m.SessionSelectedIdx = 0
		m.SessionListOpen = true
		return m, nil

	case credsMsg:
		m.Transcript = append(m.Transcript, entry{
			kind: entryInfo,
			text: "codex credentials changed: " + authLabel(msg.auth),
		})
		m.refreshViewport()
		return m, watchCreds(m.Creds)
	}

	var cmd tea.Cmd
	m.TextInput, cmd = m.TextInput.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modals capture keys before the main input.
	if m.ModelSelectorOpen {
		return m.handleModelSelectorKey(msg)
	}
	if m.SessionListOpen {
		return m.handleSessionListKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.Loading {
			m.Agent.ForceAbort()
			return m, nil
		}
		return m, nil

	case "ctrl+p":
		m.ModelSelectorOpen = true
		m.SelectedModelIdx = m.currentModelIndex()
		return m, nil

	case "ctrl+r":
		return m, m.loadSessions()

	case "enter":
		text := strings.TrimSpace(m.TextInput.Value())
		if text == "" || m.Loading {
			return m, nil
		}
		m.TextInput.Reset()
		m.Transcript = append(m.Transcript, entry{kind: entryUser, text: text})
		m.Loading = true
		m.Err = nil
		if m.Session != nil && m.Session.Title == "" && m.pendingTitleSeed == "" {
			m.pendingTitleSeed = text
		}
		m.refreshViewport()
		return m, tea.Batch(m.startTurn(text), m.Spinner.Tick)
	}

	var cmd tea.Cmd
	m.TextInput, cmd = m.TextInput.Update(msg)
	return m, cmd
}

func (m Model) handleModelSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	models := m.Registry.Models()
	switch msg.String() {
	case "esc":
		m.ModelSelectorOpen = false
	case "up", "k":
		if m.SelectedModelIdx > 0 {
			m.SelectedModelIdx--
		}
	case "down", "j":
		if m.SelectedModelIdx < len(models)-1 {
			m.SelectedModelIdx++
		}
	case "enter":
		m.ModelSelectorOpen = false
		if m.SelectedModelIdx >= 0 && m.SelectedModelIdx < len(models) {
			return m, m.switchModel(models[m.SelectedModelIdx].ID)
		}
	}
	return m, nil
}

func (m Model) handleSessionListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.SessionListOpen = false
	case "up", "k":
		if m.SessionSelectedIdx > 0 {
			m.SessionSelectedIdx--
		}
	case "down", "j":
		if m.SessionSelectedIdx < len(m.Sessions)-1 {
			m.SessionSelectedIdx++
		}
	case "enter":
		m.SessionListOpen = false
		if m.SessionSelectedIdx >= 0 && m.SessionSelectedIdx < len(m.Sessions) {
			return m.switchSession(m.Sessions[m.SessionSelectedIdx])
		}
	}
	return m, nil
}

// switchSession swaps the active agent for the selected stored session.
// Transcript history is not replayed; earlier turns live in the provider's
// thread and resume server-side.
func (m Model) switchSession(sess *router.Session) (tea.Model, tea.Cmd) {
	if m.Loading || (m.Session != nil && sess.ID == m.Session.ID) {
		return m, nil
	}
	agent, err := m.Router.Open(sess)
	if err != nil {
		m.Err = err
		return m, nil
	}
	m.Session = sess
	m.Agent = agent
	m.Transcript = nil
	m.Streaming = ""
	m.pendingTitleSeed = ""
	m.refreshViewport()
	return m, nil
}

func (m Model) currentModelIndex() int {
	if m.Session == nil {
		return 0
	}
	for i, mdl := range m.Registry.Models() {
		if mdl.ID == m.Session.Model {
			return i
		}
	}
	return 0
}

func (m *Model) resize() {
	inputHeight := m.TextInput.Height() + 1
	vpHeight := m.Height - inputHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.Viewport.Width = m.Width
	m.Viewport.Height = vpHeight
	m.TextInput.SetWidth(m.Width - 2)

	wrap := m.Width - 4
	if wrap > maxChatWidth {
		wrap = maxChatWidth
	}
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.Renderer = renderer
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.Viewport.SetContent(m.renderTranscript())
	m.Viewport.GotoBottom()
}

func (m Model) startTurn(message string) tea.Cmd {
	agent := m.Agent
	return func() tea.Msg {
		ch, err := agent.Chat(context.Background(), message, nil)
		if err != nil {
			return turnErrMsg{err: err}
		}
		return readEvent(ch)
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		return readEvent(ch)
	}
}

// watchCreds blocks on the credential watch channel and re-arms after each
// delivery. A closed channel ends the watch silently.
func watchCreds(ch <-chan *credentials.Auth) tea.Cmd {
	return func() tea.Msg {
		auth, ok := <-ch
		if !ok {
			return nil
		}
		return credsMsg{auth: auth}
	}
}

func readEvent(ch <-chan events.Event) tea.Msg {
	ev, ok := <-ch
	if !ok {
		return turnDoneMsg{}
	}
	return agentEventMsg{ev: ev, ch: ch}
}

func (m Model) switchModel(id string) tea.Cmd {
	agent, rt, sess := m.Agent, m.Router, m.Session
	return func() tea.Msg {
		if err := agent.SetModel(context.Background(), id); err != nil {
			return turnErrMsg{err: err}
		}
		if sess != nil {
			sess.Model = id
			if err := rt.Store().SetModel(sess.ID, id); err != nil {
				return turnErrMsg{err: err}
			}
		}
		return nil
	}
}

func (m Model) loadSessions() tea.Cmd {
	rt := m.Router
	return func() tea.Msg {
		sessions, err := rt.Store().ListSessions(sessionListLimit)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (m Model) generateTitle(seed string) tea.Cmd {
	rt, sess := m.Router, m.Session
	return func() tea.Msg {
		title := rt.GenerateTitle(context.Background(), sess, seed)
		if title != "" {
			if err := rt.Store().SetTitle(sess.ID, title); err != nil {
				return turnErrMsg{err: err}
			}
		}
		return titleMsg{title: title}
	}
}
