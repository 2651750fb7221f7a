package app

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohblue/craft-agents-oss/config"
	"github.com/ohblue/craft-agents-oss/router"
)

// NewModel builds the initial UI state for one session.
func NewModel(rt *router.Router, reg *config.Registry, sess *router.Session, agent router.ChatAgent) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.MaxHeight = 6
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	vp := viewport.New(80, 20)

	return Model{
		Viewport:  vp,
		TextInput: ta,
		Spinner:   sp,
		Router:    rt,
		Registry:  reg,
		Session:   sess,
		Agent:     agent,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.Spinner.Tick}
	if m.Creds != nil {
		cmds = append(cmds, watchCreds(m.Creds))
	}
	return tea.Batch(cmds...)
}

// NewProgram wraps the model in a bubbletea program with the alt screen.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
