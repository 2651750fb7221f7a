package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.ModelSelectorOpen {
		return m.renderModelSelector()
	}
	if m.SessionListOpen {
		return m.renderSessionList()
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	if m.Loading {
		b.WriteString(m.Spinner.View())
		b.WriteString(infoStyle.Render(" working... (esc to interrupt)"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.TextInput.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) statusBar() string {
	model := "no model"
	title := ""
	if m.Session != nil {
		if m.Session.Model != "" {
			model = m.Session.Model
		}
		title = m.Session.Title
	}
	parts := []string{model}
	if title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, "ctrl+p models · ctrl+r sessions · ctrl+c quit")
	return statusBarStyle.Render(strings.Join(parts, "  |  "))
}

func (m Model) renderModelSelector() string {
	items := []string{modalTitleStyle.Render("Select model")}
	var lastProvider string
	for i, mdl := range m.Registry.Models() {
		if mdl.Provider != lastProvider {
			if lastProvider != "" {
				items = append(items, "")
			}
			items = append(items, toolNameStyle.Render(mdl.Provider))
			lastProvider = mdl.Provider
		}

		label := mdl.Label
		if m.Session != nil && m.Session.Model == mdl.ID {
			label = "● " + label
		} else {
			label = "  " + label
		}
		if i == m.SelectedModelIdx {
			items = append(items, modalSelectedStyle.Render(label))
		} else {
			items = append(items, modalItemStyle.Render(label))
		}
	}
	items = append(items, "", infoStyle.Render("↑/↓ navigate · enter select · esc close"))
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (m Model) renderSessionList() string {
	items := []string{modalTitleStyle.Render(fmt.Sprintf("Sessions (%d)", len(m.Sessions)))}
	if m.Err != nil {
		items = append(items, errorStyle.Render(m.Err.Error()))
	} else if len(m.Sessions) == 0 {
		items = append(items, infoStyle.Render("No sessions yet"))
	}
	for i, sess := range m.Sessions {
		label := sessionLabel(sess)
		if i == m.SessionSelectedIdx {
			items = append(items, modalSelectedStyle.Render("> "+label))
		} else {
			items = append(items, modalItemStyle.Render("  "+label))
		}
	}
	items = append(items, "", infoStyle.Render("↑/↓ navigate · enter open · esc close"))
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}
