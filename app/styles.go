package app

import "github.com/charmbracelet/lipgloss"

var (
	hintColor   = lipgloss.Color("#6b7280")
	accentColor = lipgloss.Color("#8b5cf6")
	errorColor  = lipgloss.Color("#ef4444")
	toolColor   = lipgloss.Color("#10b981")

	userStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(hintColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	toolNameStyle = lipgloss.NewStyle().
			Foreground(toolColor).
			Bold(true)

	toolIntentStyle = lipgloss.NewStyle().
			Foreground(hintColor)

	toolResultStyle = lipgloss.NewStyle().
			Foreground(hintColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(hintColor).
			PaddingLeft(1)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			PaddingBottom(1)

	modalSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(accentColor)

	modalItemStyle = lipgloss.NewStyle()

	spinnerStyle = lipgloss.NewStyle().
			Foreground(accentColor)
)
