package app

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ohblue/craft-agents-oss/credentials"
	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/router"
)

// applyEvent folds one normalized event into the transcript.
func (m *Model) applyEvent(ev events.Event) {
	switch ev := ev.(type) {
	case events.TextDelta:
		m.Streaming += ev.Delta

	case events.TextComplete:
		m.Streaming = ""
		if ev.Text != "" {
			m.Transcript = append(m.Transcript, entry{kind: entryAssistant, text: ev.Text})
		}

	case events.ToolStart:
		name := ev.Name
		if ev.DisplayName != "" {
			name = ev.DisplayName
		}
		m.Transcript = append(m.Transcript, entry{
			kind:       entryTool,
			toolID:     ev.ID,
			toolName:   name,
			toolIntent: toolIntent(ev),
			parentID:   ev.ParentID,
		})

	case events.ToolResult:
		if e := m.findTool(ev.ID); e != nil {
			e.result = ev.Result
			e.isError = ev.IsError
			e.done = true
		}

	case events.ParentUpdate:
		if e := m.findTool(ev.ID); e != nil {
			e.parentID = ev.ParentID
		}

	case events.Info:
		m.Transcript = append(m.Transcript, entry{kind: entryInfo, text: ev.Message})

	case events.Complete:
		m.Streaming = ""
	}
}

func (m *Model) findTool(id string) *entry {
	for i := len(m.Transcript) - 1; i >= 0; i-- {
		if m.Transcript[i].kind == entryTool && m.Transcript[i].toolID == id {
			return &m.Transcript[i]
		}
	}
	return nil
}

// toolIntent picks a one-line description of the invocation for display.
func toolIntent(ev events.ToolStart) string {
	if ev.Intent != "" {
		return ev.Intent
	}
	for _, key := range []string{"command", "path", "file_path", "query", "pattern"} {
		if v, ok := ev.Input[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (m *Model) renderTranscript() string {
	var b strings.Builder
	for i, e := range m.Transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch e.kind {
		case entryUser:
			b.WriteString(userStyle.Render("❯ " + e.text))
			b.WriteString("\n")
		case entryAssistant:
			b.WriteString(m.renderMarkdown(e.text))
		case entryInfo:
			b.WriteString(infoStyle.Render(e.text))
			b.WriteString("\n")
		case entryTool:
			b.WriteString(m.renderTool(e))
		}
	}
	if m.Streaming != "" {
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(m.Streaming))
	}
	return b.String()
}

func (m *Model) renderMarkdown(text string) string {
	if m.Renderer == nil {
		return text + "\n"
	}
	out, err := m.Renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m *Model) renderTool(e entry) string {
	indent := ""
	if e.parentID != "" {
		indent = "  "
	}

	marker := "●"
	if e.done && e.isError {
		marker = errorStyle.Render("✗")
	}

	line := indent + marker + " " + toolNameStyle.Render(e.toolName)
	if e.toolIntent != "" {
		line += " " + toolIntentStyle.Render(truncateLine(e.toolIntent, m.contentWidth()-len(indent)-len(e.toolName)-4))
	}
	line += "\n"

	if e.done && e.result != "" {
		preview := firstLine(e.result)
		style := toolResultStyle
		if e.isError {
			style = errorStyle
		}
		line += indent + "  " + style.Render(truncateLine(preview, m.contentWidth()-len(indent)-4)) + "\n"
	}
	return line
}

func (m *Model) contentWidth() int {
	w := m.Width
	if w <= 0 {
		w = 80
	}
	if w > maxChatWidth {
		w = maxChatWidth
	}
	return w
}

// truncateLine shortens s to max display cells, rune-width aware.
func truncateLine(s string, max int) string {
	if max < 8 {
		max = 8
	}
	return runewidth.Truncate(s, max, "…")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// authLabel summarizes a Codex credential snapshot for display.
func authLabel(a *credentials.Auth) string {
	switch {
	case a.HasSubscription():
		return "subscription login"
	case a.HasAPIKey():
		return "api key"
	default:
		return "not logged in"
	}
}

// sessionLabel is the one-line summary shown in the session list.
func sessionLabel(s *router.Session) string {
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	return title + "  " + toolIntentStyle.Render(s.Provider+" · "+s.Model)
}
