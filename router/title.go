package router

import (
	"context"
	"strings"
	"time"

	"github.com/ohblue/craft-agents-oss/events"
)

// titleTimeout bounds the one-shot title turn.
const titleTimeout = 30 * time.Second

// titlePrompt asks for a short label for the conversation opener.
const titlePrompt = "Reply with only a short title (at most six words, no quotes) for a conversation that starts with this message:\n\n"

// GenerateTitle runs a one-shot turn asking for a title for the session's
// opening message. Best effort: any failure is logged and yields "", never an
// error. Session records stay untitled when generation fails.
//
// The turn runs on a scratch agent with no thread identity, so the title
// exchange never lands in the session's real conversation history and never
// competes with the session agent's in-flight turns.
func (r *Router) GenerateTitle(ctx context.Context, sess *Session, firstMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	scratch := *sess
	scratch.ID = ""
	scratch.ThreadID = ""
	agent, err := r.newAgent(&scratch)
	if err != nil {
		r.log.Debug("title generation failed", "error", err)
		return ""
	}
	defer agent.Dispose()

	ch, err := agent.Chat(ctx, titlePrompt+firstMessage, nil)
	if err != nil {
		r.log.Debug("title generation failed", "error", err)
		return ""
	}

	var title string
	for ev := range ch {
		if tc, ok := ev.(events.TextComplete); ok {
			title = tc.Text
		}
	}

	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" {
		r.log.Debug("title generation produced no text")
	}
	return title
}
