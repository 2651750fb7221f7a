package claude

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/thinking"
)

type fakeThread struct {
	mu     sync.Mutex
	id     string
	opts   ThreadOptions
	events []map[string]interface{}
}

func (t *fakeThread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *fakeThread) SupportsStreaming() bool { return true }

func (t *fakeThread) RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error) {
	out := make(chan map[string]interface{})
	go func() {
		defer close(out)
		for _, ev := range t.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (t *fakeThread) Run(ctx context.Context, message string) (*TurnResult, error) {
	return &TurnResult{}, nil
}

type fakeConnection struct {
	mu      sync.Mutex
	thread  *fakeThread
	resumes []string
}

func (c *fakeConnection) StartThread(ctx context.Context, opts ThreadOptions) (Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thread.opts = opts
	return c.thread, nil
}

func (c *fakeConnection) ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes = append(c.resumes, threadID)
	c.thread.opts = opts
	return c.thread, nil
}

func (c *fakeConnection) Close() error { return nil }

func collect(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var out []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out; got %d events", len(out))
		}
	}
}

// flattenAll runs a turn's worth of raw CLI events through one flattener, the
// way the streaming transport does.
func flattenAll(raws []map[string]interface{}) []map[string]interface{} {
	f := newEventFlattener()
	var out []map[string]interface{}
	for _, raw := range raws {
		out = append(out, f.flatten(raw)...)
	}
	return out
}

func TestChat_FlattenedStream(t *testing.T) {
	thread := &fakeThread{
		events: flattenAll([]map[string]interface{}{
			{
				"type":       "stream_event",
				"session_id": "s-1",
				"event": map[string]interface{}{
					"type":  "content_block_delta",
					"delta": map[string]interface{}{"type": "text_delta", "text": "hello"},
				},
			},
			{
				"type":       "result",
				"result":     "hello world",
				"session_id": "s-1",
			},
		}),
	}
	conn := &fakeConnection{thread: thread}
	a := NewAgent(withDialFunc(func(ctx context.Context) (Connection, error) {
		return conn, nil
	}))

	ch, err := a.Chat(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	got := collect(t, ch)

	if len(got) != 3 {
		t.Fatalf("got %d events (%#v), want delta + text complete + complete", len(got), got)
	}
	if d, ok := got[0].(events.TextDelta); !ok || d.Delta != "hello" {
		t.Fatalf("got[0] = %#v", got[0])
	}
	if tc, ok := got[1].(events.TextComplete); !ok || tc.Text != "hello world" {
		t.Fatalf("got[1] = %#v", got[1])
	}
	if _, ok := got[2].(events.Complete); !ok {
		t.Fatalf("got[2] = %T", got[2])
	}
}

func TestChat_ToolEventsSurface(t *testing.T) {
	thread := &fakeThread{
		events: flattenAll([]map[string]interface{}{
			{
				"type": "assistant",
				"message": map[string]interface{}{
					"content": []interface{}{
						map[string]interface{}{
							"type": "tool_use", "id": "toolu_1", "name": "Bash",
							"input": map[string]interface{}{"command": "ls"},
						},
					},
				},
			},
			{
				"type": "user",
				"message": map[string]interface{}{
					"content": []interface{}{
						map[string]interface{}{
							"type":        "tool_result",
							"tool_use_id": "toolu_1",
							"content":     "file.txt",
						},
					},
				},
			},
			{
				"type":   "result",
				"result": "done",
			},
		}),
	}
	conn := &fakeConnection{thread: thread}
	a := NewAgent(withDialFunc(func(ctx context.Context) (Connection, error) {
		return conn, nil
	}))

	ch, err := a.Chat(context.Background(), "list the files", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	got := collect(t, ch)

	if len(got) != 4 {
		t.Fatalf("got %d events (%#v), want tool start + tool result + text complete + complete", len(got), got)
	}
	start, ok := got[0].(events.ToolStart)
	if !ok || start.Name != "Bash" || start.ID != "toolu_1" {
		t.Fatalf("got[0] = %#v", got[0])
	}
	if start.Input["command"] != "ls" {
		t.Fatalf("tool input = %v", start.Input)
	}
	result, ok := got[1].(events.ToolResult)
	if !ok || result.ID != "toolu_1" || result.Result != "file.txt" || result.IsError {
		t.Fatalf("got[1] = %#v", got[1])
	}
	if tc, ok := got[2].(events.TextComplete); !ok || tc.Text != "done" {
		t.Fatalf("got[2] = %#v", got[2])
	}
	if _, ok := got[3].(events.Complete); !ok {
		t.Fatalf("got[3] = %T", got[3])
	}
}

func TestThreadOptions_ThinkingBudget(t *testing.T) {
	a := NewAgent(WithModel("sonnet"), WithThinkingLevel(thinking.LevelThink))

	a.mu.Lock()
	opts, err := a.threadOptionsLocked()
	a.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxThinkingTokens != 10000 {
		t.Fatalf("budget = %d, want 10000 for think on a default model", opts.MaxThinkingTokens)
	}

	// The override pins the budget to the maximum.
	a.cfg.ultrathink = true
	a.mu.Lock()
	opts, err = a.threadOptionsLocked()
	a.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxThinkingTokens != 32000 {
		t.Fatalf("budget = %d, want 32000 under ultrathink", opts.MaxThinkingTokens)
	}
}

func TestThreadOptions_FastModelBudget(t *testing.T) {
	a := NewAgent(WithModel("haiku"), WithThinkingLevel(thinking.LevelMax))

	a.mu.Lock()
	opts, err := a.threadOptionsLocked()
	a.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxThinkingTokens != 8000 {
		t.Fatalf("budget = %d, want 8000 for max on a fast model", opts.MaxThinkingTokens)
	}
}

func TestSetSources_NotifiesCanonicalNames(t *testing.T) {
	var reported []string
	notifier := &sourcesNotifier{onSources: func(names []string) { reported = names }}
	conn := &fakeConnection{thread: &fakeThread{}}
	a := NewAgent(WithNotifier(notifier), withDialFunc(func(ctx context.Context) (Connection, error) {
		return conn, nil
	}))

	src := Source{Name: "utils"}
	AddTool[echoParams](&src, "echo", "")
	if err := a.SetSources(context.Background(), src); err != nil {
		t.Fatalf("SetSources: %v", err)
	}

	if len(reported) != 1 || reported[0] != "mcp__utils__echo" {
		t.Fatalf("reported = %v", reported)
	}
}

type sourcesNotifier struct {
	BaseNotifier
	onSources func([]string)
}

func (n *sourcesNotifier) OnSourcesChanged(names []string) {
	if n.onSources != nil {
		n.onSources(names)
	}
}
