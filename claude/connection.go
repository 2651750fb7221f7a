package claude

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/ohblue/craft-agents-oss/internal/ndjson"
	"github.com/ohblue/craft-agents-oss/internal/procattr"
)

// ThreadOptions parameterize a started or resumed Claude session.
type ThreadOptions struct {
	Model             string
	WorkDir           string
	MaxThinkingTokens int
	PermissionMode    string
	MCPConfig         string
}

// TurnResult is the outcome of a non-streaming run.
type TurnResult struct {
	Events []map[string]interface{}
	Text   string
}

// Thread is one Claude conversation handle.
type Thread interface {
	ID() string
	SupportsStreaming() bool
	RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error)
	Run(ctx context.Context, message string) (*TurnResult, error)
}

// Connection creates threads against the Claude CLI.
type Connection interface {
	StartThread(ctx context.Context, opts ThreadOptions) (Thread, error)
	ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error)
	Close() error
}

type cliConnection struct {
	exe string
	env []string
	log *slog.Logger
}

// DialCLI builds a Connection over the Claude CLI at exe with the given
// environment.
func DialCLI(exe string, env []string, log *slog.Logger) Connection {
	return &cliConnection{exe: exe, env: env, log: log}
}

func (c *cliConnection) StartThread(ctx context.Context, opts ThreadOptions) (Thread, error) {
	return &cliThread{conn: c, opts: opts}, nil
}

func (c *cliConnection) ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error) {
	return &cliThread{conn: c, opts: opts, id: threadID}, nil
}

func (c *cliConnection) Close() error { return nil }

// cliThread runs each turn as one `claude -p` invocation in stream-json
// output mode, resuming by session id once assigned.
type cliThread struct {
	conn *cliConnection
	opts ThreadOptions

	mu sync.Mutex
	id string
}

func (t *cliThread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *cliThread) SupportsStreaming() bool { return true }

func (t *cliThread) setID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == "" {
		t.id = id
	}
}

func (t *cliThread) buildArgs(message string) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose", "--include-partial-messages"}
	if id := t.ID(); id != "" {
		args = append(args, "--resume", id)
	}
	if t.opts.Model != "" {
		args = append(args, "--model", t.opts.Model)
	}
	if t.opts.PermissionMode != "" {
		args = append(args, "--permission-mode", t.opts.PermissionMode)
	}
	if t.opts.MCPConfig != "" {
		args = append(args, "--mcp-config", t.opts.MCPConfig)
	}
	return append(args, message)
}

func (t *cliThread) RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error) {
	cmd := exec.CommandContext(ctx, t.conn.exe, t.buildArgs(message)...)
	cmd.Env = t.conn.env
	if t.opts.MaxThinkingTokens > 0 {
		cmd.Env = append(cmd.Env, "MAX_THINKING_TOKENS="+strconv.Itoa(t.opts.MaxThinkingTokens))
	}
	if t.opts.WorkDir != "" {
		cmd.Dir = t.opts.WorkDir
	}
	procattr.Apply(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Message: "stdout pipe", Cause: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Message: "start " + t.conn.exe, Cause: err}
	}

	out := make(chan map[string]interface{}, 16)
	go func() {
		defer close(out)
		reader := ndjson.NewReader(stdout)
		flattener := newEventFlattener()
		for {
			obj, raw, err := reader.ReadObject()
			if err != nil {
				break
			}
			if obj == nil {
				t.conn.log.Debug("non-json line from claude", "line", string(raw))
				continue
			}
			if id, ok := obj["session_id"].(string); ok && id != "" {
				t.setID(id)
			}
			for _, flat := range flattener.flatten(obj) {
				select {
				case out <- flat:
				case <-ctx.Done():
					_ = procattr.Kill(cmd)
					_ = cmd.Wait()
					return
				}
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			t.conn.log.Warn("claude exited with error", "error", err)
		}
	}()
	return out, nil
}

func (t *cliThread) Run(ctx context.Context, message string) (*TurnResult, error) {
	stream, err := t.RunStreamed(ctx, message)
	if err != nil {
		return nil, err
	}
	result := &TurnResult{}
	for raw := range stream {
		result.Events = append(result.Events, raw)
	}
	return result, ctx.Err()
}

// eventFlattener reduces the Claude CLI's nested stream-json envelopes to
// flat shapes the normalizer's field probing understands. One flattener
// serves one turn; it remembers which tool invocations it already surfaced.
type eventFlattener struct {
	seenTools map[string]bool
}

func newEventFlattener() *eventFlattener {
	return &eventFlattener{seenTools: make(map[string]bool)}
}

// flatten maps one upstream event to zero or more flat events:
//   - stream_event wrappers are unwrapped to their inner event;
//   - tool_use and tool_result content blocks are lifted out of
//     content_block_start events and assistant/user message envelopes as
//     standalone tool events;
//   - delta objects carrying a text field are collapsed to a string delta;
//   - the trailing result event is rewritten as a completed turn with text.
func (f *eventFlattener) flatten(obj map[string]interface{}) []map[string]interface{} {
	if obj["type"] == "stream_event" {
		if inner, ok := obj["event"].(map[string]interface{}); ok {
			merged := make(map[string]interface{}, len(inner)+1)
			for k, v := range inner {
				merged[k] = v
			}
			if id, ok := obj["session_id"]; ok {
				merged["session_id"] = id
			}
			obj = merged
		}
	}
	if obj["type"] == "content_block_start" {
		if block, ok := obj["content_block"].(map[string]interface{}); ok {
			if ev, ok := f.toolUseEvent(block, true); ok {
				return []map[string]interface{}{ev}
			}
		}
	}
	if obj["type"] == "assistant" || obj["type"] == "user" {
		if lifted := f.contentBlockEvents(obj); len(lifted) > 0 {
			return lifted
		}
	}
	if delta, ok := obj["delta"].(map[string]interface{}); ok {
		if text, ok := delta["text"].(string); ok {
			flat := make(map[string]interface{}, len(obj))
			for k, v := range obj {
				flat[k] = v
			}
			flat["delta"] = text
			return []map[string]interface{}{flat}
		}
	}
	if obj["type"] == "result" {
		if text, ok := obj["result"].(string); ok {
			flat := make(map[string]interface{}, len(obj)+2)
			for k, v := range obj {
				flat[k] = v
			}
			flat["type"] = "turn.completed"
			flat["text"] = text
			delete(flat, "result")
			return []map[string]interface{}{flat}
		}
	}
	return []map[string]interface{}{obj}
}

// contentBlockEvents lifts tool_use and tool_result blocks out of a message
// envelope's content array.
func (f *eventFlattener) contentBlockEvents(obj map[string]interface{}) []map[string]interface{} {
	message, ok := obj["message"].(map[string]interface{})
	if !ok {
		return nil
	}
	blocks, ok := message["content"].([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, b := range blocks {
		block, ok := b.(map[string]interface{})
		if !ok {
			continue
		}
		switch block["type"] {
		case "tool_use":
			if ev, ok := f.toolUseEvent(block, false); ok {
				out = append(out, ev)
			}
		case "tool_result":
			if ev, ok := toolResultEvent(block); ok {
				out = append(out, ev)
			}
		}
	}
	return out
}

// toolUseEvent maps a tool_use block to a flat tool event. Each invocation id
// is surfaced once. With requireInput set, blocks whose input has not arrived
// yet are skipped; the complete block follows in the assistant envelope.
func (f *eventFlattener) toolUseEvent(block map[string]interface{}, requireInput bool) (map[string]interface{}, bool) {
	if block["type"] != "tool_use" {
		return nil, false
	}
	id, _ := block["id"].(string)
	name, _ := block["name"].(string)
	if id == "" || name == "" || f.seenTools[id] {
		return nil, false
	}
	input, _ := block["input"].(map[string]interface{})
	if requireInput && len(input) == 0 {
		return nil, false
	}
	f.seenTools[id] = true
	ev := map[string]interface{}{"type": "tool_use", "name": name, "id": id}
	if input != nil {
		ev["input"] = input
	}
	return ev, true
}

// toolResultEvent maps a tool_result block to a flat completion event.
func toolResultEvent(block map[string]interface{}) (map[string]interface{}, bool) {
	id, _ := block["tool_use_id"].(string)
	if id == "" {
		return nil, false
	}
	ev := map[string]interface{}{
		"type":        "tool.completed",
		"tool_use_id": id,
		"output":      blockText(block["content"]),
	}
	if isErr, ok := block["is_error"].(bool); ok {
		ev["is_error"] = isErr
	}
	return ev, true
}

// blockText flattens a content value that is either a plain string or a list
// of text blocks.
func blockText(v interface{}) string {
	switch content := v.(type) {
	case string:
		return content
	case []interface{}:
		var b strings.Builder
		for _, item := range content {
			if block, ok := item.(map[string]interface{}); ok {
				if text, ok := block["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	}
	return ""
}
