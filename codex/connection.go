package codex

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/ohblue/craft-agents-oss/internal/ndjson"
	"github.com/ohblue/craft-agents-oss/internal/procattr"
	"github.com/ohblue/craft-agents-oss/thinking"
)

// ThreadOptions parameterize a started or resumed thread.
type ThreadOptions struct {
	Model           string
	WorkDir         string
	ReasoningEffort thinking.Level
	SkipTrustCheck  bool
	Headless        bool
}

// TurnResult is the outcome of a non-streaming run. Either the raw event
// collection or the plain text may be populated.
type TurnResult struct {
	Events []map[string]interface{}
	Text   string
}

// Thread is one upstream conversation handle. A thread is owned exclusively
// by the Agent that created or resumed it.
type Thread interface {
	// ID returns the external thread id, or "" until the upstream assigns one.
	ID() string
	// SupportsStreaming reports whether RunStreamed is usable.
	SupportsStreaming() bool
	// RunStreamed sends a message and delivers raw upstream events until the
	// turn ends. The channel closes when the stream is exhausted.
	RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error)
	// Run sends a message and blocks until the turn completes.
	Run(ctx context.Context, message string) (*TurnResult, error)
}

// Connection creates threads against one upstream backend.
type Connection interface {
	StartThread(ctx context.Context, opts ThreadOptions) (Thread, error)
	ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error)
	Close() error
}

// cliConnection runs threads by spawning the Codex CLI in JSONL exec mode,
// one subprocess per turn.
type cliConnection struct {
	exe string
	env []string
	log *slog.Logger
}

// DialCLI builds a Connection over the Codex CLI at exe with the given
// (already sanitized) environment.
func DialCLI(exe string, env []string, log *slog.Logger) Connection {
	return &cliConnection{exe: exe, env: env, log: log}
}

func (c *cliConnection) StartThread(ctx context.Context, opts ThreadOptions) (Thread, error) {
	return &cliThread{conn: c, opts: opts}, nil
}

func (c *cliConnection) ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error) {
	return &cliThread{conn: c, opts: opts, id: threadID}, nil
}

// Close is a no-op: the CLI transport holds no long-lived process between
// turns.
func (c *cliConnection) Close() error { return nil }

// cliThread runs each turn as one `codex exec --json` invocation, resuming by
// id once the upstream has assigned one.
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

// setID records the upstream-assigned thread id. First assignment wins.
func (t *cliThread) setID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == "" {
		t.id = id
	}
}

func (t *cliThread) buildArgs(message string) []string {
	args := []string{"exec", "--json"}
	if id := t.ID(); id != "" {
		args = append(args, "resume", id)
	}
	if t.opts.SkipTrustCheck {
		args = append(args, "--skip-git-repo-check")
	}
	if t.opts.Headless {
		args = append(args, "--full-auto")
	}
	if t.opts.Model != "" {
		args = append(args, "--model", t.opts.Model)
	}
	if t.opts.WorkDir != "" {
		args = append(args, "--cd", t.opts.WorkDir)
	}
	if t.opts.ReasoningEffort != "" {
		args = append(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", string(t.opts.ReasoningEffort)))
	}
	return append(args, message)
}

func (t *cliThread) RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error) {
	cmd := exec.CommandContext(ctx, t.conn.exe, t.buildArgs(message)...)
	cmd.Env = t.conn.env
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
		for {
			obj, raw, err := reader.ReadObject()
			if err != nil {
				break
			}
			if obj == nil {
				t.conn.log.Debug("non-json line from codex", "line", string(raw))
				continue
			}
			if id, ok := obj["thread_id"].(string); ok && id != "" {
				t.setID(id)
			}
			select {
			case out <- obj:
			case <-ctx.Done():
				_ = procattr.Kill(cmd)
				_ = cmd.Wait()
				return
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			t.conn.log.Warn("codex exited with error", "error", err)
		}
	}()
	return out, nil
}

// Run drains the streamed turn into a TurnResult.
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
