// Package claude wraps the Claude CLI as a chat agent session with the same
// outward surface as the codex package: one connection, one thread handle,
// sanitized spawn environment, and normalized events out.
package claude

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/normalize"
	"github.com/ohblue/craft-agents-oss/thinking"
)

// PermissionRequest describes a tool invocation the CLI wants approved.
type PermissionRequest struct {
	ID          string
	Tool        string
	Description string
}

// Notifier receives out-of-band session notifications. Implementations must
// not block.
type Notifier interface {
	OnThreadStarted(id string)
	OnPermissionRequest(req PermissionRequest)
	OnModeChanged(mode string)
	OnPlanSubmitted(plan string)
	OnAuthRequest()
	OnSourcesChanged(sources []string)
	OnSourceActivationRequest(source string)
	OnValidationError(err error)
	OnDebug(msg string)
}

// BaseNotifier ignores every notification. Embed it to implement a subset.
type BaseNotifier struct{}

func (BaseNotifier) OnThreadStarted(string)                {}
func (BaseNotifier) OnPermissionRequest(PermissionRequest) {}
func (BaseNotifier) OnModeChanged(string)                  {}
func (BaseNotifier) OnPlanSubmitted(string)                {}
func (BaseNotifier) OnAuthRequest()                        {}
func (BaseNotifier) OnSourcesChanged([]string)             {}
func (BaseNotifier) OnSourceActivationRequest(string)      {}
func (BaseNotifier) OnValidationError(error)               {}
func (BaseNotifier) OnDebug(string)                        {}

type agentConfig struct {
	model          string
	workDir        string
	level          thinking.Level
	ultrathink     bool
	permissionMode string
	proxyURL       string
	subscription   bool
	threadID       string
	exe            string
	sources        []Source
}

// Agent is one logical chat session against the Claude CLI.
type Agent struct {
	mu  sync.Mutex
	cfg agentConfig
	env []string
	log *slog.Logger

	notifier Notifier
	dial     func(ctx context.Context) (Connection, error)

	conn    Connection
	attempt *connAttempt
	thread  Thread

	notifiedThreads map[string]bool

	turnActive bool
	turnCancel context.CancelFunc
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Agent) {
		if log != nil {
			a.log = log
		}
	}
}

// WithNotifier registers the out-of-band notification receiver.
func WithNotifier(n Notifier) Option {
	return func(a *Agent) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithModel sets the initial model id.
func WithModel(model string) Option {
	return func(a *Agent) { a.cfg.model = model }
}

// WithWorkDir sets the initial working directory.
func WithWorkDir(dir string) Option {
	return func(a *Agent) { a.cfg.workDir = dir }
}

// WithThinkingLevel sets the initial thinking level.
func WithThinkingLevel(level thinking.Level) Option {
	return func(a *Agent) { a.cfg.level = level }
}

// WithPermissionMode sets the CLI permission mode for spawned turns.
func WithPermissionMode(mode string) Option {
	return func(a *Agent) { a.cfg.permissionMode = mode }
}

// WithProxyURL routes the spawned CLI through the given proxy.
func WithProxyURL(url string) Option {
	return func(a *Agent) { a.cfg.proxyURL = url }
}

// WithSubscriptionAuth strips inherited API-key variables from the CLI
// environment.
func WithSubscriptionAuth() Option {
	return func(a *Agent) { a.cfg.subscription = true }
}

// WithThreadID resumes a prior external session instead of starting fresh.
func WithThreadID(id string) Option {
	return func(a *Agent) { a.cfg.threadID = id }
}

// WithExecutable overrides executable resolution.
func WithExecutable(path string) Option {
	return func(a *Agent) { a.cfg.exe = path }
}

// WithSources registers MCP tool sources on the session.
func WithSources(sources ...Source) Option {
	return func(a *Agent) { a.cfg.sources = sources }
}

// withDialFunc replaces the connection factory. Test seam.
func withDialFunc(dial func(ctx context.Context) (Connection, error)) Option {
	return func(a *Agent) { a.dial = dial }
}

// NewAgent constructs a session. The process environment is snapshotted and
// sanitized once.
func NewAgent(opts ...Option) *Agent {
	a := &Agent{
		log:             slog.New(nopHandler{}),
		notifier:        BaseNotifier{},
		notifiedThreads: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.env = SanitizeEnv(os.Environ(), a.cfg.proxyURL, a.cfg.subscription)
	if a.dial == nil {
		a.dial = func(ctx context.Context) (Connection, error) {
			exe := a.cfg.exe
			if exe == "" {
				exe = ResolveExecutable()
			}
			return DialCLI(exe, a.env, a.log), nil
		}
	}
	return a
}

type connAttempt struct {
	done chan struct{}
	conn Connection
	err  error
}

// ensureConnection returns the cached connection or joins the one in-flight
// creation attempt; a failed attempt is cleared so a later call retries.
func (a *Agent) ensureConnection(ctx context.Context) (Connection, error) {
	a.mu.Lock()
	if a.conn != nil {
		conn := a.conn
		a.mu.Unlock()
		return conn, nil
	}
	if a.attempt == nil {
		att := &connAttempt{done: make(chan struct{})}
		a.attempt = att
		go func() {
			conn, err := a.dial(context.Background())
			att.conn, att.err = conn, err
			a.mu.Lock()
			if err == nil {
				a.conn = conn
			}
			a.attempt = nil
			a.mu.Unlock()
			close(att.done)
		}()
	}
	att := a.attempt
	a.mu.Unlock()

	select {
	case <-att.done:
		return att.conn, att.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// threadOptionsLocked builds options from the current configuration. The
// thinking level goes through the three-level normalization and the budget
// table. Caller holds a.mu.
func (a *Agent) threadOptionsLocked() (ThreadOptions, error) {
	level := a.cfg.level
	if a.cfg.ultrathink {
		level = thinking.LevelMax
	}
	norm := thinking.NormalizeClaude(level)
	cfgJSON, err := mcpConfig(a.cfg.sources)
	if err != nil {
		return ThreadOptions{}, err
	}
	return ThreadOptions{
		Model:             a.cfg.model,
		WorkDir:           a.cfg.workDir,
		MaxThinkingTokens: thinking.ClaudeBudgetTokens(norm, a.cfg.model),
		PermissionMode:    a.cfg.permissionMode,
		MCPConfig:         cfgJSON,
	}, nil
}

// ensureThread returns the cached thread handle, resuming a prior session
// when its id is known.
func (a *Agent) ensureThread(ctx context.Context) (Thread, error) {
	a.mu.Lock()
	if a.thread != nil {
		th := a.thread
		a.mu.Unlock()
		return th, nil
	}
	priorID := a.cfg.threadID
	opts, err := a.threadOptionsLocked()
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	conn, err := a.ensureConnection(ctx)
	if err != nil {
		return nil, err
	}

	var th Thread
	if priorID != "" {
		th, err = conn.ResumeThread(ctx, priorID, opts)
	} else {
		th, err = conn.StartThread(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.thread = th
	a.mu.Unlock()
	a.noteThread(th.ID())
	return th, nil
}

func (a *Agent) noteThread(id string) {
	if id == "" {
		return
	}
	a.mu.Lock()
	if a.notifiedThreads[id] {
		a.mu.Unlock()
		return
	}
	a.notifiedThreads[id] = true
	a.cfg.threadID = id
	a.mu.Unlock()
	a.log.Debug("session started", "sessionID", id)
	a.notifier.OnThreadStarted(id)
}

// SetModel changes the model for subsequent turns.
func (a *Agent) SetModel(ctx context.Context, model string) error {
	return a.applySetting(ctx, func() { a.cfg.model = model })
}

// SetThinkingLevel changes the thinking level for subsequent turns.
func (a *Agent) SetThinkingLevel(ctx context.Context, level thinking.Level) error {
	return a.applySetting(ctx, func() { a.cfg.level = level })
}

// SetUltrathink toggles the maximum-budget override.
func (a *Agent) SetUltrathink(ctx context.Context, on bool) error {
	return a.applySetting(ctx, func() { a.cfg.ultrathink = on })
}

// SetWorkDir changes the working directory for subsequent turns.
func (a *Agent) SetWorkDir(ctx context.Context, dir string) error {
	return a.applySetting(ctx, func() { a.cfg.workDir = dir })
}

// SetSources replaces the registered MCP sources and reports the new
// canonical tool names.
func (a *Agent) SetSources(ctx context.Context, sources ...Source) error {
	if err := a.applySetting(ctx, func() { a.cfg.sources = sources }); err != nil {
		return err
	}
	var names []string
	for _, src := range sources {
		names = append(names, src.CanonicalToolNames()...)
	}
	a.notifier.OnSourcesChanged(names)
	return nil
}

// applySetting mutates the configuration, eagerly resuming under fresh
// options when a thread id is known and dropping the handle otherwise.
func (a *Agent) applySetting(ctx context.Context, mutate func()) error {
	a.mu.Lock()
	mutate()
	var id string
	if a.thread != nil {
		id = a.thread.ID()
	}
	if id == "" {
		a.thread = nil
		a.mu.Unlock()
		return nil
	}
	opts, err := a.threadOptionsLocked()
	a.mu.Unlock()
	if err != nil {
		return err
	}

	conn, err := a.ensureConnection(ctx)
	if err != nil {
		return err
	}
	th, err := conn.ResumeThread(ctx, id, opts)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.thread = th
	a.mu.Unlock()
	return nil
}

// ForceAbort cancels the in-flight turn, if any. Idempotent.
func (a *Agent) ForceAbort() {
	a.mu.Lock()
	cancel := a.turnCancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Dispose ends the session, leaving the cached connection idle.
func (a *Agent) Dispose() {
	a.ForceAbort()
}

// Chat runs one turn and returns the channel of normalized events. The
// channel closes after the terminal Complete event.
func (a *Agent) Chat(ctx context.Context, message string, attachments []string) (<-chan events.Event, error) {
	a.mu.Lock()
	if a.turnActive {
		a.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	turnCtx, cancel := context.WithCancel(ctx)
	a.turnActive = true
	a.turnCancel = cancel
	a.mu.Unlock()

	thread, err := a.ensureThread(turnCtx)
	if err != nil {
		a.endTurn(cancel)
		return nil, err
	}

	out := make(chan events.Event, 64)
	go a.driveTurn(turnCtx, cancel, thread, message, attachments, out)
	return out, nil
}

func (a *Agent) endTurn(cancel context.CancelFunc) {
	cancel()
	a.mu.Lock()
	a.turnActive = false
	a.turnCancel = nil
	a.mu.Unlock()
}

func (a *Agent) driveTurn(ctx context.Context, cancel context.CancelFunc, thread Thread, message string, attachments []string, out chan<- events.Event) {
	defer close(out)
	defer a.endTurn(cancel)

	emit := func(evs []events.Event) bool {
		for _, ev := range evs {
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	if len(attachments) > 0 {
		if !emit([]events.Event{events.Info{Message: "attachments are not supported; continuing without them"}}) {
			return
		}
	}

	if thread.SupportsStreaming() {
		engine := normalize.NewEngine(normalize.FullRules,
			normalize.WithLogger(a.log),
			normalize.WithThreadStartedFunc(a.noteThread))
		engine.BeginTurn()

		stream, err := thread.RunStreamed(ctx, message)
		if err != nil {
			a.log.Error("turn failed", "error", err)
			emit([]events.Event{events.Info{Message: "turn failed: " + err.Error()}, events.Complete{}})
			return
		}
		for raw := range stream {
			if !emit(engine.Process(raw)) {
				return
			}
		}
		a.noteThread(thread.ID())
		emit(engine.Finish(""))
		return
	}

	engine := normalize.NewEngine(normalize.ReducedRules, normalize.WithLogger(a.log))
	engine.BeginTurn()

	result, err := thread.Run(ctx, message)
	if err != nil {
		a.log.Error("turn failed", "error", err)
		emit([]events.Event{events.Info{Message: "turn failed: " + err.Error()}, events.Complete{}})
		return
	}
	direct := ""
	if result != nil {
		if len(result.Events) > 0 {
			for _, raw := range result.Events {
				if !emit(engine.Process(raw)) {
					return
				}
			}
		} else {
			direct = result.Text
		}
	}
	a.noteThread(thread.ID())
	emit(engine.Finish(direct))
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
