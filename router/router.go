// Package router opens the right agent for a stored session and owns the
// sqlite-backed session store. Dispatch is by provider with auth type and
// proxy settings read from the configuration.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ohblue/craft-agents-oss/claude"
	"github.com/ohblue/craft-agents-oss/codex"
	"github.com/ohblue/craft-agents-oss/config"
	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/thinking"
)

// ChatAgent is the provider-independent session surface the UI drives. Both
// provider packages satisfy it.
type ChatAgent interface {
	Chat(ctx context.Context, message string, attachments []string) (<-chan events.Event, error)
	SetModel(ctx context.Context, model string) error
	SetThinkingLevel(ctx context.Context, level thinking.Level) error
	SetUltrathink(ctx context.Context, on bool) error
	SetWorkDir(ctx context.Context, dir string) error
	ForceAbort()
	Dispose()
}

// Router builds and caches agents, at most one live agent per session.
type Router struct {
	cfg   *config.Config
	store *Store
	log   *slog.Logger

	mu     sync.Mutex
	agents map[string]ChatAgent

	// newAgent is the construction seam; tests replace it.
	newAgent func(sess *Session) (ChatAgent, error)
}

// NewRouter creates a router over the given configuration and store.
func NewRouter(cfg *config.Config, store *Store, log *slog.Logger) *Router {
	if log == nil {
		log = slog.New(nopHandler{})
	}
	r := &Router{
		cfg:    cfg,
		store:  store,
		log:    log,
		agents: make(map[string]ChatAgent),
	}
	r.newAgent = r.buildAgent
	return r
}

// Store exposes the session store.
func (r *Router) Store() *Store { return r.store }

// Open returns the agent for a session, constructing it on first use.
func (r *Router) Open(sess *Session) (ChatAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agent, ok := r.agents[sess.ID]; ok {
		return agent, nil
	}
	agent, err := r.newAgent(sess)
	if err != nil {
		return nil, err
	}
	r.agents[sess.ID] = agent
	return agent, nil
}

// Close disposes a session's live agent, if any.
func (r *Router) Close(sessionID string) {
	r.mu.Lock()
	agent, ok := r.agents[sessionID]
	delete(r.agents, sessionID)
	r.mu.Unlock()
	if ok {
		agent.Dispose()
	}
}

// CloseAll disposes every live agent.
func (r *Router) CloseAll() {
	r.mu.Lock()
	agents := r.agents
	r.agents = make(map[string]ChatAgent)
	r.mu.Unlock()
	for _, agent := range agents {
		agent.Dispose()
	}
}

func (r *Router) buildAgent(sess *Session) (ChatAgent, error) {
	authType := r.cfg.AuthTypeFor(sess.Provider)
	proxyURL := r.cfg.ProxyURL()

	switch sess.Provider {
	case config.ProviderClaude:
		opts := []claude.Option{
			claude.WithLogger(r.log),
			claude.WithModel(sess.Model),
			claude.WithWorkDir(sess.WorkDir),
			claude.WithPermissionMode(sess.PermissionMode),
			claude.WithNotifier(&claudeStoreNotifier{store: r.store, sessionID: sess.ID, log: r.log}),
		}
		if sess.ThreadID != "" {
			opts = append(opts, claude.WithThreadID(sess.ThreadID))
		}
		if proxyURL != "" {
			opts = append(opts, claude.WithProxyURL(proxyURL))
		}
		if authType == config.AuthSubscription {
			opts = append(opts, claude.WithSubscriptionAuth())
		}
		return claude.NewAgent(opts...), nil

	case config.ProviderCodex:
		opts := []codex.Option{
			codex.WithLogger(r.log),
			codex.WithModel(sess.Model),
			codex.WithWorkDir(sess.WorkDir),
			codex.WithNotifier(&codexStoreNotifier{store: r.store, sessionID: sess.ID, log: r.log}),
		}
		if sess.ThreadID != "" {
			opts = append(opts, codex.WithThreadID(sess.ThreadID))
		}
		if proxyURL != "" {
			opts = append(opts, codex.WithProxyURL(proxyURL))
		}
		if authType == config.AuthSubscription {
			opts = append(opts, codex.WithSubscriptionAuth())
		}
		return codex.NewAgent(opts...), nil
	}
	return nil, fmt.Errorf("router: unknown provider %q", sess.Provider)
}

// claudeStoreNotifier persists thread assignments for claude sessions.
type claudeStoreNotifier struct {
	claude.BaseNotifier
	store     *Store
	sessionID string
	log       *slog.Logger
}

func (n *claudeStoreNotifier) OnThreadStarted(id string) {
	// Scratch agents carry no session id; their threads are throwaway.
	if n.sessionID == "" {
		return
	}
	if err := n.store.SetThreadID(n.sessionID, id); err != nil {
		n.log.Warn("persist thread id", "session", n.sessionID, "error", err)
	}
}

// codexStoreNotifier persists thread assignments for codex sessions.
type codexStoreNotifier struct {
	codex.BaseNotifier
	store     *Store
	sessionID string
	log       *slog.Logger
}

func (n *codexStoreNotifier) OnThreadStarted(id string) {
	if n.sessionID == "" {
		return
	}
	if err := n.store.SetThreadID(n.sessionID, id); err != nil {
		n.log.Warn("persist thread id", "session", n.sessionID, "error", err)
	}
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
