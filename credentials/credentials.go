// Package credentials reads the Codex CLI's stored login state from
// ~/.codex/auth.json and can watch it for changes. A missing or unreadable
// file is not an error: it simply means the user has not logged in.
package credentials

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tokens is the OAuth token set the Codex CLI stores after a subscription
// login.
type Tokens struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
}

// Auth is the decoded contents of auth.json. Either APIKey or Tokens may be
// set; both absent means the file exists but carries no usable credential.
type Auth struct {
	APIKey      string  `json:"OPENAI_API_KEY"`
	Tokens      *Tokens `json:"tokens"`
	LastRefresh string  `json:"last_refresh"`
}

// HasSubscription reports whether a subscription token set is present.
func (a *Auth) HasSubscription() bool {
	return a != nil && a.Tokens != nil && a.Tokens.AccessToken != ""
}

// HasAPIKey reports whether a plain API key is present.
func (a *Auth) HasAPIKey() bool {
	return a != nil && a.APIKey != ""
}

// Store reads and watches a Codex auth.json file.
type Store struct {
	path string
	log  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPath overrides the auth.json location.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// NewStore creates a store for the default ~/.codex/auth.json location.
func NewStore(opts ...Option) *Store {
	s := &Store{log: slog.New(discardHandler{})}
	if home, err := os.UserHomeDir(); err == nil {
		s.path = filepath.Join(home, ".codex", "auth.json")
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the current auth state, or nil when the file is missing,
// unreadable or malformed. Failures are logged at debug level only.
func (s *Store) Read() (*Auth, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Debug("auth file not readable", "path", s.path, "error", err)
		return nil, nil
	}
	var auth Auth
	if err := json.Unmarshal(data, &auth); err != nil {
		s.log.Debug("auth file not parseable", "path", s.path, "error", err)
		return nil, nil
	}
	return &auth, nil
}

// watchDebounce coalesces bursts of filesystem events into one re-read.
const watchDebounce = 250 * time.Millisecond

// Watch delivers a fresh auth snapshot whenever auth.json changes. The parent
// directory is watched so that logins creating the file for the first time are
// observed too. The channel closes when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan *Auth, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan *Auth, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var mu sync.Mutex
		var timer *time.Timer
		deliver := func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				auth, _ := s.Read()
				select {
				case out <- auth:
				case <-ctx.Done():
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					deliver()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("auth watch error", "error", err)
			}
		}
	}()
	return out, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
