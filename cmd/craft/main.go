// Command craft is a terminal chat client for agentic coding CLIs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohblue/craft-agents-oss/app"
	"github.com/ohblue/craft-agents-oss/config"
	"github.com/ohblue/craft-agents-oss/credentials"
	"github.com/ohblue/craft-agents-oss/router"
)

var (
	modelFlag  string
	dirFlag    string
	resumeFlag string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "craft",
	Short: "Chat with agentic coding CLIs",
	Long: `Craft wraps the Claude and Codex coding CLIs behind one terminal chat
interface. It normalizes both providers' streaming protocols into a single
event vocabulary, persists sessions locally, and resumes provider threads
across restarts.`,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model to chat with (see 'craft models')")
	rootCmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Working directory for the agent (default: current directory)")
	rootCmd.Flags().StringVarP(&resumeFlag, "resume", "r", "", "Session id to resume (see 'craft sessions')")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	availability := config.ProbeProviders()
	if len(availability.InstalledProviders()) == 0 {
		return fmt.Errorf("no provider CLI found; install the claude or codex CLI first")
	}
	registry := config.NewRegistry(availability, cfg.EnabledProviders)
	if len(registry.Models()) == 0 {
		return fmt.Errorf("no models available for the installed providers")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	log := newLogger()
	rt := router.NewRouter(cfg, store, log)
	defer rt.CloseAll()

	sess, err := resolveSession(cfg, registry, store)
	if err != nil {
		return err
	}

	agent, err := rt.Open(sess)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	m := app.NewModel(rt, registry, sess, agent)

	// Surface Codex login changes (e.g. `craft login codex` in another
	// terminal) while the chat is open. Best effort: no ~/.codex directory
	// simply means nothing to watch.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if ch, err := credentials.NewStore(credentials.WithLogger(log)).Watch(watchCtx); err == nil {
		m.Creds = ch
	} else {
		log.Debug("credential watch unavailable", "error", err)
	}

	_, err = app.NewProgram(m).Run()
	return err
}

// resolveSession loads the session named by --resume or creates a fresh one
// from the flags and config defaults.
func resolveSession(cfg *config.Config, registry *config.Registry, store *router.Store) (*router.Session, error) {
	if resumeFlag != "" {
		sess, err := store.GetSession(resumeFlag)
		if err != nil {
			return nil, fmt.Errorf("resume session %s: %w", resumeFlag, err)
		}
		return sess, nil
	}

	modelID := modelFlag
	if modelID == "" {
		modelID = cfg.DefaultModel
	}
	var model config.Model
	if modelID != "" {
		m, ok := registry.ModelByID(modelID)
		if !ok {
			return nil, fmt.Errorf("unknown or unavailable model %q", modelID)
		}
		model = m
	} else {
		model = registry.Models()[0]
	}

	workDir := dirFlag
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workDir = cwd
	}

	return store.CreateSession(model.Provider, workDir, model.ID)
}

func loadConfig() (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openStore() (*router.Store, error) {
	path, err := router.DefaultStorePath()
	if err != nil {
		return nil, err
	}
	store, err := router.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
