package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ohblue/craft-agents-oss/claude"
	"github.com/ohblue/craft-agents-oss/codex"
	"github.com/ohblue/craft-agents-oss/config"
)

var loginCmd = &cobra.Command{
	Use:   "login <provider>",
	Short: "Run a provider CLI's interactive login",
	Long: `Login spawns the provider's own interactive login flow (claude login
or codex login) attached to this terminal. Requires a TTY.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("login requires an interactive terminal")
		}

		var exe string
		switch provider {
		case config.ProviderClaude:
			exe = claude.ResolveExecutable()
		case config.ProviderCodex:
			exe = codex.ResolveExecutable()
		default:
			return fmt.Errorf("unknown provider %q (expected %s or %s)", provider, config.ProviderClaude, config.ProviderCodex)
		}

		login := exec.Command(exe, "login")
		login.Stdin = os.Stdin
		login.Stdout = os.Stdout
		login.Stderr = os.Stderr
		if err := login.Run(); err != nil {
			return fmt.Errorf("%s login: %w", provider, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
