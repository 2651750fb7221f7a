package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohblue/craft-agents-oss/config"
	"github.com/ohblue/craft-agents-oss/credentials"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show provider CLI availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		availability := config.ProbeProviders()
		statuses := availability.AllStatuses()

		if providersJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(statuses)
		}

		codexAuth, _ := credentials.NewStore().Read()
		for _, st := range statuses {
			state := "not installed"
			if st.Installed {
				state = "installed"
				if st.Version != "" {
					state += " (" + st.Version + ")"
				}
			} else if st.Error != "" {
				state += ": " + st.Error
			}
			line := fmt.Sprintf("%-8s %-14s %s", st.Provider, cfg.AuthTypeFor(st.Provider), state)
			if st.Provider == config.ProviderCodex {
				line += "  login: " + loginState(codexAuth)
			}
			fmt.Println(line)
		}
		return nil
	},
}

// loginState summarizes the stored Codex credential, if any.
func loginState(auth *credentials.Auth) string {
	switch {
	case auth.HasSubscription():
		return "subscription"
	case auth.HasAPIKey():
		return "api key"
	default:
		return "not logged in"
	}
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "Output as JSON")
}
