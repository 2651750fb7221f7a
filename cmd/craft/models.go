package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohblue/craft-agents-oss/config"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available for the installed providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		availability := config.ProbeProviders()
		registry := config.NewRegistry(availability, cfg.EnabledProviders)
		models := registry.Models()

		if modelsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(models)
		}

		if len(models) == 0 {
			fmt.Println("No models available. Install the claude or codex CLI first.")
			return nil
		}

		var lastProvider string
		for _, m := range models {
			if m.Provider != lastProvider {
				fmt.Printf("\n%s:\n", m.Provider)
				lastProvider = m.Provider
			}
			marker := " "
			if m.ID == cfg.DefaultModel {
				marker = "*"
			}
			fmt.Printf(" %s %-22s %s\n", marker, m.ID, m.Label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
}
