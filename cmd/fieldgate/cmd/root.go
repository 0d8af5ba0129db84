// Package cmd provides the CLI commands for FieldGate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldgate/fieldgate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fieldgate",
	Short: "FieldGate - field-level input validation gateway",
	Long: `FieldGate validates API gateway input fields before they reach
downstream handlers or storage.

Each field kind (name, identifier, tool_name, uri) has a character
allow-list, length bounds, and a secondary scan for unsafe content
such as HTML tags, script tokens, and control characters. Rejections
carry a human-readable reason that lists exactly the allowed
character classes.

Quick start:
  1. Create a config file: fieldgate.yaml
  2. Run: fieldgate serve

Configuration:
  Config is loaded from fieldgate.yaml in the current directory,
  $HOME/.fieldgate/, or /etc/fieldgate/.

  Environment variables can override config values with the FIELDGATE_ prefix.
  Example: FIELDGATE_SERVER_ADDR=:9090

Commands:
  serve       Start the validation HTTP server
  check       Validate a single value from the command line
  rules       Print the active validation rules
  hash-key    Generate SHA256 hash for an API key
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fieldgate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
