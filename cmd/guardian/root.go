package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/guardian/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Guardian - sensitive-data enforcement proxy for LLM traffic",
	Long: `Guardian sits between applications and an OpenAI-compatible LLM API.

Prompts are scanned before they are forwarded and completions are scanned
before they are returned. Sensitive values such as email addresses, card
numbers, government IDs, cloud credentials and medical codes are redacted or
cause the transaction to be blocked, depending on the active policy. Every
decision is recorded in an append-only audit log.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code the command chose.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !cli.Silent(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus GUARDIAN_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
