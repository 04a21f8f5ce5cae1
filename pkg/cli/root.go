// Package cli provides the upstreamd CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// jsonOutput switches command output to JSON where supported.
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "upstreamd",
	Short: "upstreamd is a deterministic mock LLM upstream for gateway testing",
	Long: `upstreamd serves a fixed OpenAI-style API surface with canned responses:
chat completions, model listing, SSE streaming, request echo, and
parametrized error and status injection.

Every response is deterministic so gateway suites can assert on exact
payloads. Configuration can be provided via flags, environment variables,
or a configuration file.`,
	// No Run function here means 'upstreamd' with no args will print help text by default.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
