package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oagw/upstreamd/pkg/config"
)

// initFlags holds all flags for the init command.
type initFlags struct {
	output string
	force  bool
}

var initFlagVals initFlags

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter upstreamd configuration file",
	Long: `Create a configuration file pre-filled with the defaults: bind address,
stream pacing, timeout hold, and log settings. Edit it and start the
server with 'upstreamd serve --config <file>'.`,
	Example: `  # Create upstreamd.yaml in the current directory
  upstreamd init

  # Create with a custom filename
  upstreamd init -o testenv.yaml

  # Overwrite an existing file
  upstreamd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFlagVals.output, "output", "o", "upstreamd.yaml", "Output filename")
	initCmd.Flags().BoolVar(&initFlagVals.force, "force", false, "Overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	f := &initFlagVals

	if _, err := os.Stat(f.output); err == nil && !f.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", f.output)
	}

	cfg := config.Default()
	if err := cfg.Save(f.output); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", f.output)
	fmt.Println("Start the server with: upstreamd serve --config " + f.output)
	return nil
}
