// Package cmd provides command-line interface functionality for iso2god.
// iso2god converts Xbox 360 GDF-formatted ISO images into the Games on
// Demand (GOD) on-device container format.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "iso2god",
	Short: "Convert Xbox 360 ISO images to Games on Demand containers",
	Long: `iso2god - Convert Xbox 360 GDF-formatted ISO images into the
Games on Demand (GOD) on-device container format.

Commands:
  convert   Convert a GDF ISO into a GOD package
  info      Inspect a GDF ISO without converting it

Examples:
  iso2god convert game.iso ./output/
  iso2god info game.iso
  iso2god info --format yaml game.iso

Use 'iso2god [command] --help' for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
