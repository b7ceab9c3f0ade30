// Package cmd provides command-line interface for inspecting GDF ISO
// images without converting them.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/x360tools/iso2god/pkg/common"
	"github.com/x360tools/iso2god/pkg/godpkg"
)

// infoCmd inspects a GDF ISO and prints its identifiers without writing
// anything to disk.
var infoCmd = &cobra.Command{
	Use:   "info [input.iso]",
	Short: "Inspect a GDF ISO without converting it",
	Long: `Inspect a GDF-formatted Xbox 360 ISO image and print its title id,
media id, platform and detected disc variant, without creating any
output directory or converting a single block.

Arguments:
  input.iso    GDF-formatted Xbox 360 ISO image

Flags:
  --format    Output format: text (default) or yaml

Examples:
  iso2god info game.iso
  iso2god info --format yaml game.iso`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("error getting format flag: %w", err)
		}

		info, err := godpkg.Inspect(inputFile)
		if err != nil {
			return fmt.Errorf("failed to inspect ISO file: %w", err)
		}

		switch format {
		case "yaml":
			out, err := yaml.Marshal(info)
			if err != nil {
				return fmt.Errorf("failed to marshal info as yaml: %w", err)
			}
			fmt.Print(string(out))
		case "text", "":
			fmt.Printf("Game Name:    %s\n", info.GameName)
			fmt.Printf("Title ID:     %s\n", info.TitleID)
			fmt.Printf("Media ID:     %s\n", info.MediaID)
			fmt.Printf("Platform:     %s\n", info.Platform)
			fmt.Printf("Disc Variant: %s\n", info.DiscVariant)
			fmt.Printf("Size (bytes): %d\n", info.SizeBytes)
		default:
			return fmt.Errorf("unsupported format %q, expected text or yaml", format)
		}

		return nil
	},
}

// init registers the info command and its flags.
func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output (show debug messages)")
	infoCmd.Flags().String("format", "text", "Output format: text or yaml")
}
