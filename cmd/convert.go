// Package cmd provides command-line interface for converting GDF ISO
// images into GOD packages.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/x360tools/iso2god/pkg/common"
	"github.com/x360tools/iso2god/pkg/godpkg"
)

// convertCmd converts a GDF-formatted ISO into a GOD package on disk.
var convertCmd = &cobra.Command{
	Use:   "convert [input.iso] [output_directory]",
	Short: "Convert a GDF ISO into a GOD package",
	Long: `Convert a GDF-formatted Xbox 360 ISO image into the Games on Demand
(GOD) on-device container format.

The output directory receives a <TITLEID>/Content/0000000000000000/
tree containing one or more Data#### part files of up to 41412 blocks
each, with the
block hash tables written into the head of Data0000.

Arguments:
  input.iso          GDF-formatted Xbox 360 ISO image
  output_directory    Directory that will receive the GOD package

Examples:
  iso2god convert game.iso ./output/
  iso2god convert -v game.iso ./output/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputDir := args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		fmt.Printf("Converting ISO image: %s\n", inputFile)
		fmt.Printf("Output directory: %s\n", outputDir)

		progress := godpkg.ProgressFunc(func(fraction float64, status string) {
			if verbose {
				fmt.Printf("[%5.1f%%] %s\n", fraction*100, status)
			}
		})

		result := godpkg.Convert(inputFile, outputDir, progress, nil)
		if result.Err != nil {
			return fmt.Errorf("conversion failed (code %d): %w", result.Code, result.Err)
		}

		fmt.Println("GOD package created successfully!")
		fmt.Printf("Package written to: %s\n", outputDir)

		return nil
	},
}

// init registers the convert command and its flags.
func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output with per-block progress")
}
