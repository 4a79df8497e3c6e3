package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/cmpack"
)

var cmpackCmd = &cobra.Command{
	Use:   "cmpack <car-dir>",
	Short: "Build Content Manager car packs and content.json",
	Long: `Zip car content directories for Content Manager distribution and
write the matching content.json manifest.

With a single car directory as the argument, that one car is packaged.
With --batch, the argument is treated as a cars root and every matching
subdirectory is packaged.

Examples:
  paddock cmpack ./content/cars/ks_mazda_mx5_cup
  paddock cmpack --batch ./content/cars --include 'ks_*' --output ./dist
  paddock cmpack --batch ./content/cars --content-json ./dist/content.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCmpack,
}

var (
	cmpackBatch       bool
	cmpackIncludes    []string
	cmpackOutput      string
	cmpackContentJSON string
)

func init() {
	rootCmd.AddCommand(cmpackCmd)

	cmpackCmd.Flags().BoolVar(&cmpackBatch, "batch", false, "Treat the argument as a cars root and package every subdirectory")
	cmpackCmd.Flags().StringSliceVar(&cmpackIncludes, "include", nil, "Glob pattern for car directory names in --batch mode (repeatable)")
	cmpackCmd.Flags().StringVar(&cmpackOutput, "output", "cm_content/cars", "Directory for the generated zips")
	cmpackCmd.Flags().StringVar(&cmpackContentJSON, "content-json", "", "Path for the content.json manifest (default <output>/../content.json)")
}

func runCmpack(cmd *cobra.Command, args []string) error {
	var (
		entries []cmpack.Entry
		err     error
	)
	if cmpackBatch {
		entries, err = cmpack.Batch(args[0], cmpackOutput, cmpackIncludes)
	} else {
		if len(cmpackIncludes) > 0 {
			return exitError(foundry.ExitInvalidArgument, "--include requires --batch", nil)
		}
		var entry cmpack.Entry
		entry, err = cmpack.CreateCarZip(args[0], cmpackOutput)
		entries = []cmpack.Entry{entry}
	}
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to package cars", err)
	}
	if len(entries) == 0 {
		fmt.Println("No car directories matched.")
		return nil
	}

	manifestPath := cmpackContentJSON
	if manifestPath == "" {
		manifestPath = filepath.Join(filepath.Dir(filepath.Clean(cmpackOutput)), "content.json")
	}
	if err := cmpack.WriteManifest(entries, manifestPath); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write manifest", err)
	}

	for _, e := range entries {
		fmt.Printf("%-40s %10d  %s\n", e.ID, e.Size, e.URL)
	}
	observability.CLILogger.Info("Car packs built",
		zap.Int("cars", len(entries)), zap.String("manifest", manifestPath))
	return nil
}
