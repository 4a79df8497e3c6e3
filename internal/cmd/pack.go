package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/deploy"
	"github.com/redlinehq/paddock/pkg/storage"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage server pack archives in the bucket",
}

var packUploadCmd = &cobra.Command{
	Use:   "upload <local-file>",
	Short: "Upload a server pack archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackUpload,
}

var packDownloadCmd = &cobra.Command{
	Use:   "download <key> [local-file]",
	Short: "Download a server pack archive",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPackDownload,
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded server packs",
	RunE:  runPackList,
}

var packDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a server pack from the bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackDelete,
}

var packUploadKey string

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.AddCommand(packUploadCmd)
	packCmd.AddCommand(packDownloadCmd)
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packDeleteCmd)

	packUploadCmd.Flags().StringVar(&packUploadKey, "key", "", "Object key (default packs/<basename>)")
}

// packDeployer builds a Deployer with only the store wired; pack
// subcommands never touch compute.
func packDeployer(cmd *cobra.Command) (*deploy.Deployer, func(), error) {
	store, err := newStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	d := deploy.New(store, nil, observability.CLILogger)
	return d, func() { _ = store.Close() }, nil
}

func runPackUpload(cmd *cobra.Command, args []string) error {
	d, cleanup, err := packDeployer(cmd)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer cleanup()

	key, err := d.UploadPack(cmd.Context(), args[0], packUploadKey)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to upload pack", err)
	}
	observability.CLILogger.Info("Pack uploaded", zap.String("key", key))
	fmt.Println(key)
	return nil
}

func runPackDownload(cmd *cobra.Command, args []string) error {
	key := args[0]
	localPath := filepath.Base(key)
	if len(args) == 2 {
		localPath = args[1]
	}

	d, cleanup, err := packDeployer(cmd)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer cleanup()

	if err := d.DownloadPack(cmd.Context(), key, localPath); err != nil {
		if storage.IsNotFound(err) {
			return exitError(foundry.ExitFileNotFound, "Pack not found: "+key, err)
		}
		return exitError(foundry.ExitFileWriteError, "Failed to download pack", err)
	}
	observability.CLILogger.Info("Pack downloaded",
		zap.String("key", key), zap.String("path", localPath))
	return nil
}

func runPackList(cmd *cobra.Command, args []string) error {
	d, cleanup, err := packDeployer(cmd)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer cleanup()

	packs, err := d.ListPacks(cmd.Context())
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to list packs", err)
	}
	if len(packs) == 0 {
		fmt.Println("No packs uploaded.")
		return nil
	}
	for _, p := range packs {
		fmt.Printf("%-60s %12d  %s\n", strings.TrimPrefix(p.Key, deploy.PackKeyPrefix),
			p.Size, p.LastModified.UTC().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runPackDelete(cmd *cobra.Command, args []string) error {
	d, cleanup, err := packDeployer(cmd)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer cleanup()

	if err := d.DeletePack(cmd.Context(), args[0]); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to delete pack", err)
	}
	observability.CLILogger.Info("Pack deleted", zap.String("key", args[0]))
	return nil
}
