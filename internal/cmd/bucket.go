package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redlinehq/paddock/internal/observability"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage the deployment bucket",
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the configured bucket if it does not exist",
	RunE:  runBucketCreate,
}

var bucketDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the configured bucket",
	Long: `Delete the configured bucket. The bucket must be empty; a bucket
that does not exist is treated as success.`,
	RunE: runBucketDelete,
}

func init() {
	rootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(bucketCreateCmd)
	bucketCmd.AddCommand(bucketDeleteCmd)
}

func runBucketCreate(cmd *cobra.Command, args []string) error {
	store, err := newStore(cmd.Context())
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureBucket(cmd.Context()); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create bucket", err)
	}
	observability.CLILogger.Info("Bucket ready", zap.String("bucket", store.Bucket()))
	return nil
}

func runBucketDelete(cmd *cobra.Command, args []string) error {
	store, err := newStore(cmd.Context())
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteBucket(cmd.Context()); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to delete bucket", err)
	}
	observability.CLILogger.Info("Bucket deleted", zap.String("bucket", store.Bucket()))
	return nil
}
