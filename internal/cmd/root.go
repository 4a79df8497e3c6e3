// Package cmd implements the paddock command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/redlinehq/paddock/internal/config"
	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/compute"
	ec2backend "github.com/redlinehq/paddock/pkg/compute/ec2"
	"github.com/redlinehq/paddock/pkg/deploy"
	s3store "github.com/redlinehq/paddock/pkg/storage/s3"
)

var rootCmd = &cobra.Command{
	Use:   "paddock",
	Short: "Provision and manage Assetto Corsa game servers on AWS",
	Long: `paddock provisions single-instance Assetto Corsa game servers on AWS.

It stores deployable packs and provisioning scripts in S3, launches EC2
instances whose minimal first-boot script fetches the full provisioning
script via a time-limited presigned URL, and probes the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var (
	cfgFile    string
	flagRegion string
	flagBucket string
	flagProfile string

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./paddock.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagRegion, "region", "r", "", "AWS region (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagProfile, "profile", "p", "", "AWS profile (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagBucket, "bucket", "b", "", "S3 bucket for packs and bootstrap scripts (overrides config)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
		}
		if flagRegion != "" {
			loaded.AWS.Region = flagRegion
		}
		if flagProfile != "" {
			loaded.AWS.Profile = flagProfile
		}
		if flagBucket != "" {
			loaded.Storage.Bucket = flagBucket
		}
		cfg = loaded

		observability.InitCLILogger(cfg.Logging.Level, cfg.Logging.JSON)
		return nil
	}
}

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	defer observability.Sync()

	if err := rootCmd.Execute(); err != nil {
		observability.CLILogger.Error(err.Error())
		var cliErr *cliError
		if errors.As(err, &cliErr) {
			return cliErr.code
		}
		return 1
	}
	return 0
}

// cliError carries a process exit code alongside the error chain.
type cliError struct {
	code    int
	message string
	err     error
}

func (e *cliError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *cliError) Unwrap() error { return e.err }

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &cliError{code: code, message: message, err: err}
}

// newStore creates the S3 store from resolved configuration.
func newStore(ctx context.Context) (*s3store.Store, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("no bucket configured: set storage.bucket or pass --bucket")
	}
	return s3store.New(ctx, s3store.Config{
		Bucket:  cfg.Storage.Bucket,
		Region:  cfg.AWS.Region,
		Profile: cfg.AWS.Profile,
	})
}

// newBackend creates the EC2 backend from resolved configuration.
func newBackend(ctx context.Context) (compute.Backend, error) {
	return ec2backend.New(ctx, ec2backend.Config{
		Region:   cfg.AWS.Region,
		Profile:  cfg.AWS.Profile,
		UDPPort:  cfg.Server.UDPPort,
		TCPPort:  cfg.Server.TCPPort,
		HTTPPort: cfg.Server.HTTPPort,
	})
}

// newDeployer wires a Deployer over live facades. The returned cleanup
// closes both clients.
func newDeployer(ctx context.Context) (*deploy.Deployer, func(), error) {
	store, err := newStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	backend, err := newBackend(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	d := deploy.New(store, backend, observability.CLILogger)
	cleanup := func() {
		_ = store.Close()
		_ = backend.Close()
	}
	return d, cleanup, nil
}
