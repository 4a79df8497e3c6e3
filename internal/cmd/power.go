package cmd

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/deploy"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the game server instance",
	Long: `Stop the named instance without terminating it. The instance can be
resumed with "paddock start"; a stopped instance keeps its disk but
usually loses its public IP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, "stop")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a stopped game server instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, "start")
	},
}

var powerName string

func init() {
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(startCmd)

	for _, c := range []*cobra.Command{stopCmd, startCmd} {
		c.Flags().StringVar(&powerName, "name", "", "Instance name tag (default from config)")
	}
}

func runPower(cmd *cobra.Command, op string) error {
	ctx := cmd.Context()

	backend, err := newBackend(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer func() { _ = backend.Close() }()

	name := firstNonEmpty(powerName, cfg.Instance.Name)
	d := deploy.New(nil, backend, observability.CLILogger)

	switch op {
	case "stop":
		err = d.Stop(ctx, name)
	case "start":
		err = d.Start(ctx, name)
	}
	if errors.Is(err, deploy.ErrNoInstance) {
		fmt.Printf("No instance named %q found.\n", name)
		return nil
	}
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to "+op+" instance", err)
	}
	observability.CLILogger.Info("Power state change requested",
		zap.String("op", op), zap.String("name", name))
	return nil
}
