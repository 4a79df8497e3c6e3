package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/deploy"
)

var terminateCmd = &cobra.Command{
	Use:   "terminate",
	Short: "Terminate the game server instance",
	Long: `Terminate every instance carrying the configured name tag.

Terminating an instance that is already gone is treated as success, so
the command is safe to re-run. With --wait it blocks until the provider
reports the instance terminated.

Examples:
  paddock terminate --yes
  paddock terminate --name trackday --wait
  paddock terminate --dry-run`,
	RunE: runTerminate,
}

var (
	terminateName   string
	terminateWait   bool
	terminateDryRun bool
	terminateYes    bool
)

func init() {
	rootCmd.AddCommand(terminateCmd)

	terminateCmd.Flags().StringVar(&terminateName, "name", "", "Instance name tag (default from config)")
	terminateCmd.Flags().BoolVar(&terminateWait, "wait", false, "Block until the instance is terminated")
	terminateCmd.Flags().BoolVar(&terminateDryRun, "dry-run", false, "Show what would be terminated without doing it")
	terminateCmd.Flags().BoolVar(&terminateYes, "yes", false, "Skip the confirmation prompt")
}

func runTerminate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	name := firstNonEmpty(terminateName, cfg.Instance.Name)
	if !terminateYes && !terminateDryRun {
		fmt.Printf("Terminate all instances named %q? [y/N]: ", name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	backend, err := newBackend(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer func() { _ = backend.Close() }()

	d := deploy.New(nil, backend, observability.CLILogger)
	if err := d.Terminate(ctx, name, terminateWait, terminateDryRun); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Termination failed", err)
	}
	return nil
}
