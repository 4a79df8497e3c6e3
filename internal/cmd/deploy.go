package cmd

import (
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redlinehq/paddock/internal/observability"
	"github.com/redlinehq/paddock/pkg/deploy"
	"github.com/redlinehq/paddock/pkg/output"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision a game server instance",
	Long: `Provision a single game server instance.

The pack must already be in the bucket (see "paddock pack upload") unless
--pack-file is given, in which case it is uploaded first. The command
returns once the instance is running at the compute level; provisioning
continues on the instance. Use "paddock status" to observe the outcome.

Examples:
  paddock deploy --pack-file ./server-pack.tar.gz
  paddock deploy --pack-key packs/server-pack.tar.gz --name trackday
  paddock deploy --pack-key packs/server-pack.tar.gz --extra-port 8772 --jsonl`,
	RunE: runDeploy,
}

var (
	deployPackFile   string
	deployPackKey    string
	deployName       string
	deployType       string
	deployVersion    string
	deployKeyName    string
	deployIAMProfile string
	deployExtraPorts []int
	deployJSONL      bool
)

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVar(&deployPackFile, "pack-file", "", "Local pack archive to upload and deploy")
	deployCmd.Flags().StringVar(&deployPackKey, "pack-key", "", "Object key of an already-uploaded pack")
	deployCmd.Flags().StringVar(&deployName, "name", "", "Instance name tag (default from config)")
	deployCmd.Flags().StringVar(&deployType, "type", "", "Instance type (default from config)")
	deployCmd.Flags().StringVar(&deployVersion, "server-version", "", "AssettoServer release version (default from config)")
	deployCmd.Flags().StringVar(&deployKeyName, "key-name", "", "SSH key pair name")
	deployCmd.Flags().StringVar(&deployIAMProfile, "iam-profile", "", "IAM instance profile name or ARN")
	deployCmd.Flags().IntSliceVar(&deployExtraPorts, "extra-port", nil, "Additional TCP port to open (repeatable)")
	deployCmd.Flags().BoolVar(&deployJSONL, "jsonl", false, "Emit a JSONL deploy record to stdout")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if deployPackFile == "" && deployPackKey == "" {
		return exitError(foundry.ExitInvalidArgument, "Either --pack-file or --pack-key is required", nil)
	}

	d, cleanup, err := newDeployer(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer cleanup()

	packKey := deployPackKey
	if deployPackFile != "" {
		packKey, err = d.UploadPack(ctx, deployPackFile, deployPackKey)
		if err != nil {
			return exitError(foundry.ExitExternalServiceUnavailable, "Failed to upload pack", err)
		}
		observability.CLILogger.Info("Pack uploaded", zap.String("key", packKey))
	}

	opts := deploy.Options{
		PackKey:            packKey,
		Version:            firstNonEmpty(deployVersion, cfg.Server.Version),
		InstanceName:       firstNonEmpty(deployName, cfg.Instance.Name),
		InstanceType:       firstNonEmpty(deployType, cfg.Instance.Type),
		SecurityGroupName:  cfg.Instance.SecurityGroup,
		KeyName:            firstNonEmpty(deployKeyName, cfg.Instance.KeyName),
		IAMInstanceProfile: firstNonEmpty(deployIAMProfile, cfg.Instance.IAMProfile),
		ExtraPorts:         deployExtraPorts,
		UDPPort:            cfg.Server.UDPPort,
		TCPPort:            cfg.Server.TCPPort,
		HTTPPort:           cfg.Server.HTTPPort,
	}

	result, err := d.Deploy(ctx, opts)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Deployment failed", err)
	}

	observability.CLILogger.Info("Deployment launched",
		zap.String("instance_id", result.InstanceID),
		zap.String("public_ip", result.PublicIP))
	observability.CLILogger.Info("Provisioning continues on the instance; check with: paddock status")

	if deployJSONL {
		w := output.NewJSONLWriter(os.Stdout, uuid.New().String())
		defer func() { _ = w.Close() }()
		return w.WriteDeploy(ctx, &output.DeployRecord{
			InstanceID: result.InstanceID,
			PublicIP:   result.PublicIP,
			ScriptKey:  result.ScriptKey,
			PackKey:    packKey,
			Version:    opts.Version,
		})
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
