package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redlinehq/paddock/pkg/compute"
	"github.com/redlinehq/paddock/pkg/deploy"
	"github.com/redlinehq/paddock/pkg/netprobe"
	"github.com/redlinehq/paddock/pkg/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show instance state and probe game server connectivity",
	Long: `Show the named instance's compute state and, when it is running,
probe the game server ports to distinguish "instance up" from "server
actually reachable".

Examples:
  paddock status
  paddock status --name trackday --probe=false
  paddock status --jsonl`,
	RunE: runStatus,
}

var (
	statusName  string
	statusProbe bool
	statusJSONL bool
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusName, "name", "", "Instance name tag (default from config)")
	statusCmd.Flags().BoolVar(&statusProbe, "probe", true, "Probe game server connectivity when running")
	statusCmd.Flags().BoolVar(&statusJSONL, "jsonl", false, "Emit JSONL status and probe records to stdout")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	backend, err := newBackend(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", err)
	}
	defer func() { _ = backend.Close() }()

	name := firstNonEmpty(statusName, cfg.Instance.Name)
	d := deploy.New(nil, backend, nil)
	inst, err := d.Status(ctx, name)
	if errors.Is(err, deploy.ErrNoInstance) {
		fmt.Printf("No instance named %q is running.\n", name)
		return nil
	}
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to query instance", err)
	}

	var w *output.JSONLWriter
	if statusJSONL {
		w = output.NewJSONLWriter(os.Stdout, uuid.New().String())
		defer func() { _ = w.Close() }()
		rec := &output.StatusRecord{
			InstanceID:   inst.ID,
			Name:         inst.Name,
			State:        string(inst.State),
			InstanceType: inst.InstanceType,
			PublicIP:     inst.PublicIP,
			PrivateIP:    inst.PrivateIP,
		}
		if !inst.LaunchTime.IsZero() {
			rec.LaunchTime = inst.LaunchTime.UTC().Format(time.RFC3339)
		}
		if err := w.WriteStatus(ctx, rec); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write status record", err)
		}
	} else {
		printInstance(inst)
	}

	if !statusProbe || inst.State != compute.StateRunning || inst.PublicIP == "" {
		return nil
	}
	return probeServer(ctx, inst.PublicIP, w)
}

func printInstance(inst *compute.Instance) {
	fmt.Printf("Instance:   %s (%s)\n", inst.ID, inst.Name)
	fmt.Printf("State:      %s\n", inst.State)
	fmt.Printf("Type:       %s\n", inst.InstanceType)
	if inst.PublicIP != "" {
		fmt.Printf("Public IP:  %s\n", inst.PublicIP)
	}
	if inst.PrivateIP != "" {
		fmt.Printf("Private IP: %s\n", inst.PrivateIP)
	}
	if !inst.LaunchTime.IsZero() {
		fmt.Printf("Launched:   %s\n", inst.LaunchTime.UTC().Format(time.RFC3339))
	}
}

// probeServer checks the game server ports on a running instance. The
// instance being up does not mean provisioning succeeded, so each check
// is reported individually.
func probeServer(ctx context.Context, ip string, w *output.JSONLWriter) error {
	timeout := cfg.Server.ProbeTimeout

	tcpOK := netprobe.CheckTCPPort(ip, cfg.Server.TCPPort, timeout)
	udpOK := netprobe.CheckUDPPort(ip, cfg.Server.UDPPort, timeout)
	httpURL := fmt.Sprintf("http://%s:%d/INFO", ip, cfg.Server.HTTPPort)
	httpOK, httpDetail := netprobe.CheckURL(httpURL, timeout)

	if w != nil {
		probes := []*output.ProbeRecord{
			{Check: "tcp", Target: fmt.Sprintf("%s:%d", ip, cfg.Server.TCPPort), OK: tcpOK},
			{Check: "udp", Target: fmt.Sprintf("%s:%d", ip, cfg.Server.UDPPort), OK: udpOK},
			{Check: "http", Target: httpURL, OK: httpOK, Detail: httpDetail},
		}
		for _, p := range probes {
			if err := w.WriteProbe(ctx, p); err != nil {
				return exitError(foundry.ExitFileWriteError, "Failed to write probe record", err)
			}
		}
		return nil
	}

	fmt.Println()
	fmt.Printf("TCP %d:     %s\n", cfg.Server.TCPPort, probeLabel(tcpOK))
	fmt.Printf("UDP %d:     %s (send-only check)\n", cfg.Server.UDPPort, probeLabel(udpOK))
	fmt.Printf("HTTP %d:    %s\n", cfg.Server.HTTPPort, probeLabel(httpOK))
	if httpDetail != "" {
		fmt.Printf("            %s\n", httpDetail)
	}
	if tcpOK && httpOK {
		fmt.Println()
		fmt.Printf("Join link:  https://acstuff.ru/s/q:race/online/join?ip=%s&httpPort=%d&password=\n",
			ip, cfg.Server.HTTPPort)
	} else {
		fmt.Println()
		fmt.Println("Instance is running but the game server is not (yet) reachable.")
		fmt.Println("Provisioning may still be in progress; try again in a minute.")
	}
	return nil
}

func probeLabel(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
