// Package deploy orchestrates a single game server deployment run over the
// storage and compute facades.
//
// All operations are synchronous blocking calls; the only asynchronous
// actor is the remote instance executing the provisioning script after
// launch. Deploy returns once the instance reaches a running compute-level
// state - provisioning outcome is learned separately via the status record
// or connectivity probing.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/redlinehq/paddock/pkg/bootstrap"
	"github.com/redlinehq/paddock/pkg/compute"
	"github.com/redlinehq/paddock/pkg/storage"
)

// ErrNoInstance indicates no instance carries the requested name tag.
var ErrNoInstance = errors.New("no instance found")

// Store is the object-store surface a deployment run needs.
type Store interface {
	storage.Store
	storage.Signer

	// Bucket returns the bucket name, needed by the provisioning script
	// to address the pack.
	Bucket() string
}

// Deployer holds the collaborators for one deployment run. It carries no
// state between calls; lifetime is scoped to a single CLI invocation.
type Deployer struct {
	Store   Store
	Compute compute.Backend
	Log     *zap.Logger
}

// New creates a Deployer. A nil logger is replaced with a no-op logger.
func New(store Store, backend compute.Backend, log *zap.Logger) *Deployer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deployer{Store: store, Compute: backend, Log: log}
}

// Options parameterize a deployment.
type Options struct {
	// PackKey is the object key of the uploaded server pack.
	PackKey string

	// Version is the AssettoServer release version to install.
	Version string

	// InstanceName is the name tag for the launched instance.
	InstanceName string

	// InstanceType is the machine size.
	InstanceType string

	// SecurityGroupName names the security policy to create or reuse.
	SecurityGroupName string

	// KeyName optionally names an SSH key pair.
	KeyName string

	// IAMInstanceProfile optionally attaches an instance profile.
	IAMInstanceProfile string

	// ExtraPorts are additional TCP ports opened in the security group.
	ExtraPorts []int

	// UDPPort, TCPPort and HTTPPort are the game server ports.
	UDPPort  int
	TCPPort  int
	HTTPPort int
}

// Result describes a completed launch.
type Result struct {
	// InstanceID is the provider-assigned instance identifier.
	InstanceID string

	// PublicIP is the instance's public address, if already assigned.
	PublicIP string

	// ScriptKey is the object key of the uploaded provisioning script.
	ScriptKey string
}

// Deploy provisions one game server instance end to end: security group,
// base image, provisioning script upload, minimal first-boot script, and
// launch. It does not wait for provisioning to complete.
func (d *Deployer) Deploy(ctx context.Context, opts Options) (*Result, error) {
	if opts.PackKey == "" {
		return nil, fmt.Errorf("deploy: pack key is required")
	}

	if _, err := d.Store.Head(ctx, opts.PackKey); err != nil {
		return nil, fmt.Errorf("deploy: pack %s not available: %w", opts.PackKey, err)
	}

	groupID, err := d.Compute.EnsureSecurityGroup(ctx, opts.SecurityGroupName,
		"game server ports for "+opts.InstanceName, opts.ExtraPorts)
	if err != nil {
		return nil, fmt.Errorf("deploy: security group: %w", err)
	}
	d.Log.Info("Security group ready", zap.String("group_id", groupID))

	imageID, err := d.Compute.ResolveImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("deploy: resolve image: %w", err)
	}
	d.Log.Info("Resolved base image", zap.String("image_id", imageID))

	spec := bootstrap.ProvisionSpec{
		Bucket:   d.Store.Bucket(),
		PackKey:  opts.PackKey,
		Version:  opts.Version,
		UDPPort:  opts.UDPPort,
		TCPPort:  opts.TCPPort,
		HTTPPort: opts.HTTPPort,
	}
	script, err := spec.Render()
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	scriptKey, signedURL, err := bootstrap.Package(ctx, d.Store, script)
	if err != nil {
		return nil, fmt.Errorf("deploy: package provisioning script: %w", err)
	}
	// Log the key, never the signed URL: the URL is a bearer capability.
	d.Log.Info("Provisioning script uploaded", zap.String("key", scriptKey))

	userData := bootstrap.MinimalUserData(signedURL)
	if err := bootstrap.ValidateUserDataSize(userData); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	instanceID, err := d.Compute.Launch(ctx, compute.LaunchSpec{
		ImageID:            imageID,
		InstanceType:       opts.InstanceType,
		SecurityGroupID:    groupID,
		UserData:           userData,
		Name:               opts.InstanceName,
		KeyName:            opts.KeyName,
		IAMInstanceProfile: opts.IAMInstanceProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy: launch: %w", err)
	}
	d.Log.Info("Instance running", zap.String("instance_id", instanceID))

	result := &Result{InstanceID: instanceID, ScriptKey: scriptKey}
	if inst, err := d.Compute.Describe(ctx, instanceID); err == nil {
		result.PublicIP = inst.PublicIP
	}
	return result, nil
}

// Status returns the instance with the given name tag.
func (d *Deployer) Status(ctx context.Context, name string) (*compute.Instance, error) {
	ids, err := d.Compute.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoInstance
	}
	return d.Compute.Describe(ctx, ids[0])
}

// Terminate terminates every instance carrying the name tag. Idempotent:
// an already-gone instance is success. With wait set it blocks until the
// provider reports a terminal state.
func (d *Deployer) Terminate(ctx context.Context, name string, wait, dryRun bool) error {
	ids, err := d.Compute.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		d.Log.Info("No instance to terminate", zap.String("name", name))
		return nil
	}

	for _, id := range ids {
		if dryRun {
			d.Log.Info("[DRY RUN] Would terminate instance", zap.String("instance_id", id))
			continue
		}
		if wait {
			err = d.Compute.TerminateAndWait(ctx, id)
		} else {
			err = d.Compute.Terminate(ctx, id)
		}
		if err != nil {
			return err
		}
		d.Log.Info("Instance terminated", zap.String("instance_id", id), zap.Bool("waited", wait))
	}
	return nil
}

// Stop stops the named instance.
func (d *Deployer) Stop(ctx context.Context, name string) error {
	return d.forEachNamed(ctx, name, d.Compute.Stop)
}

// Start starts the named instance.
func (d *Deployer) Start(ctx context.Context, name string) error {
	return d.forEachNamed(ctx, name, d.Compute.Start)
}

func (d *Deployer) forEachNamed(ctx context.Context, name string, op func(context.Context, string) error) error {
	ids, err := d.Compute.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoInstance
	}
	for _, id := range ids {
		if err := op(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
