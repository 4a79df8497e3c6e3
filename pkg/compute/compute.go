// Package compute defines abstractions for the virtual machine provider
// that hosts game server instances.
//
// The instance lifecycle (pending -> running -> [stopped <-> running] ->
// terminated) is owned entirely by the provider; this package only issues
// transition requests and polls terminal state.
package compute

import (
	"context"
	"time"
)

// State is a provider-owned instance lifecycle state.
type State string

const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
	StateShuttingDown State = "shutting-down"
	StateTerminated   State = "terminated"
)

// Instance describes a compute instance at a point in time.
type Instance struct {
	// ID is the opaque identifier assigned by the provider.
	ID string

	// Name is the human-readable name tag used for later lookup.
	Name string

	// State is the provider-level lifecycle state.
	State State

	// InstanceType is the provider machine size (e.g., "t3.small").
	InstanceType string

	// PublicIP is the public address, empty until assigned.
	PublicIP string

	// PrivateIP is the private address within the provider network.
	PrivateIP string

	// LaunchTime is when the instance was launched.
	LaunchTime time.Time
}

// LaunchSpec describes a single instance launch request.
type LaunchSpec struct {
	// ImageID is the base machine image.
	ImageID string

	// InstanceType is the machine size.
	InstanceType string

	// SecurityGroupID is the network security policy to attach.
	SecurityGroupID string

	// UserData is the first-boot script handed to the instance. Size is
	// limited by the platform; see MaxUserDataBytes.
	UserData string

	// Name is applied as the instance's name tag.
	Name string

	// KeyName optionally names an SSH key pair.
	KeyName string

	// IAMInstanceProfile optionally attaches an instance profile, by
	// name or full ARN.
	IAMInstanceProfile string
}

// MaxUserDataBytes is the platform ceiling on first-boot data (16 KiB for
// EC2). Launch must reject oversized user data before any provider call.
const MaxUserDataBytes = 16 * 1024

// Backend abstracts the compute provider.
//
// Implementations should treat "already gone" as success on terminate
// paths so cleanup stays idempotent.
type Backend interface {
	// EnsureSecurityGroup creates the named security policy with ingress
	// for SSH and the game server ports, or returns the existing group.
	EnsureSecurityGroup(ctx context.Context, name, description string, extraPorts []int) (string, error)

	// ResolveImage returns the ID of the base machine image to launch from.
	ResolveImage(ctx context.Context) (string, error)

	// Launch creates one instance and blocks until it reaches the
	// running state. It does not wait for provisioning.
	Launch(ctx context.Context, spec LaunchSpec) (string, error)

	// Describe returns the instance, or ErrInstanceNotFound.
	Describe(ctx context.Context, instanceID string) (*Instance, error)

	// FindByName returns IDs of non-terminated instances with the given
	// name tag.
	FindByName(ctx context.Context, name string) ([]string, error)

	// Start starts a stopped instance.
	Start(ctx context.Context, instanceID string) error

	// Stop stops a running instance.
	Stop(ctx context.Context, instanceID string) error

	// Terminate requests termination. A missing or already-terminated
	// instance is success.
	Terminate(ctx context.Context, instanceID string) error

	// TerminateAndWait terminates and blocks until the instance reaches
	// a terminal state or the attempt budget is exhausted.
	TerminateAndWait(ctx context.Context, instanceID string) error

	// Close releases any resources held by the backend.
	Close() error
}
