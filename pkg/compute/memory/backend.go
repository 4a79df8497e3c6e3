// Package memory implements an in-memory compute.Backend for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redlinehq/paddock/pkg/compute"
)

// Backend is a scripted fake compute backend.
//
// Launched instances go straight to running; Stop/Start/Terminate apply
// transitions synchronously. Error injection fields simulate provider
// failures.
type Backend struct {
	mu        sync.Mutex
	instances map[string]*compute.Instance
	userData  map[string]string
	seq       int

	// ImageID is returned by ResolveImage. Defaults to "ami-memory".
	ImageID string

	// FailLaunch, when set, is returned by Launch.
	FailLaunch error
}

var _ compute.Backend = (*Backend)(nil)

// New creates an empty fake backend.
func New() *Backend {
	return &Backend{
		instances: make(map[string]*compute.Instance),
		userData:  make(map[string]string),
		ImageID:   "ami-memory",
	}
}

// EnsureSecurityGroup returns a deterministic group ID.
func (b *Backend) EnsureSecurityGroup(ctx context.Context, name, description string, extraPorts []int) (string, error) {
	_ = ctx
	return "sg-" + name, nil
}

// ResolveImage returns the configured image ID.
func (b *Backend) ResolveImage(ctx context.Context) (string, error) {
	_ = ctx
	return b.ImageID, nil
}

// Launch records the spec and creates a running instance.
func (b *Backend) Launch(ctx context.Context, spec compute.LaunchSpec) (string, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailLaunch != nil {
		return "", &compute.ComputeError{Op: "Launch", Err: b.FailLaunch}
	}
	if len(spec.UserData) > compute.MaxUserDataBytes {
		return "", &compute.ComputeError{Op: "Launch", Err: compute.ErrUserDataTooLarge}
	}

	b.seq++
	id := fmt.Sprintf("i-%08d", b.seq)
	b.instances[id] = &compute.Instance{
		ID:           id,
		Name:         spec.Name,
		State:        compute.StateRunning,
		InstanceType: spec.InstanceType,
		PublicIP:     fmt.Sprintf("198.51.100.%d", b.seq),
		PrivateIP:    fmt.Sprintf("10.0.0.%d", b.seq),
		LaunchTime:   time.Now().UTC(),
	}
	b.userData[id] = spec.UserData
	return id, nil
}

// Describe returns a copy of the instance, or ErrInstanceNotFound.
func (b *Backend) Describe(ctx context.Context, instanceID string) (*compute.Instance, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()

	inst, ok := b.instances[instanceID]
	if !ok {
		return nil, &compute.ComputeError{Op: "Describe", InstanceID: instanceID, Err: compute.ErrInstanceNotFound}
	}
	cp := *inst
	return &cp, nil
}

// FindByName returns IDs of non-terminated instances with the name tag.
func (b *Backend) FindByName(ctx context.Context, name string) ([]string, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()

	var ids []string
	for id, inst := range b.instances {
		if inst.Name == name && inst.State != compute.StateTerminated {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Start transitions a stopped instance to running.
func (b *Backend) Start(ctx context.Context, instanceID string) error {
	return b.transition(instanceID, "Start", compute.StateRunning)
}

// Stop transitions a running instance to stopped.
func (b *Backend) Stop(ctx context.Context, instanceID string) error {
	return b.transition(instanceID, "Stop", compute.StateStopped)
}

// Terminate marks the instance terminated. Missing instances are success.
func (b *Backend) Terminate(ctx context.Context, instanceID string) error {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()

	inst, ok := b.instances[instanceID]
	if !ok {
		return nil
	}
	inst.State = compute.StateTerminated
	return nil
}

// TerminateAndWait behaves like Terminate; the fake has no propagation delay.
func (b *Backend) TerminateAndWait(ctx context.Context, instanceID string) error {
	return b.Terminate(ctx, instanceID)
}

// UserData returns the first-boot data recorded at launch.
func (b *Backend) UserData(instanceID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userData[instanceID]
}

// SetState overrides an instance's state for test scenarios.
func (b *Backend) SetState(instanceID string, state compute.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if inst, ok := b.instances[instanceID]; ok {
		inst.State = state
	}
}

// Close releases nothing; it satisfies the interface.
func (b *Backend) Close() error { return nil }

func (b *Backend) transition(instanceID, op string, to compute.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	inst, ok := b.instances[instanceID]
	if !ok {
		return &compute.ComputeError{Op: op, InstanceID: instanceID, Err: compute.ErrInstanceNotFound}
	}
	inst.State = to
	return nil
}
