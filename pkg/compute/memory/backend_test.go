package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redlinehq/paddock/pkg/compute"
)

func TestLaunchAndDescribe(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.Launch(ctx, compute.LaunchSpec{
		ImageID:      "ami-memory",
		InstanceType: "t3.small",
		Name:         "ac-server",
		UserData:     "#!/bin/bash\n",
	})
	require.NoError(t, err)

	inst, err := b.Describe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, compute.StateRunning, inst.State)
	assert.Equal(t, "ac-server", inst.Name)
	assert.Equal(t, "t3.small", inst.InstanceType)
	assert.NotEmpty(t, inst.PublicIP)
	assert.Equal(t, "#!/bin/bash\n", b.UserData(id))
}

func TestLaunchRejectsOversizedUserData(t *testing.T) {
	b := New()

	_, err := b.Launch(context.Background(), compute.LaunchSpec{
		Name:     "ac-server",
		UserData: strings.Repeat("x", compute.MaxUserDataBytes+1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compute.ErrUserDataTooLarge))
}

func TestFindByNameSkipsTerminated(t *testing.T) {
	b := New()
	ctx := context.Background()

	first, err := b.Launch(ctx, compute.LaunchSpec{Name: "ac-server"})
	require.NoError(t, err)
	second, err := b.Launch(ctx, compute.LaunchSpec{Name: "ac-server"})
	require.NoError(t, err)
	_, err = b.Launch(ctx, compute.LaunchSpec{Name: "other"})
	require.NoError(t, err)

	require.NoError(t, b.Terminate(ctx, first))

	ids, err := b.FindByName(ctx, "ac-server")
	require.NoError(t, err)
	assert.Equal(t, []string{second}, ids)
}

func TestTerminateMissingIsSuccess(t *testing.T) {
	b := New()

	assert.NoError(t, b.Terminate(context.Background(), "i-00009999"))
	assert.NoError(t, b.TerminateAndWait(context.Background(), "i-00009999"))
}

func TestTerminateIsIdempotent(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.Launch(ctx, compute.LaunchSpec{Name: "ac-server"})
	require.NoError(t, err)

	require.NoError(t, b.Terminate(ctx, id))
	require.NoError(t, b.Terminate(ctx, id))

	inst, err := b.Describe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, compute.StateTerminated, inst.State)
}

func TestStopStart(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.Launch(ctx, compute.LaunchSpec{Name: "ac-server"})
	require.NoError(t, err)

	require.NoError(t, b.Stop(ctx, id))
	inst, err := b.Describe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, compute.StateStopped, inst.State)

	require.NoError(t, b.Start(ctx, id))
	inst, err = b.Describe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, compute.StateRunning, inst.State)
}

func TestStopMissingInstance(t *testing.T) {
	b := New()

	err := b.Stop(context.Background(), "i-00009999")
	require.Error(t, err)
	assert.True(t, compute.IsInstanceNotFound(err))
}
