package deploy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redlinehq/paddock/pkg/bootstrap"
	"github.com/redlinehq/paddock/pkg/compute"
	computemem "github.com/redlinehq/paddock/pkg/compute/memory"
	"github.com/redlinehq/paddock/pkg/deploy"
	"github.com/redlinehq/paddock/pkg/storage"
	storagemem "github.com/redlinehq/paddock/pkg/storage/memory"
)

func testDeployer(t *testing.T) (*deploy.Deployer, *storagemem.Store, *computemem.Backend) {
	t.Helper()
	store := storagemem.New("test-bucket")
	backend := computemem.New()
	return deploy.New(store, backend, nil), store, backend
}

func testOptions() deploy.Options {
	return deploy.Options{
		PackKey:           "packs/server-pack.tar.gz",
		Version:           "v0.0.55-pre31",
		InstanceName:      "ac-server",
		InstanceType:      "t3.small",
		SecurityGroupName: "ac-server-sg",
		UDPPort:           9600,
		TCPPort:           9600,
		HTTPPort:          8081,
	}
}

func uploadPack(t *testing.T, store *storagemem.Store, key string) {
	t.Helper()
	require.NoError(t, store.PutObject(context.Background(), key, strings.NewReader("pack"), 4))
}

func TestDeploy(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	assert.NotEmpty(t, result.InstanceID)
	assert.NotEmpty(t, result.PublicIP)
	assert.True(t, strings.HasPrefix(result.ScriptKey, bootstrap.ScriptKeyPrefix))

	// The provisioning script is durably in the store.
	meta, err := store.Head(ctx, result.ScriptKey)
	require.NoError(t, err)
	assert.Greater(t, meta.Size, int64(0))

	inst, err := backend.Describe(ctx, result.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, compute.StateRunning, inst.State)
	assert.Equal(t, "ac-server", inst.Name)
}

func TestDeployUserDataIsMinimal(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	userData := backend.UserData(result.InstanceID)
	require.NotEmpty(t, userData)

	// First-boot data carries only the fetch-and-exec shim: no
	// provisioning steps leak into it, and the signed URL appears once.
	assert.Less(t, len(userData), bootstrap.UserDataTargetBytes)
	assert.NotContains(t, userData, "apt-get")
	assert.NotContains(t, userData, "systemctl")
	assert.Contains(t, userData, result.ScriptKey)
	assert.Equal(t, 1, strings.Count(userData, result.ScriptKey))
	assert.Contains(t, userData, `exec "$BOOTSTRAP_PATH"`)
}

func TestDeployMissingPack(t *testing.T) {
	d, _, backend := testDeployer(t)

	_, err := d.Deploy(context.Background(), testOptions())
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))

	// Nothing launched on a refused deploy.
	ids, err := backend.FindByName(context.Background(), "ac-server")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeployEmptyPackKey(t *testing.T) {
	d, _, _ := testDeployer(t)

	_, err := d.Deploy(context.Background(), deploy.Options{})
	assert.Error(t, err)
}

func TestDeployScriptUploadFailure(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")
	store.FailPut = errors.New("storage unavailable")

	_, err := d.Deploy(ctx, testOptions())
	require.Error(t, err)

	ids, err := backend.FindByName(ctx, "ac-server")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeployLaunchFailure(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")
	backend.FailLaunch = errors.New("capacity exhausted")

	_, err := d.Deploy(ctx, testOptions())
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	d, store, _ := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	inst, err := d.Status(ctx, "ac-server")
	require.NoError(t, err)
	assert.Equal(t, result.InstanceID, inst.ID)

	_, err = d.Status(ctx, "no-such-server")
	assert.True(t, errors.Is(err, deploy.ErrNoInstance))
}

func TestTerminate(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.Terminate(ctx, "ac-server", false, false))

	inst, err := backend.Describe(ctx, result.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, compute.StateTerminated, inst.State)
}

func TestTerminateIsIdempotent(t *testing.T) {
	d, store, _ := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	_, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.Terminate(ctx, "ac-server", true, false))
	// Repeating against an already-gone instance stays success.
	assert.NoError(t, d.Terminate(ctx, "ac-server", true, false))
	assert.NoError(t, d.Terminate(ctx, "never-existed", false, false))
}

func TestTerminateDryRun(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.Terminate(ctx, "ac-server", false, true))

	inst, err := backend.Describe(ctx, result.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, compute.StateRunning, inst.State)
}

func TestStopStart(t *testing.T) {
	d, store, backend := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/server-pack.tar.gz")

	result, err := d.Deploy(ctx, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.Stop(ctx, "ac-server"))
	inst, err := backend.Describe(ctx, result.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, compute.StateStopped, inst.State)

	require.NoError(t, d.Start(ctx, "ac-server"))
	inst, err = backend.Describe(ctx, result.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, compute.StateRunning, inst.State)

	assert.True(t, errors.Is(d.Stop(ctx, "no-such-server"), deploy.ErrNoInstance))
}
