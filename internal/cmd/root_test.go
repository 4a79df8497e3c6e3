package cmd

import (
	"errors"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorCarriesCode(t *testing.T) {
	cause := errors.New("bucket does not exist")
	err := exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to AWS", cause)

	var cliErr *cliError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, cliErr.code)
	assert.Equal(t, "Failed to connect to AWS: bucket does not exist", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestExitErrorWithoutCause(t *testing.T) {
	err := exitError(foundry.ExitInvalidArgument, "Either --pack-file or --pack-key is required", nil)

	assert.Equal(t, "Either --pack-file or --pack-key is required", err.Error())
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc1234", "2026-08-30")

	assert.Equal(t, "1.2.3", versionInfo.Version)
	assert.Equal(t, "abc1234", versionInfo.Commit)
	assert.Equal(t, "2026-08-30", versionInfo.BuildDate)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"deploy", "status", "terminate", "stop", "start",
		"pack", "bucket", "cmpack", "version",
	} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
