package bootstrap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	st := NewStatus(StatusStarted, "AssettoServer deployment successful", testSpec(), "203.0.113.7", now)

	assert.Equal(t, StatusStarted, st.Status)
	assert.Equal(t, "2026-03-14T09:26:53Z", st.Timestamp)
	assert.Equal(t, "203.0.113.7", st.ServerIP)
	assert.Equal(t, 9600, st.ServerPort)
	assert.Equal(t, 8081, st.HTTPPort)
	assert.Equal(t, "v0.0.55-pre31", st.AssettoServerVersion)
	assert.Equal(t, "server-pack", st.PackID)
}

func TestStatusJSONKeys(t *testing.T) {
	st := NewStatus(StatusFailed, "Failed to download pack from object store", testSpec(), "unknown", time.Now())

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"status", "detail", "timestamp", "server_ip", "server_port",
		"tcp_port", "http_port", "assettoserver_version", "pack_id",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "failed", raw["status"])
}

func TestStatusWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy-status.json")
	spec := testSpec()

	first := NewStatus(StatusStarted, "AssettoServer deployment successful", spec, "203.0.113.7", time.Now())
	require.NoError(t, first.Write(path))

	second := NewStatus(StatusFailed, "AssettoServer failed to start", spec, "203.0.113.7", time.Now())
	require.NoError(t, second.Write(path))

	// Only the latest transition survives on disk, no accumulation.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Status
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "AssettoServer failed to start", got.Detail)
	assert.Equal(t, 1, strings.Count(string(data), `"status"`))
}
