package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignedURL = "https://test-bucket.s3.amazonaws.com/bootstrap/bootstrap-20260314-092653-deadbeef.sh?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=3600&X-Amz-Signature=abc123"

func TestMinimalUserDataContainsURLExactlyOnce(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	assert.Equal(t, 1, strings.Count(script, testSignedURL))
}

func TestMinimalUserDataFetchBranches(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	// Both downloaders read the URL from the shared variable, never a
	// second literal copy.
	assert.Contains(t, script, `BOOTSTRAP_URL='`+testSignedURL+`'`)
	assert.Contains(t, script, `curl -fsSL -o "$BOOTSTRAP_PATH" "$BOOTSTRAP_URL"`)
	assert.Contains(t, script, `wget -q -O "$BOOTSTRAP_PATH" "$BOOTSTRAP_URL"`)
}

func TestMinimalUserDataVerifiesDownload(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	assert.Contains(t, script, `[ ! -f "$BOOTSTRAP_PATH" ] || [ ! -s "$BOOTSTRAP_PATH" ]`)
}

func TestMinimalUserDataHandsOffViaExec(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	lines := strings.Split(strings.TrimRight(script, "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, `exec "$BOOTSTRAP_PATH"`, lines[len(lines)-1])
}

func TestMinimalUserDataStartsWithShebang(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
}

func TestMinimalUserDataUnderTarget(t *testing.T) {
	script := MinimalUserData(testSignedURL)

	assert.Less(t, len(script), UserDataTargetBytes,
		"first-boot script must stay well under the %d byte target", UserDataTargetBytes)
}

func TestMinimalUserDataSizeIndependentOfProvisioning(t *testing.T) {
	shortURL := "https://b.s3.amazonaws.com/k.sh?sig=1"
	longURL := shortURL + strings.Repeat("&x=y", 75)

	short := MinimalUserData(shortURL)
	long := MinimalUserData(longURL)

	// Payload grows by exactly the URL length difference; no other
	// content varies between deployments.
	assert.Equal(t, len(longURL)-len(shortURL), len(long)-len(short))
}

func TestMinimalUserDataLongURLWithinCeiling(t *testing.T) {
	// Realistic presigned URLs with session tokens run a few hundred
	// characters; even a pathological one stays far under the ceiling.
	longURL := "https://test-bucket.s3.amazonaws.com/bootstrap/b.sh?" + strings.Repeat("a", 2048)

	script := MinimalUserData(longURL)
	require.NoError(t, ValidateUserDataSize(script))
	assert.Less(t, len(script), UserDataCeilingBytes)
}

func TestValidateUserDataSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "empty", size: 0, wantErr: false},
		{name: "typical", size: 600, wantErr: false},
		{name: "at ceiling", size: UserDataCeilingBytes, wantErr: false},
		{name: "over ceiling", size: UserDataCeilingBytes + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserDataSize(strings.Repeat("x", tt.size))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
