package bootstrap

import (
	"fmt"
)

// First-boot data size discipline. The platform rejects payloads over
// UserDataCeilingBytes; the minimal script targets well under
// UserDataTargetBytes even for unusually long signed URLs, whose
// provider-specific query strings are the dominant size contributor.
const (
	UserDataCeilingBytes = 16 * 1024
	UserDataTargetBytes  = 2 * 1024
)

// minimalUserDataFormat is the whole first-boot script. It contains no
// provisioning logic: only fetch, verify, and hand off. The URL appears
// once, held in a shell variable shared by the curl and wget branches, so
// payload size grows by exactly the URL length.
//
// Every literal byte here is re-sent on every deployment attempt; keep the
// template free of commentary and expanded logic.
const minimalUserDataFormat = `#!/bin/bash
set -e
BOOTSTRAP_URL='%s'
BOOTSTRAP_PATH="/tmp/bootstrap.sh"
if command -v curl &>/dev/null; then
  curl -fsSL -o "$BOOTSTRAP_PATH" "$BOOTSTRAP_URL"
elif command -v wget &>/dev/null; then
  wget -q -O "$BOOTSTRAP_PATH" "$BOOTSTRAP_URL"
else
  echo "bootstrap: neither curl nor wget available" >&2
  exit 1
fi
if [ ! -f "$BOOTSTRAP_PATH" ] || [ ! -s "$BOOTSTRAP_PATH" ]; then
  echo "bootstrap: download produced no data" >&2
  exit 1
fi
chmod +x "$BOOTSTRAP_PATH"
exec "$BOOTSTRAP_PATH"
`

// MinimalUserData composes the first-boot script around a signed URL.
//
// The script downloads the provisioning script, treats a missing or
// zero-byte result as failure, marks it executable, and replaces the
// current process image with it so no wrapper process lingers and the
// first-boot exit status is the provisioning script's. There is no retry
// at this layer; retry responsibility lives in the provisioning script,
// which can afford the size cost.
func MinimalUserData(signedURL string) string {
	return fmt.Sprintf(minimalUserDataFormat, signedURL)
}

// ValidateUserDataSize rejects first-boot data over the platform ceiling.
// Size violations are configuration errors and must be caught before
// launch, never at runtime on the instance.
func ValidateUserDataSize(userData string) error {
	if len(userData) > UserDataCeilingBytes {
		return fmt.Errorf("user data is %d bytes, over the %d byte platform limit", len(userData), UserDataCeilingBytes)
	}
	return nil
}
