// Package bootstrap implements the two-stage bootstrap deployment protocol.
//
// Cloud platforms cap the data handed to an instance at launch, so the
// provisioning logic cannot ride along with the launch call. Instead the
// full provisioning script is uploaded to the object store out-of-band and
// a minimal first-boot script - parameterized only by a time-limited signed
// URL - fetches and executes it. The first-boot payload size is therefore
// independent of provisioning complexity.
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScriptKeyPrefix namespaces uploaded provisioning scripts in the bucket.
const ScriptKeyPrefix = "bootstrap/"

// keyTimeFormat is second-resolution UTC, chosen so keys sort lexically by
// creation time.
const keyTimeFormat = "20060102-150405"

// ScriptKey builds an object key for a provisioning script from a creation
// time and a short random token. The timestamp makes keys sortable; the
// token keeps same-second uploads distinct without coordination.
func ScriptKey(now time.Time, token string) string {
	return fmt.Sprintf("%sbootstrap-%s-%s.sh", ScriptKeyPrefix, now.UTC().Format(keyTimeFormat), token)
}

// NewScriptKey returns a fresh key for the current time.
func NewScriptKey() string {
	return ScriptKey(time.Now(), NewKeyToken())
}

// NewKeyToken returns an 8-hex-character random disambiguator.
func NewKeyToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
