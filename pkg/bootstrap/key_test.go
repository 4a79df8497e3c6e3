package bootstrap

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptKey(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	key := ScriptKey(now, "deadbeef")
	assert.Equal(t, "bootstrap/bootstrap-20260314-092653-deadbeef.sh", key)
}

func TestScriptKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 14, 14, 26, 53, 0, loc)
	utc := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	assert.Equal(t, ScriptKey(utc, "aa11bb22"), ScriptKey(local, "aa11bb22"))
}

func TestScriptKeySortsByTime(t *testing.T) {
	earlier := ScriptKey(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), "00000000")
	later := ScriptKey(time.Date(2026, 3, 14, 9, 0, 1, 0, time.UTC), "00000000")

	assert.Less(t, earlier, later)
}

func TestNewScriptKeyShape(t *testing.T) {
	pattern := regexp.MustCompile(`^bootstrap/bootstrap-\d{8}-\d{6}-[0-9a-f]{8}\.sh$`)

	for i := 0; i < 10; i++ {
		key := NewScriptKey()
		assert.Regexp(t, pattern, key)
		assert.True(t, strings.HasPrefix(key, ScriptKeyPrefix))
	}
}

func TestNewScriptKeySameSecondDistinct(t *testing.T) {
	// Keys created within the same second must still differ; the random
	// token is the only disambiguator.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key := NewScriptKey()
		require.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestNewKeyToken(t *testing.T) {
	token := NewKeyToken()

	assert.Len(t, token, 8)
	assert.Regexp(t, `^[0-9a-f]{8}$`, token)
}
