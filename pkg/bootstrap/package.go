package bootstrap

import (
	"context"
	"io"
	"strings"
	"time"
)

// ScriptURLTTL is the validity window of the signed download URL issued
// for a provisioning script. The instance must fetch the script within
// this window of launch.
const ScriptURLTTL = time.Hour

// Store is the slice of the object store the bootstrap protocol needs.
//
// *storage/s3.Store and *storage/memory.Store both satisfy it.
type Store interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Package uploads a provisioning script and issues its signed download URL.
//
// The object is durably stored before the URL is signed; failure of either
// step yields a single error and zero values, never a half-populated pair.
func Package(ctx context.Context, store Store, script string) (key, url string, err error) {
	key = NewScriptKey()

	if err := store.PutObject(ctx, key, strings.NewReader(script), int64(len(script))); err != nil {
		return "", "", err
	}

	url, err = store.PresignGet(ctx, key, ScriptURLTTL)
	if err != nil {
		return "", "", err
	}

	return key, url, nil
}
