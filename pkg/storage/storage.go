// Package storage defines abstractions for the object store that holds
// deployable server packs and provisioning scripts.
//
// Stores implement a minimal surface area focused on single-object
// operations. Authentication uses SDK default credential chains - stores
// should not implement custom auth logic.
package storage

import (
	"context"
	"io"
	"time"
)

// Store abstracts object storage operations for pack and script objects.
//
// Implementations should:
//   - Use SDK default credential chains (AWS default config)
//   - Be safe for concurrent use
//   - Be safe to retry by the caller (Put and Delete are idempotent)
type Store interface {
	// PutObject creates or overwrites an object.
	PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error

	// GetObject downloads an object as a stream.
	// Returns ErrNotFound if the object does not exist.
	GetObject(ctx context.Context, key string) (body io.ReadCloser, contentLength int64, err error)

	// DeleteObject deletes an object. Deleting a missing object is not
	// an error.
	DeleteObject(ctx context.Context, key string) error

	// Head returns metadata for a single object.
	// Returns ErrNotFound if the object does not exist.
	Head(ctx context.Context, key string) (*ObjectMeta, error)

	// List returns objects whose keys start with prefix.
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)

	// Close releases any resources held by the store.
	Close() error
}

// Signer is an optional capability for stores that can issue time-limited
// download URLs.
//
// A presigned URL is a capability, not a credential: anyone holding the
// string can fetch the object until expiry. Callers must avoid persisting
// full URLs beyond the deployment session.
type Signer interface {
	// PresignGet returns a URL granting read access to key for ttl.
	// The object must already exist; signing an uncommitted key is an
	// error, not a deferred promise.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectMeta contains metadata for a stored object.
type ObjectMeta struct {
	// Key is the full object key (path) in the bucket.
	Key string

	// Size is the object size in bytes.
	Size int64

	// ETag is the entity tag, typically an MD5 hash of the object.
	ETag string

	// LastModified is when the object was last modified.
	LastModified time.Time
}
