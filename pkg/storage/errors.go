package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable indicates the storage service is unavailable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrThrottled indicates the request was rate limited by the store.
	ErrThrottled = errors.New("request throttled")
)

// StoreError wraps store-specific errors with context.
type StoreError struct {
	// Op is the operation that failed (e.g., "PutObject", "PresignGet").
	Op string

	// Bucket is the bucket name, if applicable.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates an object was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBucketNotFound returns true if the error indicates the bucket does not exist.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
