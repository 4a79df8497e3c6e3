// Package memory implements an in-memory storage.Store for tests.
//
// The fake is the substitution seam for everything built on the store
// facade: deployment orchestration and bootstrap packaging tests run
// against it instead of live S3.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redlinehq/paddock/pkg/storage"
)

// Store is a map-backed storage.Store and storage.Signer.
//
// Safe for concurrent use. Error injection fields allow tests to simulate
// remote-call failures at specific operations.
type Store struct {
	bucket string

	mu      sync.Mutex
	objects map[string]object

	// FailPut, when set, is returned by the next PutObject calls.
	FailPut error

	// FailPresign, when set, is returned by PresignGet even for
	// committed objects.
	FailPresign error
}

type object struct {
	data     []byte
	modified time.Time
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Signer = (*Store)(nil)
)

// New creates an empty in-memory store for the named bucket.
func New(bucket string) *Store {
	return &Store{
		bucket:  bucket,
		objects: make(map[string]object),
	}
}

// PutObject stores a copy of body under key.
func (s *Store) PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return &storage.StoreError{Op: "PutObject", Bucket: s.bucket, Key: key, Err: s.FailPut}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return &storage.StoreError{Op: "PutObject", Bucket: s.bucket, Key: key, Err: err}
	}
	if contentLength >= 0 && int64(len(data)) != contentLength {
		return &storage.StoreError{
			Op: "PutObject", Bucket: s.bucket, Key: key,
			Err: fmt.Errorf("content length mismatch: declared %d, read %d", contentLength, len(data)),
		}
	}

	s.objects[key] = object{data: data, modified: time.Now().UTC()}
	return nil
}

// GetObject returns a reader over the stored bytes.
func (s *Store) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, 0, &storage.StoreError{Op: "GetObject", Bucket: s.bucket, Key: key, Err: storage.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), int64(len(obj.data)), nil
}

// DeleteObject removes key. Missing keys are not an error.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Head returns metadata for key.
func (s *Store) Head(ctx context.Context, key string) (*storage.ObjectMeta, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, &storage.StoreError{Op: "Head", Bucket: s.bucket, Key: key, Err: storage.ErrNotFound}
	}
	return &storage.ObjectMeta{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

// List returns metadata for all keys with the given prefix, sorted by key.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectMeta, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var metas []storage.ObjectMeta
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			metas = append(metas, storage.ObjectMeta{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Key < metas[j].Key })
	return metas, nil
}

// PresignGet returns a fake but structurally realistic download URL.
//
// Signing a key with no committed object fails, matching the facade
// contract that a URL is never issued for an uncommitted upload.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return "", &storage.StoreError{Op: "PresignGet", Bucket: s.bucket, Key: key, Err: storage.ErrNotFound}
	}
	if s.FailPresign != nil {
		return "", &storage.StoreError{Op: "PresignGet", Bucket: s.bucket, Key: key, Err: s.FailPresign}
	}

	return fmt.Sprintf("https://%s.s3.memory.invalid/%s?X-Amz-Expires=%d&X-Amz-Signature=deadbeef",
		s.bucket, key, int(ttl.Seconds())), nil
}

// Bucket returns the bucket name this store operates on.
func (s *Store) Bucket() string { return s.bucket }

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Close releases nothing; it satisfies the interface.
func (s *Store) Close() error { return nil }
