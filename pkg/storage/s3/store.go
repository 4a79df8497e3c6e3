package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/redlinehq/paddock/pkg/storage"
)

// Store implements storage.Store and storage.Signer for AWS S3 and
// S3-compatible object stores.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
}

// Ensure Store implements the interfaces.
var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Signer = (*Store)(nil)
)

// New creates a new S3 store with the given configuration.
//
// The store uses AWS SDK v2's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &storage.StoreError{Op: "New", Bucket: cfg.Bucket, Err: err}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}

	// Custom endpoint for S3-compatible stores
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		region:  awsCfg.Region,
	}, nil
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	// Only apply explicit region if user set one in config.
	// Let SDK resolve from env/profile first.
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	// Use explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for long-term credentials)
		)
		opts = append(opts, config.WithCredentialsProvider(staticCreds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)

	return awsCfg, nil
}

// Bucket returns the bucket name this store operates on.
func (s *Store) Bucket() string { return s.bucket }

// PutObject creates or overwrites an object.
func (s *Store) PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: &contentLength,
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return s.wrapError("PutObject", key, err)
	}
	return nil
}

// GetObject downloads an object as a stream.
func (s *Store) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, s.wrapError("GetObject", key, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// DeleteObject deletes an object. S3 delete is idempotent: deleting a
// missing key succeeds, which keeps cleanup paths retry-safe.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.wrapError("DeleteObject", key, err)
	}
	return nil
}

// Head returns metadata for a single object.
func (s *Store) Head(ctx context.Context, key string) (*storage.ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}

	return &storage.ObjectMeta{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         cleanETag(aws.ToString(out.ETag)),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// List returns objects whose keys start with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectMeta, error) {
	var objects []storage.ObjectMeta

	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrapError("List", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, storage.ObjectMeta{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         cleanETag(aws.ToString(obj.ETag)),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// PresignGet returns a time-limited download URL for key.
//
// The object is verified to exist before signing: a presigned URL to a
// not-yet-committed object would pass silently here and fail on the
// instance, which is the worst place to discover it.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.Head(ctx, key); err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", s.wrapError("PresignGet", key, err)
	}

	return req.URL, nil
}

// EnsureBucket creates the bucket if it does not exist. An existing bucket
// is success, not an error.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	wrapped := s.wrapError("HeadBucket", "", err)
	if !storage.IsBucketNotFound(wrapped) && !storage.IsNotFound(wrapped) {
		return wrapped
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 rejects an explicit LocationConstraint.
	if s.region != "" && s.region != DefaultAWSRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return s.wrapError("CreateBucket", "", err)
	}
	return nil
}

// DeleteBucket deletes the bucket. A missing bucket is success.
func (s *Store) DeleteBucket(ctx context.Context) error {
	_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		wrapped := s.wrapError("DeleteBucket", "", err)
		if storage.IsBucketNotFound(wrapped) || storage.IsNotFound(wrapped) {
			return nil
		}
		return wrapped
	}
	return nil
}

// Close releases any resources held by the store.
// The S3 client doesn't require explicit cleanup, but this satisfies the interface.
func (s *Store) Close() error {
	return nil
}

// wrapError converts S3 errors to storage errors with appropriate sentinel errors.
func (s *Store) wrapError(op, key string, err error) error {
	wrapped := &storage.StoreError{
		Op:     op,
		Bucket: s.bucket,
		Key:    key,
		Err:    err,
	}

	// Check for specific S3 error types first
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		wrapped.Err = storage.ErrNotFound
		return wrapped
	case errors.As(err, &noSuchBucket):
		wrapped.Err = storage.ErrBucketNotFound
		return wrapped
	}

	// Check smithy API errors for error codes
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "NoSuchKey", "NotFound":
			wrapped.Err = storage.ErrNotFound
		case "NoSuchBucket":
			wrapped.Err = storage.ErrBucketNotFound
		case "AccessDenied", "Forbidden":
			wrapped.Err = storage.ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = storage.ErrInvalidCredentials
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = storage.ErrThrottled
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = storage.ErrStoreUnavailable
		}
		return wrapped
	}

	// Fallback: check error message for common cases
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "NoSuchKey") || strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "404"):
		wrapped.Err = storage.ErrNotFound
	case strings.Contains(errMsg, "NoSuchBucket"):
		wrapped.Err = storage.ErrBucketNotFound
	case strings.Contains(errMsg, "AccessDenied") || strings.Contains(errMsg, "Forbidden") || strings.Contains(errMsg, "403"):
		wrapped.Err = storage.ErrAccessDenied
	case strings.Contains(errMsg, "InvalidAccessKeyId") || strings.Contains(errMsg, "SignatureDoesNotMatch"):
		wrapped.Err = storage.ErrInvalidCredentials
	case strings.Contains(errMsg, "SlowDown") || strings.Contains(errMsg, "Throttling") || strings.Contains(errMsg, "429"):
		wrapped.Err = storage.ErrThrottled
	case strings.Contains(errMsg, "ServiceUnavailable") || strings.Contains(errMsg, "503"):
		wrapped.Err = storage.ErrStoreUnavailable
	}

	return wrapped
}

// cleanETag removes surrounding quotes from an ETag value.
// S3 returns ETags with quotes, e.g., "d41d8cd98f00b204e9800998ecf8427e".
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// resolveRegion applies the fallback default region after SDK config
// loading. The SDK has already resolved explicit config, environment, and
// profile sources; only the final empty case is handled here.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}

	// Only default for AWS S3 (no custom endpoint)
	if endpoint == "" {
		return DefaultAWSRegion
	}

	// S3-compatible: no default, endpoint may not need region
	return ""
}
