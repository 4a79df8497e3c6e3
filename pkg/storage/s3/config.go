// Package s3 implements the storage interfaces for AWS S3 and S3-compatible
// object stores.
package s3

// Config configures an S3 store.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
//
// Region handling:
//   - For AWS S3: If Region is empty and not set via environment/profile,
//     defaults to us-east-1 (standard AWS convention).
//   - For S3-compatible stores: when Endpoint is set, no default region is
//     applied.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string

	// Region is the AWS region.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	// Leave empty for AWS S3.
	Endpoint string

	// Profile is the AWS profile name to use from shared config.
	Profile string

	// AccessKeyID is an explicit access key. If set, SecretAccessKey must
	// also be set. Takes precedence over the default credential chain.
	AccessKeyID string

	// SecretAccessKey is an explicit secret key. Required if AccessKeyID is set.
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs (bucket in path, not subdomain).
	// Required for most S3-compatible stores.
	ForcePathStyle bool
}

// DefaultAWSRegion is the fallback region for AWS S3 when not specified.
const DefaultAWSRegion = "us-east-1"

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	}

	// If one explicit credential is set, both must be set
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
