// Package ec2 implements the compute backend on AWS EC2.
package ec2

// Config configures an EC2 backend.
//
// Credentials come from the AWS SDK v2 default chain; Region and Profile
// narrow it the same way the S3 store config does.
type Config struct {
	// Region is the AWS region. Defaults to us-east-1 when the SDK
	// resolves nothing from environment or profile.
	Region string

	// Profile is the AWS profile name to use from shared config.
	Profile string

	// UDPPort, TCPPort and HTTPPort are the game server ports opened in
	// the security group alongside SSH.
	UDPPort  int
	TCPPort  int
	HTTPPort int
}

// DefaultAWSRegion is the fallback region when not specified.
const DefaultAWSRegion = "us-east-1"

// Ubuntu 22.04 LTS amd64 server images published by Canonical.
const (
	ubuntuImageNamePattern = "ubuntu/images/hvm-ssd/ubuntu-jammy-22.04-amd64-server-*"
	canonicalOwnerID       = "099720109477"
)

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.UDPPort <= 0 || c.TCPPort <= 0 || c.HTTPPort <= 0 {
		return &ConfigError{Field: "Ports", Message: "udp, tcp and http ports are required"}
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
	return "ec2 config: " + e.Field + ": " + e.Message
}
