// Package output provides JSONL output for deployment results.
//
// Output is structured as typed record envelopes. Each line is a
// self-contained JSON object that can be parsed independently, so other
// tooling can consume deploy and status results without scraping logs.
package output

import (
	"encoding/json"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: paddock.<type>.v<version>
const (
	// TypeDeploy identifies deployment result records.
	TypeDeploy = "paddock.deploy.v1"

	// TypeStatus identifies instance status records.
	TypeStatus = "paddock.status.v1"

	// TypeProbe identifies connectivity probe records.
	TypeProbe = "paddock.probe.v1"

	// TypeError identifies error records.
	TypeError = "paddock.error.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "paddock.deploy.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this CLI invocation.
	JobID string `json:"job_id"`

	// Data is the type-specific payload.
	Data json.RawMessage `json:"data"`
}

// DeployRecord reports a completed launch.
type DeployRecord struct {
	InstanceID string `json:"instance_id"`
	PublicIP   string `json:"public_ip,omitempty"`
	ScriptKey  string `json:"script_key"`
	PackKey    string `json:"pack_key"`
	Version    string `json:"version"`
}

// StatusRecord reports instance state and addresses.
type StatusRecord struct {
	InstanceID   string `json:"instance_id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	InstanceType string `json:"instance_type"`
	PublicIP     string `json:"public_ip,omitempty"`
	PrivateIP    string `json:"private_ip,omitempty"`
	LaunchTime   string `json:"launch_time,omitempty"`
}

// ProbeRecord reports one connectivity check result.
type ProbeRecord struct {
	Check  string `json:"check"`
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// ErrorRecord reports a failure.
type ErrorRecord struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error code constants for ErrorRecord.
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeAccessDenied = "access_denied"
	ErrCodeInternal     = "internal"
)
