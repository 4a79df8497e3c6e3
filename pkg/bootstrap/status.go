package bootstrap

import (
	"encoding/json"
	"os"
	"time"
)

// StatusFilePath is the well-known location on the instance where the
// provisioning script reports its outcome. The file is overwritten, not
// appended, at each transition; the only externally observable record of
// how provisioning went.
const StatusFilePath = "/opt/assettoserver/deploy-status.json"

// Outcome is a terminal provisioning state. There is no durable
// in-progress state: a reader observing mid-run sees the previous record
// or none.
type Outcome string

const (
	StatusStarted Outcome = "started"
	StatusFailed  Outcome = "failed"
)

// statusTimeFormat is UTC second precision, YYYY-MM-DDTHH:MM:SSZ.
const statusTimeFormat = "2006-01-02T15:04:05Z"

// Status is the deploy status record written by the provisioning script.
type Status struct {
	Status               Outcome `json:"status"`
	Detail               string  `json:"detail"`
	Timestamp            string  `json:"timestamp"`
	ServerIP             string  `json:"server_ip"`
	ServerPort           int     `json:"server_port"`
	TCPPort              int     `json:"tcp_port"`
	HTTPPort             int     `json:"http_port"`
	AssettoServerVersion string  `json:"assettoserver_version"`
	PackID               string  `json:"pack_id"`
}

// NewStatus builds a status record for a terminal transition.
func NewStatus(outcome Outcome, detail string, spec ProvisionSpec, serverIP string, now time.Time) Status {
	return Status{
		Status:               outcome,
		Detail:               detail,
		Timestamp:            now.UTC().Format(statusTimeFormat),
		ServerIP:             serverIP,
		ServerPort:           spec.UDPPort,
		TCPPort:              spec.TCPPort,
		HTTPPort:             spec.HTTPPort,
		AssettoServerVersion: spec.Version,
		PackID:               PackID(spec.PackKey),
	}
}

// Write serializes the record to path, truncating any previous record so
// only the latest transition remains on disk.
func (s Status) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
