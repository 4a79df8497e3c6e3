package bootstrap

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// ProvisionSpec parameterizes the provisioning script that runs on the
// instance after the minimal first-boot script hands off to it.
type ProvisionSpec struct {
	// Bucket is the object-store bucket holding the deployable pack.
	Bucket string

	// PackKey is the object key of the pack archive.
	PackKey string

	// Version is the AssettoServer release to install, e.g. "v0.0.55-pre31".
	Version string

	// UDPPort, TCPPort and HTTPPort are the game server's well-known ports.
	UDPPort  int
	TCPPort  int
	HTTPPort int
}

// Validate checks that every template parameter is present.
func (s ProvisionSpec) Validate() error {
	switch {
	case s.Bucket == "":
		return fmt.Errorf("provision spec: bucket is required")
	case s.PackKey == "":
		return fmt.Errorf("provision spec: pack key is required")
	case s.Version == "":
		return fmt.Errorf("provision spec: version is required")
	case s.UDPPort <= 0 || s.TCPPort <= 0 || s.HTTPPort <= 0:
		return fmt.Errorf("provision spec: udp, tcp and http ports are required")
	}
	return nil
}

var packIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// PackID derives a safe identifier from a pack object key: the basename
// with archive suffixes stripped and unsafe characters replaced.
func PackID(packKey string) string {
	base := packKey
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".tar.gz")
	base = strings.TrimSuffix(base, ".zip")
	return packIDUnsafe.ReplaceAllString(base, "_")
}

// provisionTemplate is the full provisioning script. Ordered steps:
// dependency install, pack download with bounded retry and doubling
// backoff, binary download (no retry: a miss means a bad version, not a
// blip), extraction, preparation tool, systemd unit, service start,
// liveness pause, active check. Every terminal branch writes the deploy
// status record; failures also emit recent service logs before exiting
// non-zero.
var provisionTemplate = template.Must(template.New("provision").Parse(`#!/bin/bash
set -euo pipefail

DEPLOY_LOG="/var/log/assettoserver-deploy.log"
STATUS_FILE="{{.StatusFile}}"
exec > >(tee -a "$DEPLOY_LOG") 2>&1

log() {
    echo "[$(date '+%Y-%m-%d %H:%M:%S')] $1"
}

write_status() {
    local status=$1
    local detail=${2:-""}
    local timestamp=$(date -u +%Y-%m-%dT%H:%M:%SZ)
    local public_ip=$(curl -s http://169.254.169.254/latest/meta-data/public-ipv4 || echo "unknown")

    mkdir -p /opt/assettoserver
    cat > "$STATUS_FILE" << STATUSEOF
{
  "status": "$status",
  "detail": "$detail",
  "timestamp": "$timestamp",
  "server_ip": "$public_ip",
  "server_port": {{.UDPPort}},
  "tcp_port": {{.TCPPort}},
  "http_port": {{.HTTPPort}},
  "assettoserver_version": "{{.Version}}",
  "pack_id": "{{.PackID}}"
}
STATUSEOF
}

log "=== AssettoServer deployment started ==="
log "Pack: {{.PackKey}}"
log "AssettoServer version: {{.Version}}"

log "Installing dependencies..."
export DEBIAN_FRONTEND=noninteractive
apt-get update -qq
apt-get install -y -qq ca-certificates curl awscli python3 wget tar
log "Dependencies installed"

ASSETTOSERVER_DIR="/opt/assettoserver"
mkdir -p "$ASSETTOSERVER_DIR"
cd "$ASSETTOSERVER_DIR"

log "Downloading server pack from s3://{{.Bucket}}/{{.PackKey}}..."
MAX_RETRIES={{.MaxAttempts}}
RETRY_DELAY={{.InitialDelaySeconds}}
for attempt in $(seq 1 $MAX_RETRIES); do
    if aws s3 cp "s3://{{.Bucket}}/{{.PackKey}}" ./server-pack.tar.gz; then
        log "Pack downloaded"
        break
    fi
    if [ $attempt -eq $MAX_RETRIES ]; then
        log "ERROR: failed to download pack after $MAX_RETRIES attempts"
        write_status "failed" "Failed to download pack from object store"
        exit 1
    fi
    log "Download attempt $attempt failed, retrying in $RETRY_DELAY seconds..."
    sleep $RETRY_DELAY
    RETRY_DELAY=$((RETRY_DELAY * 2))
done

log "Downloading AssettoServer binary..."
BINARY_URL="https://github.com/compujuckel/AssettoServer/releases/download/{{.Version}}/assetto-server-linux-x64.tar.gz"
if ! wget -q "$BINARY_URL" -O assettoserver-binary.tar.gz; then
    log "ERROR: failed to download AssettoServer binary from $BINARY_URL"
    write_status "failed" "Failed to download AssettoServer binary"
    exit 1
fi
log "Binary downloaded"

tar -xzf assettoserver-binary.tar.gz
rm assettoserver-binary.tar.gz
chmod +x AssettoServer
log "Binary extracted"

log "Downloading preparation tool..."
if ! aws s3 cp "s3://{{.Bucket}}/tools/assetto_server_prepare.py" ./assetto_server_prepare.py; then
    log "ERROR: failed to download preparation tool"
    write_status "failed" "Failed to download preparation tool"
    exit 1
fi
chmod +x ./assetto_server_prepare.py

log "Preparing server configuration..."
if ! python3 ./assetto_server_prepare.py ./server-pack.tar.gz "$ASSETTOSERVER_DIR"; then
    log "ERROR: failed to prepare server data"
    write_status "failed" "Failed to prepare server data structure"
    exit 1
fi
log "Server data prepared"

cat > /etc/systemd/system/assettoserver.service << 'EOF'
[Unit]
Description=AssettoServer
After=network.target

[Service]
Type=simple
User=root
WorkingDirectory=/opt/assettoserver
ExecStart=/opt/assettoserver/AssettoServer
Restart=on-failure
RestartSec=10
StandardOutput=append:/var/log/assettoserver-stdout.log
StandardError=append:/var/log/assettoserver-stderr.log

[Install]
WantedBy=multi-user.target
EOF

log "Starting AssettoServer..."
systemctl daemon-reload
systemctl enable assettoserver
systemctl start assettoserver

log "Waiting for server to start..."
sleep 10

if systemctl is-active --quiet assettoserver; then
    log "AssettoServer is running"
    write_status "started" "AssettoServer deployment successful"
    PUBLIC_IP=$(curl -s http://169.254.169.254/latest/meta-data/public-ipv4 || echo "unknown")
    log "Server available at $PUBLIC_IP:{{.UDPPort}} (UDP)"
    log "HTTP interface at http://$PUBLIC_IP:{{.HTTPPort}}"
else
    log "ERROR: AssettoServer failed to start"
    systemctl status assettoserver --no-pager
    journalctl -u assettoserver -n 50 --no-pager
    write_status "failed" "AssettoServer failed to start"
    exit 1
fi
`))

type provisionData struct {
	ProvisionSpec
	PackID              string
	StatusFile          string
	MaxAttempts         int
	InitialDelaySeconds int
}

// Render emits the provisioning script for the spec. The retry schedule
// embedded in the script is the one NextAttempt models: MaxAttempts tries,
// initial delay doubling after each failure.
func (s ProvisionSpec) Render() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	var buf strings.Builder
	err := provisionTemplate.Execute(&buf, provisionData{
		ProvisionSpec:       s,
		PackID:              PackID(s.PackKey),
		StatusFile:          StatusFilePath,
		MaxAttempts:         PackDownloadMaxAttempts,
		InitialDelaySeconds: int(PackDownloadInitialDelay.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("render provision script: %w", err)
	}
	return buf.String(), nil
}
