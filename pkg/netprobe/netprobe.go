// Package netprobe performs post-launch connectivity checks against a
// deployed game server.
//
// The probes consume the instance's public address obtained from the
// compute facade, not from the deploy status record, so a broken
// provisioning run cannot mask an unreachable host. Callers must report
// "instance not running" and "running but unreachable" as distinct
// conditions; this package only answers the latter.
package netprobe

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 5 * time.Second

// CheckHostReachable reports whether the host accepts a TCP connection on
// the given port within the timeout. ICMP would need raw sockets, so a TCP
// dial doubles as the reachability probe.
func CheckHostReachable(host string, port int, timeout time.Duration) bool {
	return CheckTCPPort(host, port, timeout)
}

// CheckTCPPort reports whether a TCP connection to host:port succeeds.
func CheckTCPPort(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// CheckUDPPort reports whether a datagram can be sent to host:port.
//
// UDP gives no delivery confirmation; a closed port only shows up if the
// host answers with ICMP unreachable, which most cloud firewalls swallow.
// This is a best-effort send-level check, not a listening check.
func CheckUDPPort(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("udp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	_, err = conn.Write([]byte{0})
	return err == nil
}

// CheckURL reports whether a GET against the URL returns a response.
// Any HTTP status counts as reachable; the detail string carries the
// status or the error for reporting.
func CheckURL(url string, timeout time.Duration) (bool, string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return false, err.Error()
	}
	defer func() { _ = resp.Body.Close() }()
	return true, resp.Status
}
