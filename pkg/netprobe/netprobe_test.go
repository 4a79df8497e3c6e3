package netprobe

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeTimeout = 2 * time.Second

func listenTCP(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestCheckTCPPortOpen(t *testing.T) {
	host, port := listenTCP(t)

	assert.True(t, CheckTCPPort(host, port, probeTimeout))
	assert.True(t, CheckHostReachable(host, port, probeTimeout))
}

func TestCheckTCPPortClosed(t *testing.T) {
	// Grab a free port, then close the listener so nothing accepts.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	assert.False(t, CheckTCPPort("127.0.0.1", port, probeTimeout))
}

func TestCheckUDPPortSend(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	_, portStr, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	// UDP has no handshake; a successful send is all this check claims.
	assert.True(t, CheckUDPPort("127.0.0.1", port, probeTimeout))
}

func TestCheckUDPPortBadHost(t *testing.T) {
	assert.False(t, CheckUDPPort("invalid.host.invalid", 9600, probeTimeout))
}

func TestCheckURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ok, detail := CheckURL(srv.URL, probeTimeout)
	assert.True(t, ok)
	assert.Contains(t, detail, "200")
}

func TestCheckURLAnyStatusIsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	// A 404 still proves something is listening and speaking HTTP.
	ok, detail := CheckURL(srv.URL, probeTimeout)
	assert.True(t, ok)
	assert.Contains(t, detail, "404")
}

func TestCheckURLUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	ok, detail := CheckURL(url, probeTimeout)
	assert.False(t, ok)
	assert.NotEmpty(t, detail)
}
