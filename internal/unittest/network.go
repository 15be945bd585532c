package unittest

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

// RequireRpcReadyWithinTimeout fails the test if the http endpoint does not answer net_version
// with 200 OK within timeout.
func RequireRpcReadyWithinTimeout(t *testing.T, ctx context.Context, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	body := []byte(`{"jsonrpc":"2.0","method":"net_version","params":[],"id":1}`)

	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_, _ = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("RPC not ready on %s within %s", url, timeout)
}

// RequirePortClosesWithinTimeout fails the test if addr still accepts connections after timeout.
func RequirePortClosesWithinTimeout(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return // port is closed
		}
		_ = conn.Close()
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("%s did not close within %s", addr, timeout)
}

// RequireListening fails the test if addr does not accept a tcp connection.
func RequireListening(t *testing.T, addr string) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("%s is not listening: %v", addr, err)
	}
	_ = conn.Close()
}
