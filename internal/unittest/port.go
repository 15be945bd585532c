package unittest

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	portsMu       sync.Mutex
	assignedPorts = make(map[int]struct{})
)

// NewPort returns a free TCP port that has not been handed out previously in this test binary.
func NewPort(t *testing.T) int {
	t.Helper()

	portsMu.Lock()
	defer portsMu.Unlock()

	for {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err, "failed to find open port")

		port := l.Addr().(*net.TCPAddr).Port
		require.NoError(t, l.Close(), "failed to close port listener")

		if _, taken := assignedPorts[port]; taken {
			continue
		}
		assignedPorts[port] = struct{}{}
		return port
	}
}
