package metrics_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/metrics"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.PhaseCompleted("EngineAPIBuilt", time.Millisecond)
	c.LaunchFinished(true, "Done")
	c.LaunchFinished(false, "ServersLaunching")
	c.CacheUpdated(false, 3)
	c.CacheUpdated(true, 1)
	c.CriticalTaskFailed("cache canonical blocks task")

	count, err := testutil.GatherAndCount(reg,
		"rpcnode_launch_phase_duration_seconds",
		"rpcnode_launch_total",
		"rpcnode_eth_state_cache_updates_total",
		"rpcnode_eth_state_cache_committed_blocks_total",
		"rpcnode_tasks_critical_failures_total",
	)
	require.NoError(t, err)
	// one phase, two launch results, two update kinds, one counter, one task
	require.Equal(t, 7, count)
}

func TestServer_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).CriticalTaskFailed("x")

	srv, err := metrics.NewServer(context.Background(), unittest.Logger(t), "127.0.0.1:0", reg)
	require.NoError(t, err)
	defer func() { require.NoError(t, srv.Stop()) }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `rpcnode_tasks_critical_failures_total{task="x"} 1`)
}
