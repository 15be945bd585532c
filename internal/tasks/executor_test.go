package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
)

type recordingMetrics struct {
	failed chan string
}

func (m *recordingMetrics) CriticalTaskFailed(name string) {
	m.failed <- name
}

// TestSpawnCritical_ErrorEscalates verifies that an error returned by a critical task
// reaches the critical handler with the task name attached.
func TestSpawnCritical_ErrorEscalates(t *testing.T) {
	errs := make(chan error, 1)
	metrics := &recordingMetrics{failed: make(chan string, 1)}
	executor := tasks.NewExecutor(
		context.Background(), unittest.Logger(t),
		tasks.WithCriticalHandler(tasks.ChannelHandler(errs)),
		tasks.WithMetrics(metrics),
	)

	boom := errors.New("stream broke")
	executor.SpawnCritical("feed", func(ctx context.Context) error {
		return boom
	})

	select {
	case err := <-errs:
		var critical *tasks.CriticalTaskError
		require.ErrorAs(t, err, &critical)
		require.Equal(t, "feed", critical.Name)
		require.ErrorIs(t, err, boom)
	case <-time.After(unittest.DefaultReadyDoneTimeout):
		require.Fail(t, "critical handler was not invoked")
	}
	require.Equal(t, "feed", <-metrics.failed)

	unittest.RequireCallMustReturnWithinTimeout(t, executor.Wait, time.Second, "executor did not drain")
	require.Zero(t, executor.Running())
}

// TestSpawnCritical_PanicEscalates verifies that a panicking critical task is escalated
// rather than crashing the process.
func TestSpawnCritical_PanicEscalates(t *testing.T) {
	errs := make(chan error, 1)
	executor := tasks.NewExecutor(context.Background(), unittest.Logger(t), tasks.WithCriticalHandler(tasks.ChannelHandler(errs)))

	executor.SpawnCritical("panicky", func(ctx context.Context) error {
		panic("unexpected")
	})

	select {
	case err := <-errs:
		require.Contains(t, err.Error(), "panicked")
	case <-time.After(unittest.DefaultReadyDoneTimeout):
		require.Fail(t, "critical handler was not invoked")
	}
}

// TestSpawnCritical_GracefulExit verifies that neither a nil return nor a cancellation
// error is treated as a fault.
func TestSpawnCritical_GracefulExit(t *testing.T) {
	errs := make(chan error, 2)
	ctx, cancel := context.WithCancel(context.Background())
	executor := tasks.NewExecutor(ctx, unittest.Logger(t), tasks.WithCriticalHandler(tasks.ChannelHandler(errs)))

	executor.SpawnCritical("nil-return", func(ctx context.Context) error {
		return nil
	})
	executor.SpawnCritical("until-cancel", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Eventually(t, func() bool { return executor.Running() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	unittest.RequireCallMustReturnWithinTimeout(t, executor.Wait, time.Second, "executor did not drain")
	require.Empty(t, errs)
}

// TestSpawn_FailureIsLocal verifies that ordinary tasks never reach the critical handler.
func TestSpawn_FailureIsLocal(t *testing.T) {
	errs := make(chan error, 1)
	executor := tasks.NewExecutor(context.Background(), unittest.Logger(t), tasks.WithCriticalHandler(tasks.ChannelHandler(errs)))

	executor.Spawn("ordinary", func(ctx context.Context) error {
		return errors.New("local failure")
	})

	unittest.RequireCallMustReturnWithinTimeout(t, executor.Wait, time.Second, "executor did not drain")
	require.Empty(t, errs)
}
