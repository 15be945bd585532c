package unittest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// DefaultReadyDoneTimeout is the default timeout for lifecycle and delivery checks.
const DefaultReadyDoneTimeout = 10 * time.Second

// RequireCallMustReturnWithinTimeout is a test helper that invokes the given function and fails the test if the invocation
// does not return prior to the given timeout.
func RequireCallMustReturnWithinTimeout(
	t *testing.T,
	f func(),
	timeout time.Duration,
	failureMsg string) {
	done := make(chan interface{})

	go func() {
		f()

		close(done)
	}()

	ChannelMustCloseWithinTimeout(
		t,
		done,
		timeout,
		fmt.Sprintf("function did not return on time: %s", failureMsg),
	)
}

// ChannelMustCloseWithinTimeout is a test helper that fails the test if the channel does not close prior to the given timeout.
func ChannelMustCloseWithinTimeout(
	t *testing.T,
	c <-chan interface{},
	timeout time.Duration,
	failureMsg string) {
	select {
	case <-c:
		return
	case <-time.After(timeout):
		require.Fail(t, fmt.Sprintf("channel did not close on time: %s", failureMsg))
	}
}

// RequireReceiveWithinTimeout returns the next value of c and fails the test if none arrives before timeout.
func RequireReceiveWithinTimeout[T any](t *testing.T, c <-chan T, timeout time.Duration, failureMsg string) T {
	t.Helper()
	select {
	case v := <-c:
		return v
	case <-time.After(timeout):
		require.FailNow(t, fmt.Sprintf("nothing received on time: %s", failureMsg))
	}
	var zero T
	return zero
}

// ReadyDoneAware is implemented by components with Ready and Done lifecycle channels.
type ReadyDoneAware interface {
	Ready() <-chan struct{}
	Done() <-chan struct{}
}

// RequireReady waits for the component to become ready within DefaultReadyDoneTimeout.
func RequireReady(t *testing.T, component ReadyDoneAware) {
	t.Helper()
	select {
	case <-component.Ready():
		return
	case <-time.After(DefaultReadyDoneTimeout):
		require.Fail(t, "component did not become ready within timeout")
	}
}

// RequireDone waits for the component to become done within DefaultReadyDoneTimeout.
func RequireDone(t *testing.T, component ReadyDoneAware) {
	t.Helper()
	select {
	case <-component.Done():
		return
	case <-time.After(DefaultReadyDoneTimeout):
		require.Fail(t, "component did not become done within timeout")
	}
}
