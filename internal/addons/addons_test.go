package addons_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/addons"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/cache"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
	"github.com/thep2p/go-eth-rpcnode/internal/server"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest/mocks"
)

type helloService struct{}

func (helloService) Hello() string { return "hello" }

// launch runs a default launch over fresh stubs and stops the servers on cleanup.
func launch(t *testing.T, a *addons.AddOns, stubs *unittest.NodeStubs) addons.Handle {
	handle, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, handle.Stop()) })
	return handle
}

func dial(t *testing.T, url string) *rpc.Client {
	client, err := rpc.DialHTTP(url)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func call(t *testing.T, client *rpc.Client, out interface{}, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), unittest.DefaultReadyDoneTimeout)
	defer cancel()
	return client.CallContext(ctx, out, method, args...)
}

// TestLaunch_ServesConfiguredModules verifies a default launch serves eth on http and the
// Engine API on the JWT protected auth server.
func TestLaunch_ServesConfiguredModules(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	handle := launch(t, addons.NewDefault(unittest.Logger(t)), stubs)

	var chainID hexutil.Big
	require.NoError(t, call(t, dial(t, handle.RPC().HTTPURL()), &chainID, "eth_chainId"))
	require.Equal(t, stubs.Config.Chain.ChainID, chainID.ToInt())

	var caps []string
	err := call(t, dial(t, handle.RPC().HTTPURL()), &caps, "engine_exchangeCapabilities", []string{})
	require.Error(t, err, "engine must not be served on the general transport")

	client, err := handle.Auth().Client(context.Background())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, call(t, client, &caps, "engine_exchangeCapabilities", []string{}))
	require.Equal(t, api.EngineCapabilities, caps)
	require.NoError(t, call(t, client, &chainID, "eth_chainId"), "eth is served on the auth server")

	require.NotNil(t, handle.Registry())
	require.NotNil(t, handle.EthAPI())
	require.Same(t, stubs.Beacon, handle.BeaconEngine())
	require.NotNil(t, handle.EngineEvents())
	require.Same(t, handle.RPC(), handle.Servers().RPC)
}

// TestLaunch_SpawnsCacheBeforeEthHandler verifies the cache feed is spawned as a critical task
// before the eth handler is built, and that this handler receives the cache.
func TestLaunch_SpawnsCacheBeforeEthHandler(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	spawner := mocks.NewMockSpawner(t)
	var order []string
	spawner.EXPECT().SpawnCritical(cache.FeedTaskName, mock.Anything).Run(func(string, tasks.Task) {
		order = append(order, "cache")
	}).Once()
	node := capability.NewComponents(stubs.Provider, stubs.Pool, stubs.Network, nil, nil, spawner, stubs.Payloads)

	ethBuilder := api.EthAPIBuilderFunc(func(ctx context.Context, ectx api.EthAPIContext) (api.EthAPIServer, error) {
		order = append(order, "eth")
		if ectx.Cache == nil {
			return nil, errors.New("missing cache")
		}
		return api.BasicEthAPIBuilder{}.BuildEthAPI(ctx, ectx)
	})
	validator := api.BasicEngineValidatorBuilder{}
	a := addons.New(unittest.Logger(t), ethBuilder, validator, api.NewBasicEngineAPIBuilder(unittest.Logger(t), validator))

	actx := stubs.AddOnsContext(t)
	actx.Node = node
	handle, err := a.Launch(context.Background(), actx)
	require.NoError(t, err)
	defer func() { require.NoError(t, handle.Stop()) }()
	require.Equal(t, []string{"cache", "eth"}, order)
}

// TestLaunch_ConstructionFailure verifies that a failing builder aborts before any server starts.
func TestLaunch_ConstructionFailure(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	boom := errors.New("boom")

	engineBuilder := mocks.NewMockEngineAPIBuilder(t)
	engineBuilder.EXPECT().BuildEngineAPI(mock.Anything, mock.Anything).Return(nil, boom).Once()
	rpcLauncher := mocks.NewMockRPCLauncher(t)
	authLauncher := mocks.NewMockAuthLauncher(t)
	hookRan := false
	a := addons.New(
		unittest.Logger(t),
		mocks.NewMockEthAPIBuilder(t),
		api.BasicEngineValidatorBuilder{},
		engineBuilder,
		addons.WithRPCLauncher(rpcLauncher),
		addons.WithAuthLauncher(authLauncher),
	).ExtendRPCModules(addons.ExtendModulesFunc(func(*addons.RPCContext) error {
		hookRan = true
		return nil
	})).OnRPCStarted(addons.OnRPCStartedFunc(func(*addons.RPCContext, server.Handles) error {
		hookRan = true
		return nil
	}))

	handle, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, addons.ErrConstruction)
	require.False(t, hookRan, "no hook runs after a construction failure")
	require.Nil(t, handle.RPC())
	require.Nil(t, handle.Auth())

	var launchErr *addons.LaunchError
	require.ErrorAs(t, err, &launchErr)
	require.Equal(t, addons.PhaseEngineAPIBuilt, launchErr.Phase)
}

// TestLaunch_EthBuilderFailure verifies that a failing eth builder aborts after the engine
// handler is built and before any server starts or hook runs.
func TestLaunch_EthBuilderFailure(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	boom := errors.New("boom")

	ethBuilder := mocks.NewMockEthAPIBuilder(t)
	ethBuilder.EXPECT().BuildEthAPI(mock.Anything, mock.Anything).Return(nil, boom).Once()
	hookRan := false
	validator := api.BasicEngineValidatorBuilder{}
	a := addons.New(
		unittest.Logger(t),
		ethBuilder,
		validator,
		api.NewBasicEngineAPIBuilder(unittest.Logger(t), validator),
		addons.WithRPCLauncher(mocks.NewMockRPCLauncher(t)),
		addons.WithAuthLauncher(mocks.NewMockAuthLauncher(t)),
	).ExtendRPCModules(addons.ExtendModulesFunc(func(*addons.RPCContext) error {
		hookRan = true
		return nil
	})).OnRPCStarted(addons.OnRPCStartedFunc(func(*addons.RPCContext, server.Handles) error {
		hookRan = true
		return nil
	}))

	handle, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, addons.ErrConstruction)
	require.False(t, hookRan, "no hook runs after a construction failure")
	require.Nil(t, handle.RPC())
	require.Nil(t, handle.Auth())

	var launchErr *addons.LaunchError
	require.ErrorAs(t, err, &launchErr)
	require.Equal(t, addons.PhaseEthAPIBuilt, launchErr.Phase)
}

// TestLaunch_RejectsInvalidCacheBounds verifies the cache bounds are checked before any
// handler is built, so creating the cache never fails once the launch is under way.
func TestLaunch_RejectsInvalidCacheBounds(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	stubs.Config.RPC.Eth.Cache.MaxBlocks = 0
	a := addons.New(
		unittest.Logger(t),
		mocks.NewMockEthAPIBuilder(t),
		api.BasicEngineValidatorBuilder{},
		mocks.NewMockEngineAPIBuilder(t),
	)

	_, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, addons.ErrConstruction)
	require.ErrorContains(t, err, "eth state cache bounds")

	var launchErr *addons.LaunchError
	require.ErrorAs(t, err, &launchErr)
	require.Equal(t, addons.PhaseInit, launchErr.Phase)
}

// TestLaunch_RejectsZeroSecret verifies the secret is checked before any component is built.
func TestLaunch_RejectsZeroSecret(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	a := addons.New(
		unittest.Logger(t),
		mocks.NewMockEthAPIBuilder(t),
		api.BasicEngineValidatorBuilder{},
		mocks.NewMockEngineAPIBuilder(t),
	)

	actx := stubs.AddOnsContext(t)
	actx.JWTSecret = [32]byte{}
	_, err := a.Launch(context.Background(), actx)
	require.ErrorIs(t, err, addons.ErrConstruction)
}

// TestLaunch_UnknownNamespace verifies that an unresolvable namespace fails assembly.
func TestLaunch_UnknownNamespace(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	stubs.Config.RPC.HTTP.Modules = []string{model.NamespaceEth, "bogus"}

	_, err := addons.NewDefault(unittest.Logger(t)).Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, addons.ErrAssembly)
	require.ErrorIs(t, err, modules.ErrUnknownNamespace)
	require.Contains(t, err.Error(), "bogus")
}

// TestLaunch_PreHookFailure verifies that a failing ExtendModules hook aborts before any server starts.
func TestLaunch_PreHookFailure(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	boom := errors.New("boom")
	rpcLauncher := mocks.NewMockRPCLauncher(t)
	authLauncher := mocks.NewMockAuthLauncher(t)

	a := addons.NewDefault(unittest.Logger(t), addons.WithRPCLauncher(rpcLauncher), addons.WithAuthLauncher(authLauncher)).
		ExtendRPCModules(addons.ExtendModulesFunc(func(*addons.RPCContext) error {
			return boom
		}))

	_, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, addons.ErrHook)
}

// TestLaunch_PostHookFailureKeepsServersRunning verifies a failing OnRPCStarted hook reports
// an error while both servers stay up and reachable through the returned handle.
func TestLaunch_PostHookFailureKeepsServersRunning(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	boom := errors.New("boom")
	var seen server.Handles

	a := addons.NewDefault(unittest.Logger(t)).OnRPCStarted(addons.OnRPCStartedFunc(func(_ *addons.RPCContext, handles server.Handles) error {
		seen = handles
		return boom
	}))

	handle, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, addons.ErrHook)
	require.NotNil(t, handle.Auth())
	require.Same(t, seen.Auth, handle.Auth())

	unittest.RequireListening(t, handle.Auth().LocalAddr().String())
	unittest.RequireListening(t, handle.RPC().HTTPLocalAddr().String())
	require.NoError(t, handle.Stop())
}

// TestLaunchWith_OverrideRunsBeforeHook verifies the caller override sees the assembled modules first
// and that namespaces added by either are served.
func TestLaunchWith_OverrideRunsBeforeHook(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	var order []string

	a := addons.NewDefault(unittest.Logger(t)).ExtendRPCModules(addons.ExtendModulesFunc(func(rctx *addons.RPCContext) error {
		order = append(order, "hook")
		require.True(t, rctx.Modules.HTTP.Has("override"), "override must run first")
		return rctx.Modules.MergeConfigured(rpc.API{Namespace: "hook", Service: helloService{}})
	}))
	ext := func(mods *modules.TransportModules, auth *modules.AuthModule, registry *modules.Registry) error {
		order = append(order, "override")
		require.NotNil(t, auth)
		require.NotNil(t, registry)
		return mods.MergeConfigured(rpc.API{Namespace: "override", Service: helloService{}})
	}

	handle, err := a.LaunchWith(context.Background(), stubs.AddOnsContext(t), ext)
	require.NoError(t, err)
	defer func() { require.NoError(t, handle.Stop()) }()
	require.Equal(t, []string{"override", "hook"}, order)

	client := dial(t, handle.RPC().HTTPURL())
	var out string
	require.NoError(t, call(t, client, &out, "override_hello"))
	require.Equal(t, "hello", out)
	require.NoError(t, call(t, client, &out, "hook_hello"))
}

// TestLaunch_ServesSnapshotOfModules verifies that modules changed after the servers started
// do not change what the servers serve.
func TestLaunch_ServesSnapshotOfModules(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	a := addons.NewDefault(unittest.Logger(t)).OnRPCStarted(addons.OnRPCStartedFunc(func(rctx *addons.RPCContext, _ server.Handles) error {
		return rctx.Modules.MergeConfigured(rpc.API{Namespace: "late", Service: helloService{}})
	}))
	handle := launch(t, a, stubs)

	var out string
	err := call(t, dial(t, handle.RPC().HTTPURL()), &out, "late_hello")
	require.Error(t, err)
}

// TestLaunch_BindFailureDoesNotStopOtherServer verifies that when the general transports fail to
// bind after the auth server started, the launch reports a bind error and the auth server keeps serving.
func TestLaunch_BindFailureDoesNotStopOtherServer(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	bindErr := errors.New("address in use")

	rpcLauncher := mocks.NewMockRPCLauncher(t)
	rpcLauncher.EXPECT().Start(mock.Anything, mock.Anything).RunAndReturn(func(context.Context, *modules.TransportModules) (*server.RPCServerHandle, error) {
		time.Sleep(100 * time.Millisecond)
		return nil, bindErr
	}).Once()

	started := make(chan *server.AuthServerHandle, 1)
	authServer := server.NewAuthServerLauncher(unittest.Logger(t))
	authLauncher := mocks.NewMockAuthLauncher(t)
	authLauncher.EXPECT().Start(mock.Anything, mock.Anything, mock.Anything).RunAndReturn(
		func(ctx context.Context, module *modules.AuthModule, cfg model.AuthServerConfig) (*server.AuthServerHandle, error) {
			handle, err := authServer.Start(ctx, module, cfg)
			if err == nil {
				started <- handle
			}
			return handle, err
		}).Once()

	a := addons.NewDefault(unittest.Logger(t), addons.WithRPCLauncher(rpcLauncher), addons.WithAuthLauncher(authLauncher))
	handle, err := a.Launch(context.Background(), stubs.AddOnsContext(t))
	require.ErrorIs(t, err, bindErr)
	require.ErrorIs(t, err, addons.ErrBind)
	require.Nil(t, handle.Auth())

	auth := unittest.RequireReceiveWithinTimeout(t, started, unittest.DefaultReadyDoneTimeout, "auth server did not start")
	defer func() { require.NoError(t, auth.Stop()) }()
	unittest.RequireListening(t, auth.LocalAddr().String())

	client, err := auth.Client(context.Background())
	require.NoError(t, err)
	defer client.Close()
	var caps []string
	require.NoError(t, call(t, client, &caps, "engine_exchangeCapabilities", []string{}))
}

// TestLaunch_FirstBindFailureReturnsWithoutWaiting verifies that a failing start is reported
// while the other start is still in flight.
func TestLaunch_FirstBindFailureReturnsWithoutWaiting(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	bindErr := errors.New("address in use")

	rpcLauncher := mocks.NewMockRPCLauncher(t)
	rpcLauncher.EXPECT().Start(mock.Anything, mock.Anything).Return(nil, bindErr).Once()

	release := make(chan struct{})
	returned := make(chan interface{})
	authLauncher := mocks.NewMockAuthLauncher(t)
	authLauncher.EXPECT().Start(mock.Anything, mock.Anything, mock.Anything).RunAndReturn(
		func(context.Context, *modules.AuthModule, model.AuthServerConfig) (*server.AuthServerHandle, error) {
			defer close(returned)
			<-release
			return nil, errors.New("late failure")
		}).Once()

	a := addons.NewDefault(unittest.Logger(t), addons.WithRPCLauncher(rpcLauncher), addons.WithAuthLauncher(authLauncher))
	actx := stubs.AddOnsContext(t)
	var err error
	unittest.RequireCallMustReturnWithinTimeout(t, func() {
		_, err = a.Launch(context.Background(), actx)
	}, unittest.DefaultReadyDoneTimeout, "launch waited for the pending start")
	require.ErrorIs(t, err, bindErr)

	close(release)
	unittest.ChannelMustCloseWithinTimeout(t, returned, unittest.DefaultReadyDoneTimeout, "pending start did not return")
}

// TestLaunch_DevSigners verifies dev mode injects the development accounts exactly once, before
// the pre-launch hook observes the registry the handle exposes.
func TestLaunch_DevSigners(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	stubs.Config.Dev.Enabled = true
	var hookRegistry *modules.Registry
	hookAccounts := 0

	a := addons.NewDefault(unittest.Logger(t)).ExtendRPCModules(addons.ExtendModulesFunc(func(rctx *addons.RPCContext) error {
		hookRegistry = rctx.Registry
		hookAccounts = len(rctx.Registry.EthAPI().Accounts())
		return nil
	}))
	handle := launch(t, a, stubs)

	require.Equal(t, api.DevSignerCount, hookAccounts, "the hook observes injected signers")
	require.Same(t, hookRegistry, handle.Registry())
	require.Same(t, hookRegistry.EthAPI(), handle.EthAPI())
	require.Len(t, handle.EthAPI().Accounts(), api.DevSignerCount)
	require.Error(t, handle.EthAPI().AddDevSigners())

	var accounts []string
	require.NoError(t, call(t, dial(t, handle.RPC().HTTPURL()), &accounts, "eth_accounts"))
	require.Len(t, accounts, api.DevSignerCount)
}

func TestLaunch_NoDevSignersOutsideDevMode(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	handle := launch(t, addons.NewDefault(unittest.Logger(t)), stubs)
	require.Empty(t, handle.EthAPI().Accounts())
}

// TestLaunch_PostHookRunsOnceWithBothHandles verifies the post-launch hook sees both running servers.
func TestLaunch_PostHookRunsOnceWithBothHandles(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	calls := 0
	var seen server.Handles

	a := addons.NewDefault(unittest.Logger(t)).OnRPCStarted(addons.OnRPCStartedFunc(func(_ *addons.RPCContext, handles server.Handles) error {
		calls++
		seen = handles
		return nil
	}))
	handle := launch(t, a, stubs)

	require.Equal(t, 1, calls)
	require.NotNil(t, seen.RPC)
	require.NotNil(t, seen.Auth)
	require.Same(t, seen.RPC, handle.RPC())
	require.Same(t, seen.Auth, handle.Auth())
}

// TestLaunch_CriticalCacheFailureEscalates verifies a failing canonical state stream is escalated
// to the critical handler while the launch itself succeeded.
func TestLaunch_CriticalCacheFailureEscalates(t *testing.T) {
	errs := make(chan error, 1)
	stubs := unittest.NodeFixture(t, tasks.WithCriticalHandler(tasks.ChannelHandler(errs)))
	launch(t, addons.NewDefault(unittest.Logger(t)), stubs)

	<-stubs.Provider.Subscribed()
	streamErr := errors.New("stream broken")
	stubs.Provider.Fail(streamErr)

	err := unittest.RequireReceiveWithinTimeout(t, errs, unittest.DefaultReadyDoneTimeout, "critical failure not escalated")
	var critical *tasks.CriticalTaskError
	require.ErrorAs(t, err, &critical)
	require.Equal(t, cache.FeedTaskName, critical.Name)
	require.ErrorIs(t, err, streamErr)
}

// TestLaunch_PhaseMetrics verifies every phase and the launch outcome are reported.
func TestLaunch_PhaseMetrics(t *testing.T) {
	stubs := unittest.NodeFixture(t)
	m := &recordingMetrics{}
	launch(t, addons.NewDefault(unittest.Logger(t), addons.WithMetrics(m)), stubs)

	require.Equal(t, []string{
		addons.PhaseInit.String(),
		addons.PhaseEngineAPIBuilt.String(),
		addons.PhaseCacheSpawned.String(),
		addons.PhaseEthAPIBuilt.String(),
		addons.PhaseModulesAssembled.String(),
		addons.PhasePreHookApplied.String(),
		addons.PhaseServersLaunching.String(),
		addons.PhaseHandlesAssembled.String(),
		addons.PhasePostHookApplied.String(),
	}, m.phases)
	require.Equal(t, []bool{true}, m.outcomes)
}

type recordingMetrics struct {
	phases   []string
	outcomes []bool
}

func (m *recordingMetrics) PhaseCompleted(phase string, _ time.Duration) { m.phases = append(m.phases, phase) }
func (m *recordingMetrics) LaunchFinished(success bool, _ string)        { m.outcomes = append(m.outcomes, success) }
func (m *recordingMetrics) CacheUpdated(bool, int)                       {}
