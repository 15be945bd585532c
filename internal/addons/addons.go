// Package addons launches the RPC add-ons of a node: the eth and engine handlers, the
// state cache feeding them, the module sets of every transport, and both servers.
//
// A launch runs its phases in a fixed order on the caller's goroutine. Only the two
// servers start concurrently. Nothing is retried and nothing started by a failed launch
// is torn down.
package addons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/cache"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/metrics"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
	"github.com/thep2p/go-eth-rpcnode/internal/server"
)

// Metrics receives launch and cache notifications.
type Metrics interface {
	cache.Metrics
	PhaseCompleted(phase string, duration time.Duration)
	LaunchFinished(success bool, phase string)
}

// Option configures an AddOns.
type Option func(*AddOns)

// WithRPCLauncher replaces the default launcher of the general transports.
func WithRPCLauncher(l server.RPCLauncher) Option {
	return func(a *AddOns) {
		a.rpcLauncher = l
	}
}

// WithAuthLauncher replaces the default launcher of the auth server.
func WithAuthLauncher(l server.AuthLauncher) Option {
	return func(a *AddOns) {
		a.authLauncher = l
	}
}

// WithMetrics reports launch and cache metrics to m.
func WithMetrics(m Metrics) Option {
	return func(a *AddOns) {
		a.metrics = m
	}
}

// AddOns composes the pluggable builders and hooks of the RPC add-ons.
type AddOns struct {
	logger           zerolog.Logger
	ethBuilder       api.EthAPIBuilder
	validatorBuilder api.EngineValidatorBuilder
	engineBuilder    api.EngineAPIBuilder
	hooks            Hooks
	rpcLauncher      server.RPCLauncher
	authLauncher     server.AuthLauncher
	metrics          Metrics
}

// New creates add-ons from the given builders. validatorBuilder is exposed through
// ValidatorBuilder for engine builders that need it; engineBuilder alone decides how
// the engine handler is built.
func New(
	logger zerolog.Logger,
	ethBuilder api.EthAPIBuilder,
	validatorBuilder api.EngineValidatorBuilder,
	engineBuilder api.EngineAPIBuilder,
	opts ...Option,
) *AddOns {
	a := &AddOns{
		logger:           logger.With().Str("component", "rpc-add-ons").Logger(),
		ethBuilder:       ethBuilder,
		validatorBuilder: validatorBuilder,
		engineBuilder:    engineBuilder,
		hooks:            DefaultHooks(),
		metrics:          metrics.NewNoopCollector(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewDefault creates add-ons from the basic builders.
func NewDefault(logger zerolog.Logger, opts ...Option) *AddOns {
	validator := api.BasicEngineValidatorBuilder{}
	return New(logger, api.BasicEthAPIBuilder{}, validator, api.NewBasicEngineAPIBuilder(logger, validator), opts...)
}

// ValidatorBuilder returns the engine validator builder the add-ons were created with.
func (a *AddOns) ValidatorBuilder() api.EngineValidatorBuilder {
	return a.validatorBuilder
}

// Hooks returns the registered hooks for in-place changes.
func (a *AddOns) Hooks() *Hooks {
	return &a.hooks
}

// OnRPCStarted registers the post-launch hook, replacing the previous one.
func (a *AddOns) OnRPCStarted(hook OnRPCStarted) *AddOns {
	a.hooks.OnRPCStarted = hook
	return a
}

// ExtendRPCModules registers the pre-launch hook, replacing the previous one.
func (a *AddOns) ExtendRPCModules(hook ExtendModules) *AddOns {
	a.hooks.ExtendModules = hook
	return a
}

// Launch builds and starts the RPC add-ons. See LaunchWith.
func (a *AddOns) Launch(ctx context.Context, actx *capability.AddOnsContext) (Handle, error) {
	return a.LaunchWith(ctx, actx, nil)
}

// LaunchWith builds and starts the RPC add-ons, applying ext to the assembled modules
// before the registered ExtendModules hook.
//
// Errors are *LaunchError values naming the failed phase. A failure of the post-launch
// hook is returned together with the handle of the running servers; every other failure
// returns a zero Handle. Background work spawned before a failure keeps running, and
// when one server fails to start the other one is neither awaited nor stopped.
func (a *AddOns) LaunchWith(ctx context.Context, actx *capability.AddOnsContext, ext ExtendFunc) (Handle, error) {
	l := &launch{
		addons: a,
		logger: a.logger.With().Str("launch_id", uuid.NewString()).Logger(),
		phase:  PhaseInit,
		since:  time.Now(),
	}
	handle, err := l.run(ctx, actx, ext)
	if err != nil {
		a.metrics.LaunchFinished(false, l.phase.String())
		l.logger.Error().Err(err).Str("phase", l.phase.String()).Msg("RPC add-ons launch failed")
		return handle, &LaunchError{Phase: l.phase, Err: err}
	}
	a.metrics.LaunchFinished(true, PhaseDone.String())
	return handle, nil
}

// launch tracks the progress of one LaunchWith call.
type launch struct {
	addons *AddOns
	logger zerolog.Logger
	phase  Phase
	since  time.Time
}

// enter records the completion of the current phase and moves to next.
func (l *launch) enter(next Phase) {
	now := time.Now()
	l.addons.metrics.PhaseCompleted(l.phase.String(), now.Sub(l.since))
	l.phase = next
	l.since = now
}

func (l *launch) run(ctx context.Context, actx *capability.AddOnsContext, ext ExtendFunc) (Handle, error) {
	a := l.addons

	if err := actx.Validate(); err != nil {
		return Handle{}, err
	}
	authCfg, err := actx.Config.AuthServerConfig(actx.JWTSecret)
	if err != nil {
		return Handle{}, fmt.Errorf("derive auth server config: %w", err)
	}

	l.enter(PhaseEngineAPIBuilt)
	engineAPI, err := a.engineBuilder.BuildEngineAPI(ctx, actx)
	if err != nil {
		return Handle{}, fmt.Errorf("build engine api: %w", err)
	}
	l.logger.Info().Msg("Engine API handler initialized")

	l.enter(PhaseCacheSpawned)
	stateCache, err := cache.NewEthStateCache(actx.Config.RPC.Eth.Cache, cache.WithMetrics(a.metrics))
	if err != nil {
		return Handle{}, fmt.Errorf("create eth state cache: %w", err)
	}
	provider := actx.Node.Provider()
	actx.Node.TaskExecutor().SpawnCritical(cache.FeedTaskName, func(ctx context.Context) error {
		return cache.FeedCanonicalBlocks(ctx, stateCache, provider)
	})

	l.enter(PhaseEthAPIBuilt)
	ethAPI, err := a.ethBuilder.BuildEthAPI(ctx, api.EthAPIContext{
		Node:   actx.Node,
		Config: actx.Config.RPC.Eth,
		Cache:  stateCache,
	})
	if err != nil {
		return Handle{}, fmt.Errorf("build eth api: %w", err)
	}

	l.enter(PhaseModulesAssembled)
	moduleCfg := actx.Config.ModuleConfig()
	l.logger.Debug().
		Strs("http", moduleCfg.HTTP).
		Strs("ws", moduleCfg.WS).
		Strs("ipc", moduleCfg.IPC).
		Msg("Using RPC module config")
	transports, authModule, registry, err := modules.Assemble(actx.Node, moduleCfg, model.Web3ClientVersionString(), engineAPI, ethAPI)
	if err != nil {
		return Handle{}, fmt.Errorf("assemble modules: %w", err)
	}
	if actx.Config.Dev.Enabled {
		if err := registry.EthAPI().AddDevSigners(); err != nil {
			return Handle{}, fmt.Errorf("add dev signers: %w", err)
		}
		l.logger.Info().Int("accounts", len(registry.EthAPI().Accounts())).Msg("development signers added")
	}

	l.enter(PhasePreHookApplied)
	rctx := &RPCContext{
		actx:       actx,
		Modules:    transports,
		AuthModule: authModule,
		Registry:   registry,
	}
	if ext != nil {
		if err := ext(rctx.Modules, rctx.AuthModule, rctx.Registry); err != nil {
			return Handle{}, fmt.Errorf("extend modules override: %w", err)
		}
	}
	if err := a.hooks.ExtendModules.ExtendModules(rctx); err != nil {
		return Handle{}, fmt.Errorf("extend modules hook: %w", err)
	}

	l.enter(PhaseServersLaunching)
	handles, err := l.startServers(ctx, actx, rctx.Modules.Clone(), rctx.AuthModule.Clone(), authCfg)
	if err != nil {
		return Handle{}, err
	}

	l.enter(PhaseHandlesAssembled)
	handle := Handle{
		servers:      handles,
		registry:     rctx.Registry,
		engineEvents: actx.EngineEvents,
		beaconEngine: actx.BeaconEngine,
	}

	l.enter(PhasePostHookApplied)
	if err := a.hooks.OnRPCStarted.OnRPCStarted(rctx, handles); err != nil {
		return handle, fmt.Errorf("rpc started hook: %w", err)
	}

	l.enter(PhaseDone)
	l.logger.Info().
		Str("http", handles.RPC.HTTPURL()).
		Str("ws", handles.RPC.WSURL()).
		Str("ipc", handles.RPC.IPCEndpoint()).
		Str("auth", handles.Auth.HTTPURL()).
		Msg("RPC add-ons launched")
	return handle, nil
}

type rpcStarted struct {
	handle *server.RPCServerHandle
	err    error
}

type authStarted struct {
	handle *server.AuthServerHandle
	err    error
}

// startServers starts both servers concurrently and returns on the first failure. The
// start still in flight reports into a buffered channel nobody reads, so its goroutine
// exits and a server it manages to bind keeps running unreferenced.
func (l *launch) startServers(
	ctx context.Context,
	actx *capability.AddOnsContext,
	transports *modules.TransportModules,
	authModule *modules.AuthModule,
	authCfg model.AuthServerConfig,
) (server.Handles, error) {
	rpcLauncher := l.addons.rpcLauncher
	if rpcLauncher == nil {
		rpcLauncher = server.NewRPCServerLauncher(l.logger, actx.Config.RPCServerConfig())
	}
	authLauncher := l.addons.authLauncher
	if authLauncher == nil {
		authLauncher = server.NewAuthServerLauncher(l.logger)
	}

	rpcCh := make(chan rpcStarted, 1)
	authCh := make(chan authStarted, 1)
	go func() {
		handle, err := rpcLauncher.Start(ctx, transports)
		rpcCh <- rpcStarted{handle: handle, err: err}
	}()
	go func() {
		handle, err := authLauncher.Start(ctx, authModule, authCfg)
		authCh <- authStarted{handle: handle, err: err}
	}()

	var handles server.Handles
	for pending := 2; pending > 0; pending-- {
		select {
		case started := <-rpcCh:
			if started.err != nil {
				return server.Handles{}, fmt.Errorf("start rpc server: %w", started.err)
			}
			handles.RPC = started.handle
		case started := <-authCh:
			if started.err != nil {
				return server.Handles{}, fmt.Errorf("start auth server: %w", started.err)
			}
			handles.Auth = started.handle
		}
	}
	return handles, nil
}
