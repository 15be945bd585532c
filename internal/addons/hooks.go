package addons

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
	"github.com/thep2p/go-eth-rpcnode/internal/server"
)

// RPCContext is handed to the hooks of a launch. Modules, AuthModule and Registry may be
// changed freely by the pre-launch hooks; the servers are started from the values these
// fields hold once the hooks return.
type RPCContext struct {
	actx *capability.AddOnsContext

	Modules    *modules.TransportModules
	AuthModule *modules.AuthModule
	Registry   *modules.Registry
}

func (c *RPCContext) Config() *model.NodeConfig                             { return c.actx.Config }
func (c *RPCContext) Node() capability.Node                                 { return c.actx.Node }
func (c *RPCContext) Provider() capability.Provider                         { return c.actx.Node.Provider() }
func (c *RPCContext) Pool() capability.Pool                                 { return c.actx.Node.Pool() }
func (c *RPCContext) Network() capability.Network                           { return c.actx.Node.Network() }
func (c *RPCContext) PayloadBuilderHandle() capability.PayloadBuilderHandle { return c.actx.Node.PayloadBuilderHandle() }
func (c *RPCContext) BeaconEngine() capability.BeaconEngineHandle           { return c.actx.BeaconEngine }
func (c *RPCContext) EngineEvents() *event.Feed                             { return c.actx.EngineEvents }

// ExtendModules runs once per launch after the modules are assembled and before any
// server starts. Returning an error aborts the launch.
type ExtendModules interface {
	ExtendModules(rctx *RPCContext) error
}

// OnRPCStarted runs once per launch after both servers started. Returning an error fails
// the launch but leaves the servers running.
type OnRPCStarted interface {
	OnRPCStarted(rctx *RPCContext, handles server.Handles) error
}

// ExtendModulesFunc adapts a function to ExtendModules.
type ExtendModulesFunc func(rctx *RPCContext) error

func (f ExtendModulesFunc) ExtendModules(rctx *RPCContext) error {
	return f(rctx)
}

// OnRPCStartedFunc adapts a function to OnRPCStarted.
type OnRPCStartedFunc func(rctx *RPCContext, handles server.Handles) error

func (f OnRPCStartedFunc) OnRPCStarted(rctx *RPCContext, handles server.Handles) error {
	return f(rctx, handles)
}

// NoopHook does nothing.
type NoopHook struct{}

var (
	_ ExtendModules = NoopHook{}
	_ OnRPCStarted  = NoopHook{}
)

func (NoopHook) ExtendModules(*RPCContext) error                { return nil }
func (NoopHook) OnRPCStarted(*RPCContext, server.Handles) error { return nil }

// Hooks holds the hooks of an AddOns.
type Hooks struct {
	ExtendModules ExtendModules
	OnRPCStarted  OnRPCStarted
}

// DefaultHooks returns hooks that do nothing.
func DefaultHooks() Hooks {
	return Hooks{ExtendModules: NoopHook{}, OnRPCStarted: NoopHook{}}
}

// ExtendFunc is a per-launch override applied before the registered ExtendModules hook.
type ExtendFunc func(mods *modules.TransportModules, auth *modules.AuthModule, registry *modules.Registry) error
