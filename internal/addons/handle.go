package addons

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
	"github.com/thep2p/go-eth-rpcnode/internal/server"
)

// Handle gives access to the running add-ons. It is a small value and may be copied freely;
// copies refer to the same servers.
type Handle struct {
	servers      server.Handles
	registry     *modules.Registry
	engineEvents *event.Feed
	beaconEngine capability.BeaconEngineHandle
}

// Servers returns the handles of both servers.
func (h Handle) Servers() server.Handles { return h.servers }

// RPC returns the handle of the general transports.
func (h Handle) RPC() *server.RPCServerHandle { return h.servers.RPC }

// Auth returns the handle of the auth server.
func (h Handle) Auth() *server.AuthServerHandle { return h.servers.Auth }

// Registry returns the registry the servers were assembled from.
func (h Handle) Registry() *modules.Registry { return h.registry }

// EthAPI returns the eth handler.
func (h Handle) EthAPI() api.EthAPIServer {
	if h.registry == nil {
		return nil
	}
	return h.registry.EthAPI()
}

// EngineEvents returns the engine events feed. Subscribers receive capability.EngineEvent values.
func (h Handle) EngineEvents() *event.Feed { return h.engineEvents }

// BeaconEngine returns the beacon engine handle the Engine API forwards to.
func (h Handle) BeaconEngine() capability.BeaconEngineHandle { return h.beaconEngine }

// Stop shuts both servers down.
func (h Handle) Stop() error {
	return h.servers.Stop()
}
