package capability

import (
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
)

// Components is the default Node, a plain bundle of subsystem handles.
type Components struct {
	provider  Provider
	pool      Pool
	network   Network
	executor  BlockExecutor
	consensus Consensus
	spawner   tasks.Spawner
	payloads  PayloadBuilderHandle
}

var _ Node = (*Components)(nil)

// NewComponents bundles the given subsystems into a Node.
func NewComponents(
	provider Provider,
	pool Pool,
	network Network,
	executor BlockExecutor,
	consensus Consensus,
	spawner tasks.Spawner,
	payloads PayloadBuilderHandle,
) *Components {
	return &Components{
		provider:  provider,
		pool:      pool,
		network:   network,
		executor:  executor,
		consensus: consensus,
		spawner:   spawner,
		payloads:  payloads,
	}
}

func (c *Components) Provider() Provider                         { return c.provider }
func (c *Components) Pool() Pool                                 { return c.pool }
func (c *Components) Network() Network                           { return c.network }
func (c *Components) Executor() BlockExecutor                    { return c.executor }
func (c *Components) Consensus() Consensus                       { return c.consensus }
func (c *Components) TaskExecutor() tasks.Spawner                { return c.spawner }
func (c *Components) PayloadBuilderHandle() PayloadBuilderHandle { return c.payloads }
