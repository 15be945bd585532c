package capability

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
)

// EngineEventKind distinguishes the events broadcast on the engine events feed.
type EngineEventKind int

const (
	// EngineEventForkchoiceUpdated is sent after a fork choice update was processed.
	EngineEventForkchoiceUpdated EngineEventKind = iota
	// EngineEventNewPayload is sent after a payload was processed.
	EngineEventNewPayload
)

func (k EngineEventKind) String() string {
	switch k {
	case EngineEventForkchoiceUpdated:
		return "forkchoice_updated"
	case EngineEventNewPayload:
		return "new_payload"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// EngineEvent is broadcast on the engine events feed for every processed Engine API call.
type EngineEvent struct {
	Kind EngineEventKind
	// Hash is the fork choice head or the payload block hash.
	Hash common.Hash
	// Status is the payload status returned to the consensus client.
	Status string
}

// AddOnsContext is everything a single launch of the RPC add-ons is built from.
// It is owned by the embedding process and shared read-only with every builder.
type AddOnsContext struct {
	// Node gives access to the node subsystems.
	Node Node
	// Config is the node configuration.
	Config *model.NodeConfig
	// BeaconEngine is the handle to the beacon consensus engine.
	BeaconEngine BeaconEngineHandle
	// JWTSecret authenticates the consensus client on the auth server.
	JWTSecret [32]byte
	// EngineEvents broadcasts EngineEvent values. It is multi-producer and multi-consumer,
	// so anyone holding it may also dispatch events.
	EngineEvents *event.Feed
}

// Validate checks that every handle a launch depends on is present.
func (c *AddOnsContext) Validate() error {
	if c == nil {
		return fmt.Errorf("add-ons context is nil")
	}
	if c.Node == nil {
		return fmt.Errorf("node components are required")
	}
	if c.Node.Provider() == nil {
		return fmt.Errorf("provider is required")
	}
	if c.Node.TaskExecutor() == nil {
		return fmt.Errorf("task executor is required")
	}
	if c.Config == nil {
		return fmt.Errorf("node config is required")
	}
	if c.EngineEvents == nil {
		return fmt.Errorf("engine events feed is required")
	}
	if cache := c.Config.RPC.Eth.Cache; cache.MaxBlocks <= 0 || cache.MaxReceipts <= 0 {
		return fmt.Errorf("eth state cache bounds must be positive: blocks=%d receipts=%d", cache.MaxBlocks, cache.MaxReceipts)
	}
	return nil
}
