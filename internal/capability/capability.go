// Package capability defines the read-only view of node subsystems the RPC add-ons are
// assembled from.
//
// Every subsystem is consumed through a narrow interface so that builders only depend on
// the capabilities they actually use, and so that the development node and tests can
// supply in-memory implementations.
package capability

import (
	"context"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/params"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
)

// CanonStateNotification describes one change of the canonical chain.
type CanonStateNotification struct {
	// Reverted holds the blocks, oldest first, that left the canonical chain.
	// It is empty for a plain extension of the chain.
	Reverted []*types.Block

	// Committed holds the blocks, oldest first, that became canonical.
	Committed []*types.Block

	// Receipts holds the receipts of committed blocks keyed by block hash.
	Receipts map[common.Hash]types.Receipts
}

// IsReorg returns true when the notification reverts previously canonical blocks.
func (n CanonStateNotification) IsReorg() bool {
	return len(n.Reverted) > 0
}

// Tip returns the newest committed block, or nil if nothing was committed.
func (n CanonStateNotification) Tip() *types.Block {
	if len(n.Committed) == 0 {
		return nil
	}
	return n.Committed[len(n.Committed)-1]
}

// Provider gives read access to the chain and streams canonical chain updates.
type Provider interface {
	// ChainConfig returns the configuration of the served chain.
	ChainConfig() *params.ChainConfig

	// CurrentHeader returns the head of the canonical chain.
	CurrentHeader() *types.Header

	// BlockByHash returns the block with the given hash, or nil if unknown.
	BlockByHash(hash common.Hash) *types.Block

	// BlockByNumber returns the canonical block at number, or nil if unknown.
	BlockByNumber(number uint64) *types.Block

	// ReceiptsByHash returns the receipts of the block with the given hash, or nil if unknown.
	ReceiptsByHash(hash common.Hash) types.Receipts

	// SubscribeCanonState delivers every canonical chain update to ch. The subscription's
	// error channel is closed on graceful termination and yields an error otherwise.
	SubscribeCanonState(ch chan<- CanonStateNotification) event.Subscription
}

// Pool accepts transactions for inclusion.
type Pool interface {
	// Add validates tx and queues it.
	Add(tx *types.Transaction) error

	// Stats returns the number of executable and non-executable transactions.
	Stats() (pending int, queued int)
}

// Network exposes the state of the p2p network.
type Network interface {
	NetworkID() uint64
	PeerCount() int
	Listening() bool
}

// BlockExecutor executes blocks against the current state.
type BlockExecutor interface {
	Execute(block *types.Block) (types.Receipts, error)
}

// Consensus validates headers against the consensus rules.
type Consensus interface {
	ValidateHeader(parent, header *types.Header) error
}

// PayloadBuilderHandle resolves payloads the builder service is working on.
type PayloadBuilderHandle interface {
	// ResolvePayload returns the best payload built so far for id.
	ResolvePayload(ctx context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error)
}

// BeaconEngineHandle forwards Engine API requests to the beacon consensus engine.
type BeaconEngineHandle interface {
	NewPayload(ctx context.Context, payload engine.ExecutableData, versionedHashes []common.Hash, beaconRoot *common.Hash) (engine.PayloadStatusV1, error)
	ForkchoiceUpdated(ctx context.Context, state engine.ForkchoiceStateV1, attrs *engine.PayloadAttributes) (engine.ForkChoiceResponse, error)
}

// Node is the full set of subsystems of a node.
type Node interface {
	Provider() Provider
	Pool() Pool
	Network() Network
	Executor() BlockExecutor
	Consensus() Consensus
	TaskExecutor() tasks.Spawner
	PayloadBuilderHandle() PayloadBuilderHandle
}
