package node

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

// SimulatedBeaconTaskName is the name the block producer is spawned under.
const SimulatedBeaconTaskName = "simulated beacon block production"

// headSummary holds the fields of eth_getBlockByNumber needed to build on a block.
type headSummary struct {
	Hash   common.Hash    `json:"hash"`
	Number hexutil.Big    `json:"number"`
	Time   hexutil.Uint64 `json:"timestamp"`
}

// SimulatedBeacon produces blocks by driving the Engine API the way a consensus client
// does: forkchoice update with attributes, get payload, new payload, forkchoice update.
type SimulatedBeacon struct {
	logger zerolog.Logger
	client *rpc.Client
	chain  *params.ChainConfig
	period time.Duration
}

// NewSimulatedBeacon creates a producer over an authenticated Engine API client.
func NewSimulatedBeacon(logger zerolog.Logger, client *rpc.Client, chain *params.ChainConfig, period time.Duration) *SimulatedBeacon {
	return &SimulatedBeacon{
		logger: logger.With().Str("component", "simulated-beacon").Logger(),
		client: client,
		chain:  chain,
		period: period,
	}
}

// Run produces a block every period until ctx is cancelled.
func (b *SimulatedBeacon) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := b.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("produce block: %w", err)
			}
		}
	}
}

// Step produces one block on top of the current head and makes it canonical.
func (b *SimulatedBeacon) Step(ctx context.Context) (common.Hash, error) {
	var head *headSummary
	if err := b.client.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return common.Hash{}, fmt.Errorf("fetch head: %w", err)
	}
	if head == nil {
		return common.Hash{}, fmt.Errorf("fetch head: no canonical head")
	}

	timestamp := uint64(time.Now().Unix())
	if timestamp <= uint64(head.Time) {
		timestamp = uint64(head.Time) + 1
	}
	number := new(big.Int).Add(head.Number.ToInt(), common.Big1)
	shanghai := b.chain.IsShanghai(number, timestamp)
	cancun := b.chain.IsCancun(number, timestamp)

	attrs := &engine.PayloadAttributes{
		Timestamp: timestamp,
		Random:    common.BytesToHash(crypto.Keccak256(head.Hash.Bytes())),
	}
	if shanghai {
		attrs.Withdrawals = []*types.Withdrawal{}
	}
	var beaconRoot *common.Hash
	if cancun {
		root := common.BytesToHash(crypto.Keccak256(attrs.Random.Bytes()))
		beaconRoot = &root
		attrs.BeaconRoot = beaconRoot
	}
	version := 1
	switch {
	case cancun:
		version = 3
	case shanghai:
		version = 2
	}

	state := engine.ForkchoiceStateV1{
		HeadBlockHash:      head.Hash,
		SafeBlockHash:      head.Hash,
		FinalizedBlockHash: head.Hash,
	}
	var response engine.ForkChoiceResponse
	if err := b.client.CallContext(ctx, &response, fmt.Sprintf("engine_forkchoiceUpdatedV%d", version), state, attrs); err != nil {
		return common.Hash{}, fmt.Errorf("start payload build: %w", err)
	}
	if response.PayloadID == nil {
		return common.Hash{}, fmt.Errorf("start payload build: status %s without payload id", response.PayloadStatus.Status)
	}

	payload, err := b.getPayload(ctx, version, *response.PayloadID)
	if err != nil {
		return common.Hash{}, err
	}

	var status engine.PayloadStatusV1
	args := []interface{}{payload}
	if version == 3 {
		args = append(args, []common.Hash{}, beaconRoot)
	}
	if err := b.client.CallContext(ctx, &status, fmt.Sprintf("engine_newPayloadV%d", version), args...); err != nil {
		return common.Hash{}, fmt.Errorf("import payload: %w", err)
	}
	if status.Status != engine.VALID {
		return common.Hash{}, fmt.Errorf("import payload: status %s", status.Status)
	}

	state.HeadBlockHash = payload.BlockHash
	if err := b.client.CallContext(ctx, &response, fmt.Sprintf("engine_forkchoiceUpdatedV%d", version), state, nil); err != nil {
		return common.Hash{}, fmt.Errorf("update head: %w", err)
	}
	b.logger.Debug().Uint64("number", payload.Number).Str("hash", payload.BlockHash.Hex()).Msg("block produced")
	return payload.BlockHash, nil
}

func (b *SimulatedBeacon) getPayload(ctx context.Context, version int, id engine.PayloadID) (*engine.ExecutableData, error) {
	method := fmt.Sprintf("engine_getPayloadV%d", version)
	if version == 1 {
		var payload engine.ExecutableData
		if err := b.client.CallContext(ctx, &payload, method, id); err != nil {
			return nil, fmt.Errorf("get payload: %w", err)
		}
		return &payload, nil
	}

	var envelope engine.ExecutionPayloadEnvelope
	if err := b.client.CallContext(ctx, &envelope, method, id); err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}
	if envelope.ExecutionPayload == nil {
		return nil, fmt.Errorf("get payload: empty envelope")
	}
	return envelope.ExecutionPayload, nil
}
