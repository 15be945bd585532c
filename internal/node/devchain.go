package node

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

const (
	// maxPendingPayloads bounds the number of built payloads kept for GetPayload.
	maxPendingPayloads = 16
	genesisGasLimit    = 30_000_000
)

// ErrKnownTransaction is returned when a transaction is already pooled.
var ErrKnownTransaction = errors.New("already known")

// DevChain is an in-memory post-merge chain of empty blocks. Blocks are built from payload
// attributes, imported with NewPayload and made canonical by ForkchoiceUpdated, so that a
// consensus client (or SimulatedBeacon) drives it through the Engine API.
//
// Pooled transactions are kept but never included since DevChain executes nothing.
type DevChain struct {
	logger zerolog.Logger
	chain  *params.ChainConfig
	signer types.Signer

	mu        sync.RWMutex
	head      *types.Block
	blocks    map[common.Hash]*types.Block
	canonical map[uint64]common.Hash
	pending   map[common.Hash]*types.Transaction
	payloads  *lru.Cache[engine.PayloadID, *engine.ExecutionPayloadEnvelope]

	feed      event.Feed
	closed    chan struct{}
	closeOnce sync.Once
}

var (
	_ capability.Provider             = (*DevChain)(nil)
	_ capability.Pool                 = (*DevChain)(nil)
	_ capability.Network              = (*DevChain)(nil)
	_ capability.PayloadBuilderHandle = (*DevChain)(nil)
	_ capability.BeaconEngineHandle   = (*DevChain)(nil)
)

// NewDevChain creates a chain holding only its genesis block.
func NewDevChain(logger zerolog.Logger, chain *params.ChainConfig) (*DevChain, error) {
	payloads, err := lru.New[engine.PayloadID, *engine.ExecutionPayloadEnvelope](maxPendingPayloads)
	if err != nil {
		return nil, fmt.Errorf("create payload cache: %w", err)
	}

	header := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  common.Big0,
		Number:      common.Big0,
		GasLimit:    genesisGasLimit,
		BaseFee:     big.NewInt(params.InitialBaseFee),
	}
	genesis := types.NewBlockWithHeader(header)

	return &DevChain{
		logger:    logger.With().Str("component", "dev-chain").Logger(),
		chain:     chain,
		signer:    types.LatestSigner(chain),
		head:      genesis,
		blocks:    map[common.Hash]*types.Block{genesis.Hash(): genesis},
		canonical: map[uint64]common.Hash{0: genesis.Hash()},
		pending:   make(map[common.Hash]*types.Transaction),
		payloads:  payloads,
		closed:    make(chan struct{}),
	}, nil
}

// Close ends every canonical state subscription gracefully.
func (c *DevChain) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *DevChain) ChainConfig() *params.ChainConfig {
	return c.chain
}

func (c *DevChain) CurrentHeader() *types.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head.Header()
}

func (c *DevChain) BlockByHash(hash common.Hash) *types.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[hash]
}

func (c *DevChain) BlockByNumber(number uint64) *types.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.canonical[number]
	if !ok {
		return nil
	}
	return c.blocks[hash]
}

// ReceiptsByHash returns an empty receipt set for every known block.
func (c *DevChain) ReceiptsByHash(hash common.Hash) types.Receipts {
	if c.BlockByHash(hash) == nil {
		return nil
	}
	return types.Receipts{}
}

func (c *DevChain) SubscribeCanonState(ch chan<- capability.CanonStateNotification) event.Subscription {
	inner := c.feed.Subscribe(ch)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		select {
		case <-quit:
		case <-c.closed:
		}
		return nil
	})
}

// Add implements capability.Pool.
func (c *DevChain) Add(tx *types.Transaction) error {
	if _, err := types.Sender(c.signer, tx); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[tx.Hash()]; ok {
		return ErrKnownTransaction
	}
	c.pending[tx.Hash()] = tx
	return nil
}

// Stats implements capability.Pool.
func (c *DevChain) Stats() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending), 0
}

func (c *DevChain) NetworkID() uint64 { return c.chain.ChainID.Uint64() }
func (c *DevChain) PeerCount() int    { return 0 }
func (c *DevChain) Listening() bool   { return false }

// ResolvePayload implements capability.PayloadBuilderHandle.
func (c *DevChain) ResolvePayload(_ context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	envelope, ok := c.payloads.Get(id)
	if !ok {
		return nil, nil
	}
	return envelope, nil
}

// NewPayload imports a block whose parent is known. The block is not made canonical.
func (c *DevChain) NewPayload(
	_ context.Context,
	payload engine.ExecutableData,
	versionedHashes []common.Hash,
	beaconRoot *common.Hash,
) (engine.PayloadStatusV1, error) {
	block, err := engine.ExecutableDataToBlock(payload, versionedHashes, beaconRoot, nil)
	if err != nil {
		return invalid(err), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parent, ok := c.blocks[block.ParentHash()]
	if !ok {
		return engine.PayloadStatusV1{Status: engine.SYNCING}, nil
	}
	if block.NumberU64() != parent.NumberU64()+1 {
		return invalid(fmt.Errorf("block number %d does not follow parent %d", block.NumberU64(), parent.NumberU64())), nil
	}
	if block.Time() <= parent.Time() {
		return invalid(fmt.Errorf("block timestamp %d not after parent %d", block.Time(), parent.Time())), nil
	}

	hash := block.Hash()
	c.blocks[hash] = block
	c.logger.Debug().Uint64("number", block.NumberU64()).Str("hash", hash.Hex()).Msg("payload imported")
	return engine.PayloadStatusV1{Status: engine.VALID, LatestValidHash: &hash}, nil
}

// ForkchoiceUpdated makes the head block canonical and, given attributes, starts building
// an empty block on top of it.
func (c *DevChain) ForkchoiceUpdated(
	_ context.Context,
	state engine.ForkchoiceStateV1,
	attrs *engine.PayloadAttributes,
) (engine.ForkChoiceResponse, error) {
	head := c.BlockByHash(state.HeadBlockHash)
	if head == nil {
		return engine.ForkChoiceResponse{PayloadStatus: engine.PayloadStatusV1{Status: engine.SYNCING}}, nil
	}
	c.setHead(head)

	hash := head.Hash()
	response := engine.ForkChoiceResponse{
		PayloadStatus: engine.PayloadStatusV1{Status: engine.VALID, LatestValidHash: &hash},
	}
	if attrs == nil {
		return response, nil
	}
	if attrs.Timestamp <= head.Time() {
		return engine.STATUS_INVALID, engine.InvalidPayloadAttributes.With(
			fmt.Errorf("timestamp %d not after head %d", attrs.Timestamp, head.Time()))
	}

	id := payloadID(hash, attrs)
	c.payloads.Add(id, engine.BlockToExecutableData(c.buildBlock(head, attrs), new(big.Int), nil, nil))
	response.PayloadID = &id
	return response, nil
}

// buildBlock assembles an empty block on top of parent.
func (c *DevChain) buildBlock(parent *types.Block, attrs *engine.PayloadAttributes) *types.Block {
	number := new(big.Int).Add(parent.Number(), common.Big1)
	header := &types.Header{
		ParentHash:       parent.Hash(),
		UncleHash:        types.EmptyUncleHash,
		Coinbase:         attrs.SuggestedFeeRecipient,
		Root:             parent.Root(),
		TxHash:           types.EmptyTxsHash,
		ReceiptHash:      types.EmptyReceiptsHash,
		Difficulty:       common.Big0,
		Number:           number,
		GasLimit:         parent.GasLimit(),
		Time:             attrs.Timestamp,
		MixDigest:        attrs.Random,
		BaseFee:          parent.BaseFee(),
		ParentBeaconRoot: attrs.BeaconRoot,
	}
	if attrs.Withdrawals != nil {
		root := types.DeriveSha(types.Withdrawals(attrs.Withdrawals), trie.NewStackTrie(nil))
		header.WithdrawalsHash = &root
	}
	if c.chain.IsCancun(number, attrs.Timestamp) {
		var blobGasUsed, excessBlobGas uint64
		header.BlobGasUsed = &blobGasUsed
		header.ExcessBlobGas = &excessBlobGas
	}
	return types.NewBlockWithHeader(header).WithBody(types.Body{Withdrawals: attrs.Withdrawals})
}

// setHead moves the canonical chain to head and publishes the resulting update.
func (c *DevChain) setHead(head *types.Block) {
	c.mu.Lock()
	if head.Hash() == c.head.Hash() {
		c.mu.Unlock()
		return
	}

	// walk the new branch back to the first canonical ancestor
	var committed []*types.Block
	ancestor := head
	for c.canonical[ancestor.NumberU64()] != ancestor.Hash() {
		committed = append(committed, ancestor)
		ancestor = c.blocks[ancestor.ParentHash()]
	}
	var reverted []*types.Block
	for n := c.head.NumberU64(); n > ancestor.NumberU64(); n-- {
		reverted = append(reverted, c.blocks[c.canonical[n]])
		delete(c.canonical, n)
	}
	reverse(committed)
	reverse(reverted)

	receipts := make(map[common.Hash]types.Receipts, len(committed))
	for _, block := range committed {
		c.canonical[block.NumberU64()] = block.Hash()
		receipts[block.Hash()] = types.Receipts{}
	}
	c.head = head
	c.mu.Unlock()

	c.logger.Info().
		Uint64("number", head.NumberU64()).
		Str("hash", head.Hash().Hex()).
		Int("reverted", len(reverted)).
		Msg("canonical head updated")
	c.feed.Send(capability.CanonStateNotification{
		Reverted:  reverted,
		Committed: committed,
		Receipts:  receipts,
	})
}

func reverse(blocks []*types.Block) {
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
}

func invalid(err error) engine.PayloadStatusV1 {
	msg := err.Error()
	return engine.PayloadStatusV1{Status: engine.INVALID, ValidationError: &msg}
}

// payloadID derives a deterministic id from the parent and the build attributes.
func payloadID(parent common.Hash, attrs *engine.PayloadAttributes) engine.PayloadID {
	var timestamp [8]byte
	binary.BigEndian.PutUint64(timestamp[:], attrs.Timestamp)
	data := [][]byte{parent.Bytes(), timestamp[:], attrs.Random.Bytes(), attrs.SuggestedFeeRecipient.Bytes()}
	if attrs.BeaconRoot != nil {
		data = append(data, attrs.BeaconRoot.Bytes())
	}

	var id engine.PayloadID
	copy(id[:], crypto.Keccak256(data...))
	return id
}
