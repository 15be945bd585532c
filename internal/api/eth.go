package api

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/thep2p/go-eth-rpcnode/internal/cache"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

// EthAPIServer is implemented by eth namespace handlers.
type EthAPIServer interface {
	// Service returns the receiver whose exported methods are served as eth_* methods.
	Service() interface{}

	// AddDevSigners installs the development signer accounts. It may only be called once.
	AddDevSigners() error

	// Accounts returns the addresses the handler can sign for.
	Accounts() []common.Address
}

// EthServer is the default EthAPIServer. It controls an EthAPI without exposing the
// control methods over RPC.
type EthServer struct {
	api *EthAPI
}

var _ EthAPIServer = (*EthServer)(nil)

// NewEthServer creates an eth handler reading through cache and falling back to provider.
func NewEthServer(provider capability.Provider, pool capability.Pool, cache *cache.EthStateCache) *EthServer {
	return &EthServer{api: &EthAPI{
		provider: provider,
		pool:     pool,
		cache:    cache,
	}}
}

// Service implements EthAPIServer.
func (s *EthServer) Service() interface{} {
	return s.api
}

// API returns the served eth handler.
func (s *EthServer) API() *EthAPI {
	return s.api
}

// AddDevSigners implements EthAPIServer.
func (s *EthServer) AddDevSigners() error {
	s.api.mu.Lock()
	defer s.api.mu.Unlock()

	if s.api.signers != nil {
		return fmt.Errorf("dev signers already added")
	}
	signers, err := NewDevSigners(DevSignerCount)
	if err != nil {
		return fmt.Errorf("create dev signers: %w", err)
	}
	s.api.signers = signers
	return nil
}

// Accounts implements EthAPIServer.
func (s *EthServer) Accounts() []common.Address {
	return s.api.Accounts()
}

// EthAPI serves the eth namespace.
type EthAPI struct {
	provider capability.Provider
	pool     capability.Pool
	cache    *cache.EthStateCache

	mu      sync.RWMutex
	signers *DevSigners
}

// Accounts returns the addresses of the installed dev signers.
func (api *EthAPI) Accounts() []common.Address {
	api.mu.RLock()
	defer api.mu.RUnlock()

	if api.signers == nil {
		return []common.Address{}
	}
	return api.signers.Addresses()
}

// ChainId returns the chain id of the served chain.
func (api *EthAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(api.provider.ChainConfig().ChainID))
}

// BlockNumber returns the number of the canonical head.
func (api *EthAPI) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(api.provider.CurrentHeader().Number.Uint64())
}

// Syncing always reports false, the node follows whatever the consensus client feeds it.
func (api *EthAPI) Syncing() bool {
	return false
}

// GetBlockByHash returns the block with the given hash, or null if it is unknown.
func (api *EthAPI) GetBlockByHash(hash common.Hash, fullTx bool) map[string]interface{} {
	block := api.block(hash)
	if block == nil {
		return nil
	}
	return marshalBlock(block, fullTx)
}

// GetBlockByNumber returns the canonical block at number, or null if it is unknown.
// Tags resolve to the canonical head.
func (api *EthAPI) GetBlockByNumber(number rpc.BlockNumber, fullTx bool) map[string]interface{} {
	n := uint64(number.Int64())
	if number < 0 {
		n = api.provider.CurrentHeader().Number.Uint64()
	}
	block := api.provider.BlockByNumber(n)
	if block == nil {
		return nil
	}
	if cached, ok := api.cache.Block(block.Hash()); ok {
		block = cached
	}
	return marshalBlock(block, fullTx)
}

// GetBlockReceipts returns the receipts of the block with the given hash.
func (api *EthAPI) GetBlockReceipts(hash common.Hash) types.Receipts {
	if receipts, ok := api.cache.Receipts(hash); ok {
		return receipts
	}
	return api.provider.ReceiptsByHash(hash)
}

// SendRawTransaction decodes a signed transaction and submits it to the pool.
func (api *EthAPI) SendRawTransaction(ctx context.Context, input hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(input); err != nil {
		return common.Hash{}, fmt.Errorf("decode transaction: %w", err)
	}
	if err := api.pool.Add(tx); err != nil {
		return common.Hash{}, fmt.Errorf("add transaction: %w", err)
	}
	return tx.Hash(), nil
}

// Sign signs data with the dev signer of addr.
func (api *EthAPI) Sign(addr common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	api.mu.RLock()
	signers := api.signers
	api.mu.RUnlock()

	if signers == nil {
		return nil, fmt.Errorf("unknown account %s", addr.Hex())
	}
	return signers.SignText(addr, data)
}

// block reads the cache first and falls back to the provider. Misses are never written
// back, the canonical feed is the only writer of the cache.
func (api *EthAPI) block(hash common.Hash) *types.Block {
	if block, ok := api.cache.Block(hash); ok {
		return block
	}
	return api.provider.BlockByHash(hash)
}

func marshalBlock(block *types.Block, fullTx bool) map[string]interface{} {
	header := block.Header()
	fields := map[string]interface{}{
		"number":           (*hexutil.Big)(header.Number),
		"hash":             block.Hash(),
		"parentHash":       header.ParentHash,
		"sha3Uncles":       header.UncleHash,
		"nonce":            header.Nonce,
		"miner":            header.Coinbase,
		"stateRoot":        header.Root,
		"transactionsRoot": header.TxHash,
		"receiptsRoot":     header.ReceiptHash,
		"logsBloom":        header.Bloom,
		"difficulty":       (*hexutil.Big)(header.Difficulty),
		"gasLimit":         hexutil.Uint64(header.GasLimit),
		"gasUsed":          hexutil.Uint64(header.GasUsed),
		"timestamp":        hexutil.Uint64(header.Time),
		"extraData":        hexutil.Bytes(header.Extra),
		"mixHash":          header.MixDigest,
		"size":             hexutil.Uint64(block.Size()),
	}
	if header.BaseFee != nil {
		fields["baseFeePerGas"] = (*hexutil.Big)(header.BaseFee)
	}
	if header.WithdrawalsHash != nil {
		fields["withdrawalsRoot"] = *header.WithdrawalsHash
		fields["withdrawals"] = block.Withdrawals()
	}
	if header.BlobGasUsed != nil {
		fields["blobGasUsed"] = hexutil.Uint64(*header.BlobGasUsed)
	}
	if header.ExcessBlobGas != nil {
		fields["excessBlobGas"] = hexutil.Uint64(*header.ExcessBlobGas)
	}
	if header.ParentBeaconRoot != nil {
		fields["parentBeaconBlockRoot"] = *header.ParentBeaconRoot
	}

	txs := block.Transactions()
	if fullTx {
		fields["transactions"] = txs
	} else {
		hashes := make([]common.Hash, len(txs))
		for i, tx := range txs {
			hashes[i] = tx.Hash()
		}
		fields["transactions"] = hashes
	}
	return fields
}

// BasicEthAPIBuilder builds the default EthServer.
type BasicEthAPIBuilder struct{}

var _ EthAPIBuilder = BasicEthAPIBuilder{}

// BuildEthAPI implements EthAPIBuilder.
func (BasicEthAPIBuilder) BuildEthAPI(_ context.Context, ectx EthAPIContext) (EthAPIServer, error) {
	if ectx.Node == nil {
		return nil, fmt.Errorf("node components are required")
	}
	if ectx.Cache == nil {
		return nil, fmt.Errorf("eth state cache is required")
	}
	if ectx.Node.Provider() == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if ectx.Node.Pool() == nil {
		return nil, fmt.Errorf("transaction pool is required")
	}
	return NewEthServer(ectx.Node.Provider(), ectx.Node.Pool(), ectx.Cache), nil
}
