// Package cache holds recently canonical blocks and receipts for the eth namespace.
//
// The cache has exactly one writer, the task started with FeedCanonicalBlocks, and is
// otherwise read-only. Readers that miss fall back to the provider themselves.
package cache

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
)

// Metrics receives cache feed notifications.
type Metrics interface {
	CacheUpdated(reorg bool, blocks int)
}

// Option configures an EthStateCache.
type Option func(*EthStateCache)

// WithMetrics reports applied canonical updates to m.
func WithMetrics(m Metrics) Option {
	return func(c *EthStateCache) {
		c.metrics = m
	}
}

// EthStateCache caches blocks and receipts by block hash.
type EthStateCache struct {
	blocks   *lru.Cache[common.Hash, *types.Block]
	receipts *lru.Cache[common.Hash, types.Receipts]
	metrics  Metrics
}

// NewEthStateCache creates an empty cache bounded by cfg.
func NewEthStateCache(cfg model.CacheConfig, opts ...Option) (*EthStateCache, error) {
	blocks, err := lru.New[common.Hash, *types.Block](cfg.MaxBlocks)
	if err != nil {
		return nil, fmt.Errorf("create block cache: %w", err)
	}
	receipts, err := lru.New[common.Hash, types.Receipts](cfg.MaxReceipts)
	if err != nil {
		return nil, fmt.Errorf("create receipt cache: %w", err)
	}

	c := &EthStateCache{
		blocks:   blocks,
		receipts: receipts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Block returns the cached block with the given hash.
func (c *EthStateCache) Block(hash common.Hash) (*types.Block, bool) {
	return c.blocks.Get(hash)
}

// Receipts returns the cached receipts of the block with the given hash.
func (c *EthStateCache) Receipts(hash common.Hash) (types.Receipts, bool) {
	return c.receipts.Get(hash)
}

// Len returns the number of cached blocks.
func (c *EthStateCache) Len() int {
	return c.blocks.Len()
}

// apply evicts reverted blocks and inserts committed ones.
func (c *EthStateCache) apply(n capability.CanonStateNotification) {
	for _, block := range n.Reverted {
		c.blocks.Remove(block.Hash())
		c.receipts.Remove(block.Hash())
	}
	for _, block := range n.Committed {
		hash := block.Hash()
		c.blocks.Add(hash, block)
		if receipts, ok := n.Receipts[hash]; ok {
			c.receipts.Add(hash, receipts)
		}
	}
	if c.metrics != nil {
		c.metrics.CacheUpdated(n.IsReorg(), len(n.Committed))
	}
}
