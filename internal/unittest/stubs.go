package unittest

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/params"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
)

// ProviderStub is an in-memory capability.Provider whose canonical state stream is driven
// by the test.
type ProviderStub struct {
	chain *params.ChainConfig

	mu       sync.RWMutex
	head     *types.Header
	byHash   map[common.Hash]*types.Block
	byNumber map[uint64]*types.Block
	receipts map[common.Hash]types.Receipts

	feed       event.Feed
	subscribed chan struct{}
	subOnce    sync.Once
	closed     chan struct{}
	closeOnce  sync.Once
	failed     chan struct{}
	failOnce   sync.Once
	failErr    error
}

var _ capability.Provider = (*ProviderStub)(nil)

// NewProviderStub returns a provider holding only a genesis block.
func NewProviderStub(t *testing.T, chain *params.ChainConfig) *ProviderStub {
	t.Helper()

	p := &ProviderStub{
		chain:      chain,
		byHash:     make(map[common.Hash]*types.Block),
		byNumber:   make(map[uint64]*types.Block),
		receipts:   make(map[common.Hash]types.Receipts),
		subscribed: make(chan struct{}),
		closed:     make(chan struct{}),
		failed:     make(chan struct{}),
	}
	genesis := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(0), Difficulty: common.Big0})
	p.Insert(genesis)
	return p
}

// Insert makes blocks canonical and moves the head to the last one.
func (p *ProviderStub) Insert(blocks ...*types.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range blocks {
		p.byHash[b.Hash()] = b
		p.byNumber[b.NumberU64()] = b
		p.head = b.Header()
	}
}

// SetReceipts stores receipts for the block with the given hash.
func (p *ProviderStub) SetReceipts(hash common.Hash, receipts types.Receipts) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receipts[hash] = receipts
}

// Notify delivers n to every subscriber and returns the number of subscribers reached.
func (p *ProviderStub) Notify(n capability.CanonStateNotification) int {
	return p.feed.Send(n)
}

// Subscribed is closed once the first subscriber is registered.
func (p *ProviderStub) Subscribed() <-chan struct{} {
	return p.subscribed
}

// Close ends every subscription gracefully.
func (p *ProviderStub) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

// Fail ends every subscription with err.
func (p *ProviderStub) Fail(err error) {
	p.failOnce.Do(func() {
		p.failErr = err
		close(p.failed)
	})
}

func (p *ProviderStub) ChainConfig() *params.ChainConfig {
	return p.chain
}

func (p *ProviderStub) CurrentHeader() *types.Header {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.CopyHeader(p.head)
}

func (p *ProviderStub) BlockByHash(hash common.Hash) *types.Block {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byHash[hash]
}

func (p *ProviderStub) BlockByNumber(number uint64) *types.Block {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byNumber[number]
}

func (p *ProviderStub) ReceiptsByHash(hash common.Hash) types.Receipts {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.receipts[hash]
}

func (p *ProviderStub) SubscribeCanonState(ch chan<- capability.CanonStateNotification) event.Subscription {
	inner := p.feed.Subscribe(ch)
	p.subOnce.Do(func() { close(p.subscribed) })

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		select {
		case <-quit:
			return nil
		case <-p.closed:
			return nil
		case <-p.failed:
			return p.failErr
		}
	})
}

// PoolStub records added transactions.
type PoolStub struct {
	mu  sync.Mutex
	txs []*types.Transaction
	// Err is returned by Add when set.
	Err error
}

var _ capability.Pool = (*PoolStub)(nil)

func (p *PoolStub) Add(tx *types.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.txs = append(p.txs, tx)
	return nil
}

func (p *PoolStub) Stats() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs), 0
}

// Transactions returns the transactions added so far.
func (p *PoolStub) Transactions() []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.Transaction{}, p.txs...)
}

// NetworkStub reports a fixed network state.
type NetworkStub struct {
	ID     uint64
	Peers  int
	Listen bool
}

var _ capability.Network = NetworkStub{}

func (n NetworkStub) NetworkID() uint64 { return n.ID }
func (n NetworkStub) PeerCount() int    { return n.Peers }
func (n NetworkStub) Listening() bool   { return n.Listen }

// PayloadBuilderStub resolves payloads registered with Put.
type PayloadBuilderStub struct {
	mu       sync.Mutex
	payloads map[engine.PayloadID]*engine.ExecutionPayloadEnvelope
}

var _ capability.PayloadBuilderHandle = (*PayloadBuilderStub)(nil)

func NewPayloadBuilderStub() *PayloadBuilderStub {
	return &PayloadBuilderStub{payloads: make(map[engine.PayloadID]*engine.ExecutionPayloadEnvelope)}
}

func (s *PayloadBuilderStub) Put(id engine.PayloadID, envelope *engine.ExecutionPayloadEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[id] = envelope
}

func (s *PayloadBuilderStub) ResolvePayload(ctx context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[id], nil
}

// BeaconStub answers every Engine API call with VALID and records the calls it received.
type BeaconStub struct {
	mu          sync.Mutex
	payloads    []engine.ExecutableData
	forkchoices []engine.ForkchoiceStateV1
}

var _ capability.BeaconEngineHandle = (*BeaconStub)(nil)

func (b *BeaconStub) NewPayload(_ context.Context, payload engine.ExecutableData, _ []common.Hash, _ *common.Hash) (engine.PayloadStatusV1, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.payloads = append(b.payloads, payload)
	hash := payload.BlockHash
	return engine.PayloadStatusV1{Status: engine.VALID, LatestValidHash: &hash}, nil
}

func (b *BeaconStub) ForkchoiceUpdated(_ context.Context, state engine.ForkchoiceStateV1, _ *engine.PayloadAttributes) (engine.ForkChoiceResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.forkchoices = append(b.forkchoices, state)
	head := state.HeadBlockHash
	return engine.ForkChoiceResponse{
		PayloadStatus: engine.PayloadStatusV1{Status: engine.VALID, LatestValidHash: &head},
	}, nil
}

// Forkchoices returns the fork choice states received so far.
func (b *BeaconStub) Forkchoices() []engine.ForkchoiceStateV1 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.ForkchoiceStateV1{}, b.forkchoices...)
}

// Payloads returns the payloads received so far.
func (b *BeaconStub) Payloads() []engine.ExecutableData {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.ExecutableData{}, b.payloads...)
}

// NodeStubs bundles the stubs behind a NodeFixture.
type NodeStubs struct {
	Provider   *ProviderStub
	Pool       *PoolStub
	Network    NetworkStub
	Payloads   *PayloadBuilderStub
	Beacon     *BeaconStub
	Executor   *tasks.Executor
	Components *capability.Components
	Config     *model.NodeConfig
}

// NodeFixture builds stubbed node components over the default configuration with every
// port chosen by the operating system. A critical task failure fails the test unless opts
// install another handler. Spawned tasks are stopped and awaited on cleanup.
func NodeFixture(t *testing.T, opts ...tasks.Option) *NodeStubs {
	t.Helper()

	cfg := model.DefaultNodeConfig()
	cfg.RPC.HTTP.Port = 0
	cfg.RPC.WS.Port = 0
	cfg.RPC.Auth.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	opts = append([]tasks.Option{tasks.WithCriticalHandler(func(err *tasks.CriticalTaskError) {
		t.Errorf("unexpected critical task failure: %v", err)
	})}, opts...)
	executor := tasks.NewExecutor(ctx, Logger(t), opts...)
	t.Cleanup(func() {
		cancel()
		executor.Wait()
	})

	stubs := &NodeStubs{
		Provider: NewProviderStub(t, cfg.Chain),
		Pool:     &PoolStub{},
		Network:  NetworkStub{ID: cfg.Chain.ChainID.Uint64(), Listen: true},
		Payloads: NewPayloadBuilderStub(),
		Beacon:   &BeaconStub{},
		Executor: executor,
		Config:   &cfg,
	}
	stubs.Components = capability.NewComponents(
		stubs.Provider,
		stubs.Pool,
		stubs.Network,
		nil,
		nil,
		executor,
		stubs.Payloads,
	)
	return stubs
}

// AddOnsContext returns a launch context over the stubs with a random JWT secret.
func (s *NodeStubs) AddOnsContext(t *testing.T) *capability.AddOnsContext {
	t.Helper()
	return &capability.AddOnsContext{
		Node:         s.Components,
		Config:       s.Config,
		BeaconEngine: s.Beacon,
		JWTSecret:    SecretFixture(t),
		EngineEvents: new(event.Feed),
	}
}

