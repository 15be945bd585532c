package unittest

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

// RandomAddress generates a random Ethereum address for testing.
func RandomAddress(t *testing.T) common.Address {
	t.Helper()
	return common.BytesToAddress(RandomBytes(t, common.AddressLength))
}

// RandomHash generates a random 32 byte hash for testing.
func RandomHash(t *testing.T) common.Hash {
	t.Helper()
	return common.BytesToHash(RandomBytes(t, common.HashLength))
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err, "failed to generate random bytes")
	return b
}

// SecretFixture returns a random non-zero JWT secret.
func SecretFixture(t *testing.T) [32]byte {
	t.Helper()

	var secret [32]byte
	copy(secret[:], RandomBytes(t, len(secret)))
	secret[0] |= 1
	return secret
}

// PrivateKeyFixture generates a new random private key for use in tests.
func PrivateKeyFixture(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	priv, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate private key")
	return priv
}

// BlockFixture returns an empty block at number on top of parent.
// A nil parent produces a block with a random parent hash.
func BlockFixture(t *testing.T, parent *types.Block, number uint64) *types.Block {
	t.Helper()

	parentHash := RandomHash(t)
	if parent != nil {
		parentHash = parent.Hash()
	}
	header := &types.Header{
		ParentHash: parentHash,
		Number:     new(big.Int).SetUint64(number),
		GasLimit:   30_000_000,
		Time:       number,
		BaseFee:    big.NewInt(params.InitialBaseFee),
		Difficulty: common.Big0,
		// the extra data keeps sibling fixtures at equal heights distinct
		Extra: RandomBytes(t, 8),
	}
	return types.NewBlockWithHeader(header)
}

// BlockChainFixture returns n consecutive blocks on top of parent.
func BlockChainFixture(t *testing.T, parent *types.Block, n int) []*types.Block {
	t.Helper()

	start := uint64(1)
	if parent != nil {
		start = parent.NumberU64() + 1
	}
	blocks := make([]*types.Block, 0, n)
	for i := 0; i < n; i++ {
		block := BlockFixture(t, parent, start+uint64(i))
		blocks = append(blocks, block)
		parent = block
	}
	return blocks
}

// ReceiptsFixture returns one successful receipt for every transaction-less block in blocks.
func ReceiptsFixture(t *testing.T, blocks ...*types.Block) map[common.Hash]types.Receipts {
	t.Helper()

	receipts := make(map[common.Hash]types.Receipts, len(blocks))
	for _, block := range blocks {
		receipts[block.Hash()] = types.Receipts{{
			Status:      types.ReceiptStatusSuccessful,
			BlockHash:   block.Hash(),
			BlockNumber: block.Number(),
			TxHash:      RandomHash(t),
		}}
	}
	return receipts
}

// SignedTransactionFixture returns a dynamic fee transfer signed by key for chain.
func SignedTransactionFixture(t *testing.T, chain *params.ChainConfig, key *ecdsa.PrivateKey, nonce uint64) *types.Transaction {
	t.Helper()

	to := RandomAddress(t)
	tx, err := types.SignNewTx(key, types.LatestSigner(chain), &types.DynamicFeeTx{
		ChainID:   chain.ChainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(params.GWei),
		GasFeeCap: big.NewInt(2 * params.GWei),
		Gas:       params.TxGas,
		To:        &to,
		Value:     big.NewInt(1),
	})
	require.NoError(t, err, "failed to sign transaction")
	return tx
}
