package api

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

// NetAPI serves the net namespace.
type NetAPI struct {
	network capability.Network
}

func NewNetAPI(network capability.Network) *NetAPI {
	return &NetAPI{network: network}
}

// Version returns the network id in decimal.
func (api *NetAPI) Version() string {
	return strconv.FormatUint(api.network.NetworkID(), 10)
}

func (api *NetAPI) PeerCount() hexutil.Uint {
	return hexutil.Uint(api.network.PeerCount())
}

func (api *NetAPI) Listening() bool {
	return api.network.Listening()
}

// Web3API serves the web3 namespace.
type Web3API struct {
	clientVersion string
}

func NewWeb3API(clientVersion string) *Web3API {
	return &Web3API{clientVersion: clientVersion}
}

func (api *Web3API) ClientVersion() string {
	return api.clientVersion
}

// Sha3 returns the keccak-256 hash of input.
func (api *Web3API) Sha3(input hexutil.Bytes) hexutil.Bytes {
	return crypto.Keccak256(input)
}

// TxPoolAPI serves the txpool namespace.
type TxPoolAPI struct {
	pool capability.Pool
}

func NewTxPoolAPI(pool capability.Pool) *TxPoolAPI {
	return &TxPoolAPI{pool: pool}
}

// Status returns the number of pending and queued transactions.
func (api *TxPoolAPI) Status() map[string]hexutil.Uint {
	pending, queued := api.pool.Stats()
	return map[string]hexutil.Uint{
		"pending": hexutil.Uint(pending),
		"queued":  hexutil.Uint(queued),
	}
}
