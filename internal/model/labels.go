package model

const (
	// NamespaceEth is the namespace of the general-purpose account, chain and transaction API.
	NamespaceEth = "eth"

	// NamespaceNet is the namespace of the network status API.
	NamespaceNet = "net"

	// NamespaceWeb3 is the namespace of the client identity API.
	NamespaceWeb3 = "web3"

	// NamespaceTxPool is the namespace of the transaction pool inspection API.
	NamespaceTxPool = "txpool"

	// NamespaceEngine is the namespace of the consensus-layer facing Engine API.
	// It is only ever served by the authenticated server.
	NamespaceEngine = "engine"
)

const (
	// EthLatestBlock represents the latest block identifier in Ethereum.
	EthLatestBlock = "latest"

	// EthChainID represents the method for retrieving the chain id.
	EthChainID = "eth_chainId"

	// EthBlockNumber represents the method for retrieving the current block number.
	EthBlockNumber = "eth_blockNumber"

	// EthAccounts represents the method for listing the accounts the node can sign for.
	EthAccounts = "eth_accounts"

	// EthGetBlockByHash represents the method for retrieving a block by its hash.
	EthGetBlockByHash = "eth_getBlockByHash"

	// EthGetBlockByNumber represents the method for retrieving a block by its number.
	EthGetBlockByNumber = "eth_getBlockByNumber"

	// EthSendRawTransaction represents the method for sending a raw transaction to the network.
	EthSendRawTransaction = "eth_sendRawTransaction"

	// NetVersion represents the method for retrieving the network id.
	NetVersion = "net_version"

	// Web3ClientVersion represents the method for retrieving the client identity string.
	Web3ClientVersion = "web3_clientVersion"

	// EngineExchangeCapabilities represents the Engine API capability handshake method.
	EngineExchangeCapabilities = "engine_exchangeCapabilities"

	// EngineGetClientVersionV1 represents the Engine API client identity method.
	EngineGetClientVersionV1 = "engine_getClientVersionV1"

	// EngineForkchoiceUpdatedV1 represents the Engine API fork choice update method.
	EngineForkchoiceUpdatedV1 = "engine_forkchoiceUpdatedV1"

	// EngineNewPayloadV1 represents the Engine API payload submission method.
	EngineNewPayloadV1 = "engine_newPayloadV1"

	// EngineGetPayloadV1 represents the Engine API payload retrieval method.
	EngineGetPayloadV1 = "engine_getPayloadV1"
)
