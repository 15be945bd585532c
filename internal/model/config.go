package model

import (
	"fmt"
	"math/big"
	"net"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/params"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPPort is the default port of the http JSON-RPC transport.
	DefaultHTTPPort = 8545
	// DefaultWSPort is the default port of the websocket JSON-RPC transport.
	DefaultWSPort = 8546
	// DefaultAuthPort is the default port of the authenticated Engine API server.
	DefaultAuthPort = 8551
	// DefaultCacheMaxBlocks bounds the number of blocks held by the eth state cache.
	DefaultCacheMaxBlocks = 5000
	// DefaultCacheMaxReceipts bounds the number of receipt sets held by the eth state cache.
	DefaultCacheMaxReceipts = 2000
	// DevChainID is the chain id used when no chain config is supplied.
	DevChainID = 1337
)

// NodeConfig holds everything the RPC add-ons need to assemble and launch both servers.
type NodeConfig struct {
	// Chain is the chain configuration served by eth_chainId and used by the engine validator.
	Chain *params.ChainConfig `yaml:"-" validate:"required"`

	// ChainID overrides the chain id of Chain when loading from a file.
	ChainID uint64 `yaml:"chain_id"`

	// Dev toggles development-only behaviour such as pre-funded signer accounts.
	Dev DevConfig `yaml:"dev"`

	// RPC configures the general transports and the auth server.
	RPC RPCConfig `yaml:"rpc"`

	// Engine configures the Engine API handler.
	Engine EngineConfig `yaml:"engine"`
}

// DevConfig configures development mode.
type DevConfig struct {
	// Enabled injects deterministic development signer accounts into the eth handler.
	Enabled bool `yaml:"enabled"`

	// BlockPeriodMs makes the node drive its own Engine API, producing a block every period.
	// Zero leaves block production to an external consensus client.
	BlockPeriodMs int `yaml:"block_period_ms" validate:"gte=0"`
}

// EngineConfig configures the Engine API handler.
type EngineConfig struct {
	// PayloadStoreTimeout bounds how long GetPayload waits on the payload builder, in milliseconds.
	// Zero means the caller context alone bounds the wait.
	PayloadStoreTimeoutMs int `yaml:"payload_store_timeout_ms" validate:"gte=0"`
}

// RPCConfig configures the general transports and the authenticated server.
type RPCConfig struct {
	HTTP HTTPConfig `yaml:"http"`
	WS   WSConfig   `yaml:"ws"`
	IPC  IPCConfig  `yaml:"ipc"`
	Auth AuthConfig `yaml:"auth"`
	Eth  EthConfig  `yaml:"eth"`
}

// HTTPConfig configures the http transport.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" validate:"required_if=Enabled true"`
	// Port 0 lets the operating system pick a free port.
	Port        int      `yaml:"port" validate:"gte=0,lte=65535"`
	Modules     []string `yaml:"modules" validate:"dive,required"`
	CorsDomains []string `yaml:"cors_domains"`
}

// WSConfig configures the websocket transport.
type WSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Host    string   `yaml:"host" validate:"required_if=Enabled true"`
	Port    int      `yaml:"port" validate:"gte=0,lte=65535"`
	Modules []string `yaml:"modules" validate:"dive,required"`
	Origins []string `yaml:"origins"`
}

// IPCConfig configures the ipc transport.
type IPCConfig struct {
	Enabled bool     `yaml:"enabled"`
	Path    string   `yaml:"path" validate:"required_if=Enabled true"`
	Modules []string `yaml:"modules" validate:"dive,required"`
}

// AuthConfig configures the authenticated Engine API server.
type AuthConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
	// JWTSecretPath is the hex-encoded 32 byte secret shared with the consensus client.
	JWTSecretPath string `yaml:"jwt_secret_path"`
	// EnableWS additionally serves websocket connections on the auth port.
	EnableWS bool `yaml:"enable_ws"`
}

// EthConfig configures the eth namespace handler.
type EthConfig struct {
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig bounds the eth state cache.
type CacheConfig struct {
	MaxBlocks   int `yaml:"max_blocks" validate:"gt=0"`
	MaxReceipts int `yaml:"max_receipts" validate:"gt=0"`
}

// ModuleConfig selects the namespaces enabled on each transport.
// A nil selection disables the transport.
type ModuleConfig struct {
	HTTP []string
	WS   []string
	IPC  []string
}

// AuthServerConfig is the bind configuration of the auth server.
type AuthServerConfig struct {
	Addr     string
	Secret   [32]byte
	EnableWS bool
}

// RPCServerConfig is the bind configuration of the general transports.
type RPCServerConfig struct {
	HTTPAddr    string
	CorsDomains []string
	WSAddr      string
	WSOrigins   []string
	IPCPath     string
}

// DefaultNodeConfig returns a configuration serving eth, net and web3 over http on the
// default ports with the Engine API on the default auth port.
func DefaultNodeConfig() NodeConfig {
	chain := *params.AllDevChainProtocolChanges
	chain.ChainID = big.NewInt(DevChainID)
	// the Engine API is served up to V3, so forks past cancun stay inactive
	chain.PragueTime = nil
	chain.OsakaTime = nil
	chain.VerkleTime = nil
	return NodeConfig{
		Chain: &chain,
		RPC: RPCConfig{
			HTTP: HTTPConfig{
				Enabled: true,
				Host:    "127.0.0.1",
				Port:    DefaultHTTPPort,
				Modules: []string{NamespaceEth, NamespaceNet, NamespaceWeb3},
			},
			WS: WSConfig{
				Host:    "127.0.0.1",
				Port:    DefaultWSPort,
				Modules: []string{NamespaceEth, NamespaceNet, NamespaceWeb3},
			},
			Auth: AuthConfig{
				Host: "127.0.0.1",
				Port: DefaultAuthPort,
			},
			Eth: EthConfig{
				Cache: CacheConfig{
					MaxBlocks:   DefaultCacheMaxBlocks,
					MaxReceipts: DefaultCacheMaxReceipts,
				},
			},
		},
	}
}

// Validate checks the struct tags of the configuration.
func (c NodeConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ModuleConfig returns the per-transport namespace selection of enabled transports.
func (c NodeConfig) ModuleConfig() ModuleConfig {
	var mc ModuleConfig
	if c.RPC.HTTP.Enabled {
		mc.HTTP = append([]string{}, c.RPC.HTTP.Modules...)
	}
	if c.RPC.WS.Enabled {
		mc.WS = append([]string{}, c.RPC.WS.Modules...)
	}
	if c.RPC.IPC.Enabled {
		mc.IPC = append([]string{}, c.RPC.IPC.Modules...)
	}
	return mc
}

// RPCServerConfig returns the bind configuration of the enabled general transports.
func (c NodeConfig) RPCServerConfig() RPCServerConfig {
	var sc RPCServerConfig
	if c.RPC.HTTP.Enabled {
		sc.HTTPAddr = net.JoinHostPort(c.RPC.HTTP.Host, strconv.Itoa(c.RPC.HTTP.Port))
		sc.CorsDomains = c.RPC.HTTP.CorsDomains
	}
	if c.RPC.WS.Enabled {
		sc.WSAddr = net.JoinHostPort(c.RPC.WS.Host, strconv.Itoa(c.RPC.WS.Port))
		sc.WSOrigins = c.RPC.WS.Origins
	}
	if c.RPC.IPC.Enabled {
		sc.IPCPath = c.RPC.IPC.Path
	}
	return sc
}

// AuthServerConfig returns the bind configuration of the auth server for the given secret.
func (c NodeConfig) AuthServerConfig(secret [32]byte) (AuthServerConfig, error) {
	if secret == ([32]byte{}) {
		return AuthServerConfig{}, fmt.Errorf("auth server requires a non-zero jwt secret")
	}
	if c.RPC.Auth.Host == "" {
		return AuthServerConfig{}, fmt.Errorf("auth server host is required")
	}
	return AuthServerConfig{
		Addr:     net.JoinHostPort(c.RPC.Auth.Host, strconv.Itoa(c.RPC.Auth.Port)),
		Secret:   secret,
		EnableWS: c.RPC.Auth.EnableWS,
	}, nil
}

// LoadConfig reads a YAML configuration file on top of DefaultNodeConfig.
func LoadConfig(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyChainID()

	return cfg, nil
}

// ApplyChainID copies a non-zero ChainID onto the chain configuration.
func (c *NodeConfig) ApplyChainID() {
	if c.ChainID == 0 {
		return
	}
	chain := params.ChainConfig{}
	if c.Chain != nil {
		chain = *c.Chain
	}
	chain.ChainID = new(big.Int).SetUint64(c.ChainID)
	c.Chain = &chain
}
