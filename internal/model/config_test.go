package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
)

func TestDefaultNodeConfig(t *testing.T) {
	cfg := model.DefaultNodeConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint64(model.DevChainID), cfg.Chain.ChainID.Uint64())
	require.Nil(t, cfg.Chain.PragueTime)

	mc := cfg.ModuleConfig()
	require.Equal(t, []string{model.NamespaceEth, model.NamespaceNet, model.NamespaceWeb3}, mc.HTTP)
	require.Nil(t, mc.WS, "disabled transports have no selection")
	require.Nil(t, mc.IPC)

	sc := cfg.RPCServerConfig()
	require.Equal(t, "127.0.0.1:8545", sc.HTTPAddr)
	require.Empty(t, sc.WSAddr)
	require.Empty(t, sc.IPCPath)
}

func TestNodeConfig_ModuleConfigCopiesSelection(t *testing.T) {
	cfg := model.DefaultNodeConfig()
	mc := cfg.ModuleConfig()
	mc.HTTP[0] = "changed"
	require.Equal(t, model.NamespaceEth, cfg.RPC.HTTP.Modules[0])
}

func TestNodeConfig_AuthServerConfig(t *testing.T) {
	cfg := model.DefaultNodeConfig()

	_, err := cfg.AuthServerConfig([32]byte{})
	require.ErrorContains(t, err, "non-zero jwt secret")

	secret := unittest.SecretFixture(t)
	cfg.RPC.Auth.EnableWS = true
	ac, err := cfg.AuthServerConfig(secret)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8551", ac.Addr)
	require.Equal(t, secret, ac.Secret)
	require.True(t, ac.EnableWS)
}

func TestNodeConfig_ValidateRejectsBadValues(t *testing.T) {
	cfg := model.DefaultNodeConfig()
	cfg.RPC.Eth.Cache.MaxReceipts = 0
	require.ErrorContains(t, cfg.Validate(), "invalid config")

	cfg = model.DefaultNodeConfig()
	cfg.RPC.HTTP.Port = 70000
	require.Error(t, cfg.Validate())

	cfg = model.DefaultNodeConfig()
	cfg.RPC.IPC.Enabled = true
	require.Error(t, cfg.Validate(), "enabled ipc requires a path")
}

func TestLoadConfig(t *testing.T) {
	dir := unittest.NewTempDir(t)
	path := filepath.Join(dir.Path(), "config.yaml")
	content := `
chain_id: 42
dev:
  enabled: true
  block_period_ms: 250
rpc:
  http:
    port: 9545
    modules: [eth, txpool]
  ws:
    enabled: true
    modules: [eth]
  auth:
    enable_ws: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint64(42), cfg.Chain.ChainID.Uint64())
	require.True(t, cfg.Dev.Enabled)
	require.Equal(t, 250, cfg.Dev.BlockPeriodMs)
	require.Equal(t, 9545, cfg.RPC.HTTP.Port)
	require.Equal(t, "127.0.0.1", cfg.RPC.HTTP.Host, "unset fields keep their defaults")
	require.Equal(t, []string{model.NamespaceEth, model.NamespaceTxPool}, cfg.RPC.HTTP.Modules)
	require.Equal(t, []string{model.NamespaceEth}, cfg.ModuleConfig().WS)
	require.True(t, cfg.RPC.Auth.EnableWS)
	require.Equal(t, model.DefaultCacheMaxBlocks, cfg.RPC.Eth.Cache.MaxBlocks)

	defaults := model.DefaultNodeConfig()
	require.Equal(t, uint64(model.DevChainID), defaults.Chain.ChainID.Uint64(), "loading must not alter the default chain")
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := unittest.NewTempDir(t)

	_, err := model.LoadConfig(filepath.Join(dir.Path(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")

	path := filepath.Join(dir.Path(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: ["), 0600))
	_, err = model.LoadConfig(path)
	require.ErrorContains(t, err, "decode config")
}
