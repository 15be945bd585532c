package modules_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/cache"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest"
	"github.com/thep2p/go-eth-rpcnode/internal/unittest/mocks"
)

type echoService struct{}

func (echoService) Echo(s string) string { return s }

func echoAPI(namespace string) rpc.API {
	return rpc.API{Namespace: namespace, Service: echoService{}}
}

func newHandlers(t *testing.T) (*unittest.NodeStubs, *mocks.MockEngineAPIServer, *api.EthServer) {
	stubs := unittest.NodeFixture(t)
	c, err := cache.NewEthStateCache(stubs.Config.RPC.Eth.Cache)
	require.NoError(t, err)
	return stubs, mocks.NewMockEngineAPIServer(t), api.NewEthServer(stubs.Provider, stubs.Pool, c)
}

// TestModule_MergeRejectsDuplicates verifies that a failing merge leaves the module unchanged.
func TestModule_MergeRejectsDuplicates(t *testing.T) {
	m, err := modules.NewModule(echoAPI("a"))
	require.NoError(t, err)

	require.Error(t, m.Merge(echoAPI("b"), echoAPI("a")))
	require.Equal(t, []string{"a"}, m.Namespaces())

	require.Error(t, m.Merge(echoAPI("c"), echoAPI("c")))
	require.NoError(t, m.Merge(echoAPI("c")))
	require.Equal(t, []string{"a", "c"}, m.Namespaces())

	m.Replace(echoAPI("a"))
	require.Equal(t, 2, m.Len())
	require.True(t, m.Remove("a"))
	require.False(t, m.Remove("a"))
	require.False(t, m.Has("a"))
}

// TestTransportModules_CloneIsIndependent verifies that changes to the original never reach a clone.
func TestTransportModules_CloneIsIndependent(t *testing.T) {
	http, err := modules.NewModule(echoAPI("a"))
	require.NoError(t, err)
	original := &modules.TransportModules{HTTP: http}

	clone := original.Clone()
	require.NoError(t, original.MergeConfigured(echoAPI("b")))

	require.Equal(t, []string{"a", "b"}, original.HTTP.Namespaces())
	require.Equal(t, []string{"a"}, clone.HTTP.Namespaces())
	require.Nil(t, clone.WS)
	require.Nil(t, clone.IPC)

	auth := &modules.AuthModule{Module: http}
	authClone := auth.Clone()
	auth.Replace(echoAPI("z"))
	require.False(t, authClone.Has("z"))
}

func TestTransportModules_MergeConfiguredIsAtomic(t *testing.T) {
	http, err := modules.NewModule(echoAPI("a"))
	require.NoError(t, err)
	ws, err := modules.NewModule(echoAPI("b"))
	require.NoError(t, err)
	mods := &modules.TransportModules{HTTP: http, WS: ws}

	require.Error(t, mods.MergeConfigured(echoAPI("b")))
	require.Equal(t, []string{"a"}, mods.HTTP.Namespaces(), "http must not change when ws rejects the merge")

	mods.ReplaceConfigured(echoAPI("c"))
	require.True(t, mods.HTTP.Has("c"))
	require.True(t, mods.WS.Has("c"))
}

// TestAssemble_ConfiguredTransports verifies that every enabled transport serves exactly its
// configured namespaces, disabled transports stay nil and the auth module holds engine and eth.
func TestAssemble_ConfiguredTransports(t *testing.T) {
	stubs, engineAPI, ethServer := newHandlers(t)

	cfg := model.ModuleConfig{
		HTTP: []string{model.NamespaceEth, model.NamespaceNet, model.NamespaceWeb3, model.NamespaceEth},
		IPC:  []string{model.NamespaceTxPool},
	}
	transports, auth, registry, err := modules.Assemble(stubs.Components, cfg, "client/v1", engineAPI, ethServer)
	require.NoError(t, err)

	require.Equal(t, []string{"eth", "net", "web3"}, transports.HTTP.Namespaces())
	require.Nil(t, transports.WS)
	require.Equal(t, []string{"txpool"}, transports.IPC.Namespaces())
	require.Equal(t, []string{"engine", "eth"}, auth.Namespaces())
	for _, a := range auth.APIs() {
		require.True(t, a.Authenticated, "auth namespace %s must be authenticated", a.Namespace)
	}

	require.Same(t, ethServer, registry.EthAPI())
	require.Same(t, engineAPI, registry.EngineAPI())

	// the eth handler is shared by the http transport and the auth server
	httpEth := transports.HTTP.APIs()[0]
	require.Equal(t, model.NamespaceEth, httpEth.Namespace)
	require.Same(t, ethServer.API(), httpEth.Service)
	require.Same(t, ethServer.API(), auth.APIs()[1].Service)
}

func TestAssemble_UnknownNamespace(t *testing.T) {
	stubs, engineAPI, ethServer := newHandlers(t)

	_, _, _, err := modules.Assemble(stubs.Components, model.ModuleConfig{WS: []string{"debug"}}, "v", engineAPI, ethServer)
	require.ErrorIs(t, err, modules.ErrUnknownNamespace)
	require.ErrorContains(t, err, "ws transport")
}

func TestAssemble_EngineOnlyOnAuth(t *testing.T) {
	stubs, engineAPI, ethServer := newHandlers(t)

	_, _, _, err := modules.Assemble(stubs.Components, model.ModuleConfig{HTTP: []string{model.NamespaceEngine}}, "v", engineAPI, ethServer)
	require.ErrorContains(t, err, "only served by the auth server")
}

// TestRegistry_BuiltinsConstructedOnce verifies that every resolution of a built-in namespace
// returns the same handler.
func TestRegistry_BuiltinsConstructedOnce(t *testing.T) {
	stubs, engineAPI, ethServer := newHandlers(t)
	registry := modules.NewRegistry(stubs.Components, "v", engineAPI, ethServer)

	_, err := registry.Get(model.NamespaceNet)
	require.ErrorContains(t, err, "not found")

	first, err := registry.Module(model.NamespaceNet)
	require.NoError(t, err)
	second, err := registry.Module(model.NamespaceNet)
	require.NoError(t, err)
	require.Same(t, first.Service, second.Service)

	got, err := registry.Get(model.NamespaceNet)
	require.NoError(t, err)
	require.Same(t, first.Service, got.Service)
}

func TestRegistry_Register(t *testing.T) {
	stubs, engineAPI, ethServer := newHandlers(t)
	registry := modules.NewRegistry(stubs.Components, "v", engineAPI, ethServer)

	require.NoError(t, registry.Register(echoAPI("custom")))
	err := registry.Register(echoAPI("custom"))
	require.ErrorContains(t, err, "already registered")

	_, err = registry.Module(model.NamespaceWeb3)
	require.NoError(t, err)
	require.ErrorContains(t, registry.Register(echoAPI(model.NamespaceWeb3)), "already registered")

	require.Error(t, registry.Register(rpc.API{Namespace: "empty"}))

	require.Equal(t, []string{"custom", "engine", "eth", "net", "txpool", "web3"}, registry.Available())

	m, err := registry.Resolve([]string{"custom"})
	require.NoError(t, err)
	require.True(t, m.Has("custom"))
}

func TestRegistry_MissingSubsystem(t *testing.T) {
	_, engineAPI, ethServer := newHandlers(t)
	stubs := unittest.NodeFixture(t)
	node := noNetwork{stubs.Components}

	registry := modules.NewRegistry(node, "v", engineAPI, ethServer)
	_, err := registry.Module(model.NamespaceNet)
	require.Error(t, err)
	require.False(t, errors.Is(err, modules.ErrUnknownNamespace))
}

// noNetwork hides the network of the embedded node.
type noNetwork struct {
	capability.Node
}

func (noNetwork) Network() capability.Network { return nil }
