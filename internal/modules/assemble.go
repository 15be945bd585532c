package modules

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
)

// Assemble builds the transport modules, the auth module and the registry of one launch.
//
// Enabled transports serve exactly the configured namespaces. The auth module serves the
// engine handler and the eth handler. Nothing is returned unless every transport resolves.
func Assemble(
	node capability.Node,
	cfg model.ModuleConfig,
	clientVersion string,
	engine api.EngineAPIServer,
	eth api.EthAPIServer,
) (*TransportModules, *AuthModule, *Registry, error) {
	if engine == nil || eth == nil {
		return nil, nil, nil, fmt.Errorf("engine and eth handlers are required")
	}
	registry := NewRegistry(node, clientVersion, engine, eth)

	resolve := func(transport string, namespaces []string) (*Module, error) {
		if namespaces == nil {
			return nil, nil
		}
		for _, namespace := range namespaces {
			if namespace == model.NamespaceEngine {
				return nil, fmt.Errorf("%s transport: namespace %s is only served by the auth server", transport, namespace)
			}
		}
		m, err := registry.Resolve(namespaces)
		if err != nil {
			return nil, fmt.Errorf("%s transport: %w", transport, err)
		}
		return m, nil
	}

	var (
		transports TransportModules
		err        error
	)
	if transports.HTTP, err = resolve("http", cfg.HTTP); err != nil {
		return nil, nil, nil, err
	}
	if transports.WS, err = resolve("ws", cfg.WS); err != nil {
		return nil, nil, nil, err
	}
	if transports.IPC, err = resolve("ipc", cfg.IPC); err != nil {
		return nil, nil, nil, err
	}

	engineAPI, err := registry.Module(model.NamespaceEngine)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("auth module: %w", err)
	}
	ethAPI, err := registry.Module(model.NamespaceEth)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("auth module: %w", err)
	}
	authModule, err := NewModule(engineAPI, rpc.API{Namespace: ethAPI.Namespace, Service: ethAPI.Service, Authenticated: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("auth module: %w", err)
	}

	return &transports, &AuthModule{Module: authModule}, registry, nil
}
