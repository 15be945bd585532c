package modules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/thep2p/go-eth-rpcnode/internal/api"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
)

// ErrUnknownNamespace is returned when a namespace is neither built in nor registered.
var ErrUnknownNamespace = errors.New("unknown namespace")

// builtins are the namespaces the registry can construct on its own.
var builtins = []string{
	model.NamespaceEngine,
	model.NamespaceEth,
	model.NamespaceNet,
	model.NamespaceTxPool,
	model.NamespaceWeb3,
}

// Registry owns the constructed handlers of one launch.
//
// Built-in namespaces are constructed on first use and at most once, so every transport
// resolving the same namespace shares one handler. The eth handler and the engine handler
// are supplied by the orchestrator and are the instances served everywhere, including on
// the auth server. Custom namespaces are added with Register.
type Registry struct {
	mu            sync.RWMutex
	node          capability.Node
	clientVersion string
	eth           api.EthAPIServer
	engine        api.EngineAPIServer
	apis          map[string]rpc.API
}

// NewRegistry creates a registry over node holding the given eth and engine handlers.
func NewRegistry(node capability.Node, clientVersion string, engine api.EngineAPIServer, eth api.EthAPIServer) *Registry {
	return &Registry{
		node:          node,
		clientVersion: clientVersion,
		eth:           eth,
		engine:        engine,
		apis:          make(map[string]rpc.API),
	}
}

// EthAPI returns the eth handler shared by every transport.
func (r *Registry) EthAPI() api.EthAPIServer {
	return r.eth
}

// EngineAPI returns the engine handler served on the auth server.
func (r *Registry) EngineAPI() api.EngineAPIServer {
	return r.engine
}

// Module returns the handler of namespace, constructing built-in namespaces on first use.
//
// Returns an error wrapping ErrUnknownNamespace if the namespace is neither built in nor
// registered.
func (r *Registry) Module(namespace string) (rpc.API, error) {
	r.mu.RLock()
	handler, ok := r.apis[namespace]
	r.mu.RUnlock()
	if ok {
		return handler, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another caller may have constructed it in between
	if handler, ok := r.apis[namespace]; ok {
		return handler, nil
	}
	handler, err := r.construct(namespace)
	if err != nil {
		return rpc.API{}, err
	}
	r.apis[namespace] = handler
	return handler, nil
}

func (r *Registry) construct(namespace string) (rpc.API, error) {
	var service interface{}
	authenticated := false

	switch namespace {
	case model.NamespaceEth:
		if r.eth != nil {
			service = r.eth.Service()
		}
	case model.NamespaceEngine:
		service = r.engine
		authenticated = true
	case model.NamespaceNet:
		if r.node.Network() == nil {
			return rpc.API{}, fmt.Errorf("namespace %s requires a network", namespace)
		}
		service = api.NewNetAPI(r.node.Network())
	case model.NamespaceWeb3:
		service = api.NewWeb3API(r.clientVersion)
	case model.NamespaceTxPool:
		if r.node.Pool() == nil {
			return rpc.API{}, fmt.Errorf("namespace %s requires a transaction pool", namespace)
		}
		service = api.NewTxPoolAPI(r.node.Pool())
	default:
		return rpc.API{}, fmt.Errorf("%w: %s", ErrUnknownNamespace, namespace)
	}

	if service == nil {
		return rpc.API{}, fmt.Errorf("namespace %s has no handler", namespace)
	}
	return rpc.API{Namespace: namespace, Service: service, Authenticated: authenticated}, nil
}

// Register adds a custom handler.
//
// Returns an error if the namespace is already registered or constructed.
func (r *Registry) Register(handler rpc.API) error {
	if handler.Namespace == "" || handler.Service == nil {
		return fmt.Errorf("handler requires a namespace and a service")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apis[handler.Namespace]; exists {
		return fmt.Errorf("namespace %s already registered", handler.Namespace)
	}
	r.apis[handler.Namespace] = handler
	return nil
}

// Get returns a constructed or registered handler without constructing anything.
//
// Returns an error if the namespace has not been constructed or registered.
func (r *Registry) Get(namespace string) (rpc.API, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.apis[namespace]
	if !exists {
		return rpc.API{}, fmt.Errorf("namespace %s not found", namespace)
	}
	return handler, nil
}

// Available returns the built-in and registered namespaces.
//
// The returned slice is sorted alphabetically for consistent output.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]struct{}, len(builtins)+len(r.apis))
	for _, name := range builtins {
		names[name] = struct{}{}
	}
	for name := range r.apis {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return sorted
}

// Resolve builds a module serving namespaces. Repeated namespaces are served once.
func (r *Registry) Resolve(namespaces []string) (*Module, error) {
	m := &Module{apis: make(map[string]rpc.API, len(namespaces))}
	for _, namespace := range namespaces {
		if m.Has(namespace) {
			continue
		}
		handler, err := r.Module(namespace)
		if err != nil {
			return nil, err
		}
		m.Replace(handler)
	}
	return m, nil
}
