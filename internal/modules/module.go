// Package modules assembles the method sets served by each RPC transport.
//
// A Module is a set of namespaced handlers. Modules stay mutable until the servers start;
// the servers are always handed a Clone, so changes made after that point never reach a
// running server.
package modules

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rpc"
)

// Module is a set of handlers keyed by namespace.
type Module struct {
	apis map[string]rpc.API
}

// NewModule returns a module serving apis.
//
// Returns an error if two apis share a namespace.
func NewModule(apis ...rpc.API) (*Module, error) {
	m := &Module{apis: make(map[string]rpc.API, len(apis))}
	if err := m.Merge(apis...); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge adds apis to the module.
//
// Returns an error, leaving the module unchanged, if any namespace is already served.
func (m *Module) Merge(apis ...rpc.API) error {
	seen := make(map[string]struct{}, len(apis))
	for _, api := range apis {
		if api.Namespace == "" {
			return fmt.Errorf("api without namespace")
		}
		if _, exists := m.apis[api.Namespace]; exists {
			return fmt.Errorf("namespace %s already served", api.Namespace)
		}
		if _, dup := seen[api.Namespace]; dup {
			return fmt.Errorf("namespace %s merged twice", api.Namespace)
		}
		seen[api.Namespace] = struct{}{}
	}
	for _, api := range apis {
		m.apis[api.Namespace] = api
	}
	return nil
}

// Replace adds api, replacing any handler already serving its namespace.
func (m *Module) Replace(api rpc.API) {
	m.apis[api.Namespace] = api
}

// Remove drops the handler of namespace and reports whether one was present.
func (m *Module) Remove(namespace string) bool {
	if _, ok := m.apis[namespace]; !ok {
		return false
	}
	delete(m.apis, namespace)
	return true
}

// Has reports whether namespace is served.
func (m *Module) Has(namespace string) bool {
	_, ok := m.apis[namespace]
	return ok
}

// Len returns the number of served namespaces.
func (m *Module) Len() int {
	return len(m.apis)
}

// Namespaces returns the served namespaces sorted alphabetically.
func (m *Module) Namespaces() []string {
	names := make([]string, 0, len(m.apis))
	for name := range m.apis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APIs returns the handlers ordered by namespace.
func (m *Module) APIs() []rpc.API {
	apis := make([]rpc.API, 0, len(m.apis))
	for _, name := range m.Namespaces() {
		apis = append(apis, m.apis[name])
	}
	return apis
}

// Clone returns an independent copy of the module. Handlers are shared, the set is not.
// Clone of a nil module is nil.
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	c := &Module{apis: make(map[string]rpc.API, len(m.apis))}
	for name, api := range m.apis {
		c.apis[name] = api
	}
	return c
}

// TransportModules holds the module of each general transport. A nil module means the
// transport is disabled.
type TransportModules struct {
	HTTP *Module
	WS   *Module
	IPC  *Module
}

// Enabled returns the modules of enabled transports.
func (t *TransportModules) Enabled() []*Module {
	var enabled []*Module
	for _, m := range []*Module{t.HTTP, t.WS, t.IPC} {
		if m != nil {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// MergeConfigured merges apis into every enabled transport.
//
// Returns an error, leaving every module unchanged, if any enabled transport already
// serves one of the namespaces.
func (t *TransportModules) MergeConfigured(apis ...rpc.API) error {
	for _, m := range t.Enabled() {
		probe := m.Clone()
		if err := probe.Merge(apis...); err != nil {
			return err
		}
	}
	for _, m := range t.Enabled() {
		if err := m.Merge(apis...); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceConfigured replaces api on every enabled transport.
func (t *TransportModules) ReplaceConfigured(api rpc.API) {
	for _, m := range t.Enabled() {
		m.Replace(api)
	}
}

// Clone returns a deep copy of the transport modules.
func (t *TransportModules) Clone() *TransportModules {
	if t == nil {
		return nil
	}
	return &TransportModules{
		HTTP: t.HTTP.Clone(),
		WS:   t.WS.Clone(),
		IPC:  t.IPC.Clone(),
	}
}

// AuthModule is the module of the authenticated server.
type AuthModule struct {
	*Module
}

// Clone returns an independent copy of the auth module.
func (a *AuthModule) Clone() *AuthModule {
	if a == nil {
		return nil
	}
	return &AuthModule{Module: a.Module.Clone()}
}
