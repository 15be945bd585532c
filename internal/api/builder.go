// Package api builds the handlers served by the RPC add-ons.
//
// Each handler is produced by a pluggable builder so that node implementations can swap the
// eth handler, the engine validator or the whole Engine API without touching the launch
// sequence. The Basic builders are the defaults.
package api

import (
	"context"

	"github.com/thep2p/go-eth-rpcnode/internal/cache"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
)

// EthAPIContext is the narrowed view handed to an EthAPIBuilder.
type EthAPIContext struct {
	// Node gives access to the node subsystems.
	Node capability.Node
	// Config is the eth namespace configuration.
	Config model.EthConfig
	// Cache is fed with canonical chain updates for the lifetime of the launch.
	Cache *cache.EthStateCache
}

// EthAPIBuilder builds the eth namespace handler.
type EthAPIBuilder interface {
	BuildEthAPI(ctx context.Context, ectx EthAPIContext) (EthAPIServer, error)
}

// EngineValidatorBuilder builds the validator used by the Engine API.
type EngineValidatorBuilder interface {
	BuildValidator(ctx context.Context, actx *capability.AddOnsContext) (EngineValidator, error)
}

// EngineAPIBuilder builds the engine namespace handler.
type EngineAPIBuilder interface {
	BuildEngineAPI(ctx context.Context, actx *capability.AddOnsContext) (EngineAPIServer, error)
}

// EthAPIBuilderFunc adapts a function to EthAPIBuilder.
type EthAPIBuilderFunc func(ctx context.Context, ectx EthAPIContext) (EthAPIServer, error)

func (f EthAPIBuilderFunc) BuildEthAPI(ctx context.Context, ectx EthAPIContext) (EthAPIServer, error) {
	return f(ctx, ectx)
}

// EngineValidatorBuilderFunc adapts a function to EngineValidatorBuilder.
type EngineValidatorBuilderFunc func(ctx context.Context, actx *capability.AddOnsContext) (EngineValidator, error)

func (f EngineValidatorBuilderFunc) BuildValidator(ctx context.Context, actx *capability.AddOnsContext) (EngineValidator, error) {
	return f(ctx, actx)
}

// EngineAPIBuilderFunc adapts a function to EngineAPIBuilder.
type EngineAPIBuilderFunc func(ctx context.Context, actx *capability.AddOnsContext) (EngineAPIServer, error)

func (f EngineAPIBuilderFunc) BuildEngineAPI(ctx context.Context, actx *capability.AddOnsContext) (EngineAPIServer, error) {
	return f(ctx, actx)
}
