package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
)

// EngineCapabilities are the engine_* methods advertised by engine_exchangeCapabilities.
var EngineCapabilities = []string{
	"engine_exchangeCapabilities",
	"engine_getClientVersionV1",
	"engine_forkchoiceUpdatedV1",
	"engine_forkchoiceUpdatedV2",
	"engine_forkchoiceUpdatedV3",
	"engine_newPayloadV1",
	"engine_newPayloadV2",
	"engine_newPayloadV3",
	"engine_getPayloadV1",
	"engine_getPayloadV2",
	"engine_getPayloadV3",
}

// EngineEventsTaskName names the task delivering engine events to subscribers.
const EngineEventsTaskName = "engine event dispatch"

// engineEventQueueSize bounds the events waiting for delivery. A full queue blocks the
// request that produced the next event.
const engineEventQueueSize = 256

// EngineAPIServer is implemented by engine namespace handlers.
type EngineAPIServer interface {
	ExchangeCapabilities(requested []string) []string
}

// EngineAPI serves the engine namespace over the beacon engine handle.
type EngineAPI struct {
	logger    zerolog.Logger
	validator EngineValidator
	beacon    capability.BeaconEngineHandle
	payloads  *PayloadStore
	spawner   tasks.Spawner
	events    *event.Feed
	client    engine.ClientVersionV1

	queue    chan capability.EngineEvent
	dispatch sync.Once
}

var _ EngineAPIServer = (*EngineAPI)(nil)

// EngineAPIConfig groups the dependencies of an EngineAPI.
type EngineAPIConfig struct {
	Validator EngineValidator
	Beacon    capability.BeaconEngineHandle
	Payloads  *PayloadStore
	Spawner   tasks.Spawner
	// Events receives an EngineEvent for every processed payload and fork choice update.
	Events *event.Feed
	Client engine.ClientVersionV1
}

func NewEngineAPI(logger zerolog.Logger, cfg EngineAPIConfig) *EngineAPI {
	return &EngineAPI{
		logger:    logger.With().Str("component", "engine-api").Logger(),
		validator: cfg.Validator,
		beacon:    cfg.Beacon,
		payloads:  cfg.Payloads,
		spawner:   cfg.Spawner,
		events:    cfg.Events,
		client:    cfg.Client,
		queue:     make(chan capability.EngineEvent, engineEventQueueSize),
	}
}

// ExchangeCapabilities returns the methods this handler supports regardless of the
// methods requested by the consensus client.
func (api *EngineAPI) ExchangeCapabilities(_ []string) []string {
	return append([]string{}, EngineCapabilities...)
}

// GetClientVersionV1 returns the version of this client.
func (api *EngineAPI) GetClientVersionV1(caller engine.ClientVersionV1) []engine.ClientVersionV1 {
	api.logger.Debug().
		Str("caller_name", caller.Name).
		Str("caller_version", caller.Version).
		Msg("client version requested")
	return []engine.ClientVersionV1{api.client}
}

func (api *EngineAPI) NewPayloadV1(ctx context.Context, payload engine.ExecutableData) (engine.PayloadStatusV1, error) {
	return api.newPayload(ctx, PayloadV1, payload, nil, nil)
}

func (api *EngineAPI) NewPayloadV2(ctx context.Context, payload engine.ExecutableData) (engine.PayloadStatusV1, error) {
	return api.newPayload(ctx, PayloadV2, payload, nil, nil)
}

func (api *EngineAPI) NewPayloadV3(ctx context.Context, payload engine.ExecutableData, versionedHashes []common.Hash, beaconRoot *common.Hash) (engine.PayloadStatusV1, error) {
	if versionedHashes == nil {
		return engine.PayloadStatusV1{}, engine.InvalidParams.With(fmt.Errorf("nil versioned hashes"))
	}
	if beaconRoot == nil {
		return engine.PayloadStatusV1{}, engine.InvalidParams.With(fmt.Errorf("nil beacon root"))
	}
	return api.newPayload(ctx, PayloadV3, payload, versionedHashes, beaconRoot)
}

func (api *EngineAPI) ForkchoiceUpdatedV1(ctx context.Context, state engine.ForkchoiceStateV1, attrs *engine.PayloadAttributes) (engine.ForkChoiceResponse, error) {
	return api.forkchoiceUpdated(ctx, PayloadV1, state, attrs)
}

func (api *EngineAPI) ForkchoiceUpdatedV2(ctx context.Context, state engine.ForkchoiceStateV1, attrs *engine.PayloadAttributes) (engine.ForkChoiceResponse, error) {
	return api.forkchoiceUpdated(ctx, PayloadV2, state, attrs)
}

func (api *EngineAPI) ForkchoiceUpdatedV3(ctx context.Context, state engine.ForkchoiceStateV1, attrs *engine.PayloadAttributes) (engine.ForkChoiceResponse, error) {
	return api.forkchoiceUpdated(ctx, PayloadV3, state, attrs)
}

func (api *EngineAPI) GetPayloadV1(ctx context.Context, id engine.PayloadID) (*engine.ExecutableData, error) {
	envelope, err := api.payloads.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return envelope.ExecutionPayload, nil
}

func (api *EngineAPI) GetPayloadV2(ctx context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	return api.payloads.Resolve(ctx, id)
}

func (api *EngineAPI) GetPayloadV3(ctx context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	return api.payloads.Resolve(ctx, id)
}

func (api *EngineAPI) newPayload(ctx context.Context, version PayloadVersion, payload engine.ExecutableData, hashes []common.Hash, beaconRoot *common.Hash) (engine.PayloadStatusV1, error) {
	if err := api.validator.ValidatePayload(version, payload); err != nil {
		api.logger.Warn().Err(err).Str("hash", payload.BlockHash.Hex()).Msg("invalid payload")
		msg := err.Error()
		return engine.PayloadStatusV1{Status: engine.INVALID, ValidationError: &msg}, nil
	}

	status, err := api.beacon.NewPayload(ctx, payload, hashes, beaconRoot)
	if err != nil {
		return engine.PayloadStatusV1{}, fmt.Errorf("process payload: %w", err)
	}

	api.publish(ctx, capability.EngineEvent{
		Kind:   capability.EngineEventNewPayload,
		Hash:   payload.BlockHash,
		Status: status.Status,
	})
	return status, nil
}

func (api *EngineAPI) forkchoiceUpdated(ctx context.Context, version PayloadVersion, state engine.ForkchoiceStateV1, attrs *engine.PayloadAttributes) (engine.ForkChoiceResponse, error) {
	if err := api.validator.ValidatePayloadAttributes(version, attrs); err != nil {
		return engine.STATUS_INVALID, engine.InvalidPayloadAttributes.With(err)
	}

	resp, err := api.beacon.ForkchoiceUpdated(ctx, state, attrs)
	if err != nil {
		return engine.ForkChoiceResponse{}, fmt.Errorf("process fork choice update: %w", err)
	}

	api.publish(ctx, capability.EngineEvent{
		Kind:   capability.EngineEventForkchoiceUpdated,
		Hash:   state.HeadBlockHash,
		Status: resp.PayloadStatus.Status,
	})
	return resp, nil
}

// publish queues ev behind every event published before it. The dispatcher is started on
// the first event so handlers that never publish spawn nothing.
func (api *EngineAPI) publish(ctx context.Context, ev capability.EngineEvent) {
	api.dispatch.Do(func() {
		api.spawner.Spawn(EngineEventsTaskName, api.dispatchEvents)
	})

	select {
	case api.queue <- ev:
	case <-ctx.Done():
		api.logger.Warn().
			Err(ctx.Err()).
			Str("hash", ev.Hash.Hex()).
			Msg("engine event dropped")
	}
}

// dispatchEvents sends queued events to the feed one at a time until ctx is cancelled.
func (api *EngineAPI) dispatchEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-api.queue:
			api.events.Send(ev)
		}
	}
}

// BasicEngineAPIBuilder builds the default EngineAPI.
type BasicEngineAPIBuilder struct {
	// ValidatorBuilder builds the validator the handler checks requests with.
	ValidatorBuilder EngineValidatorBuilder
	Logger           zerolog.Logger
}

var _ EngineAPIBuilder = BasicEngineAPIBuilder{}

func NewBasicEngineAPIBuilder(logger zerolog.Logger, validator EngineValidatorBuilder) BasicEngineAPIBuilder {
	return BasicEngineAPIBuilder{ValidatorBuilder: validator, Logger: logger}
}

// BuildEngineAPI implements EngineAPIBuilder.
func (b BasicEngineAPIBuilder) BuildEngineAPI(ctx context.Context, actx *capability.AddOnsContext) (EngineAPIServer, error) {
	if err := actx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid add-ons context: %w", err)
	}
	if b.ValidatorBuilder == nil {
		return nil, fmt.Errorf("engine validator builder is required")
	}
	if actx.BeaconEngine == nil {
		return nil, fmt.Errorf("beacon engine handle is required")
	}
	if actx.Node.PayloadBuilderHandle() == nil {
		return nil, fmt.Errorf("payload builder handle is required")
	}

	validator, err := b.ValidatorBuilder.BuildValidator(ctx, actx)
	if err != nil {
		return nil, fmt.Errorf("build engine validator: %w", err)
	}

	timeout := time.Duration(actx.Config.Engine.PayloadStoreTimeoutMs) * time.Millisecond
	return NewEngineAPI(b.Logger, EngineAPIConfig{
		Validator: validator,
		Beacon:    actx.BeaconEngine,
		Payloads:  NewPayloadStore(actx.Node.PayloadBuilderHandle(), timeout),
		Spawner:   actx.Node.TaskExecutor(),
		Events:    actx.EngineEvents,
		Client: engine.ClientVersionV1{
			Code:    model.ClientCode,
			Name:    model.ClientName,
			Version: model.ClientVersion,
			Commit:  model.ShortCommit(),
		},
	}), nil
}
