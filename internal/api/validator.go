package api

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

// maxExtraDataSize is the protocol bound on header extra data.
const maxExtraDataSize = 32

// PayloadVersion is the Engine API method version a payload or attribute set arrived on.
type PayloadVersion int

const (
	PayloadV1 PayloadVersion = iota + 1
	PayloadV2
	PayloadV3
)

// EngineValidator checks payloads and payload attributes before they reach the beacon engine.
type EngineValidator interface {
	ValidatePayload(version PayloadVersion, payload engine.ExecutableData) error
	ValidatePayloadAttributes(version PayloadVersion, attrs *engine.PayloadAttributes) error
}

// BasicEngineValidator performs structural checks against the fork schedule of a chain.
type BasicEngineValidator struct {
	chain *params.ChainConfig
}

var _ EngineValidator = (*BasicEngineValidator)(nil)

func NewBasicEngineValidator(chain *params.ChainConfig) *BasicEngineValidator {
	return &BasicEngineValidator{chain: chain}
}

// ValidatePayload implements EngineValidator.
func (v *BasicEngineValidator) ValidatePayload(version PayloadVersion, payload engine.ExecutableData) error {
	if payload.BlockHash == (common.Hash{}) {
		return fmt.Errorf("payload block hash is empty")
	}
	if len(payload.ExtraData) > maxExtraDataSize {
		return fmt.Errorf("payload extra data too long: %d > %d", len(payload.ExtraData), maxExtraDataSize)
	}
	if payload.GasUsed > payload.GasLimit {
		return fmt.Errorf("payload gas used %d exceeds gas limit %d", payload.GasUsed, payload.GasLimit)
	}
	if payload.BaseFeePerGas == nil {
		return fmt.Errorf("payload base fee is missing")
	}

	number := new(big.Int).SetUint64(payload.Number)
	if err := v.checkWithdrawals(version, number, payload.Timestamp, payload.Withdrawals != nil); err != nil {
		return err
	}

	cancun := v.chain.IsCancun(number, payload.Timestamp)
	blobFields := payload.BlobGasUsed != nil && payload.ExcessBlobGas != nil
	switch {
	case version >= PayloadV3 && !cancun:
		return fmt.Errorf("v%d payload before cancun", version)
	case version < PayloadV3 && cancun:
		return fmt.Errorf("v%d payload after cancun, use v3", version)
	case version >= PayloadV3 && !blobFields:
		return fmt.Errorf("v%d payload is missing blob gas fields", version)
	case version < PayloadV3 && (payload.BlobGasUsed != nil || payload.ExcessBlobGas != nil):
		return fmt.Errorf("v%d payload must not carry blob gas fields", version)
	}
	return nil
}

// ValidatePayloadAttributes implements EngineValidator.
func (v *BasicEngineValidator) ValidatePayloadAttributes(version PayloadVersion, attrs *engine.PayloadAttributes) error {
	if attrs == nil {
		return nil
	}
	if attrs.Timestamp == 0 {
		return fmt.Errorf("payload attributes timestamp is zero")
	}

	// the number is irrelevant for time based forks
	head := big.NewInt(0)
	if err := v.checkWithdrawals(version, head, attrs.Timestamp, attrs.Withdrawals != nil); err != nil {
		return err
	}

	cancun := v.chain.IsCancun(head, attrs.Timestamp)
	switch {
	case version >= PayloadV3 && attrs.BeaconRoot == nil:
		return fmt.Errorf("v%d payload attributes are missing the beacon root", version)
	case version < PayloadV3 && attrs.BeaconRoot != nil:
		return fmt.Errorf("v%d payload attributes must not carry a beacon root", version)
	case version >= PayloadV3 && !cancun:
		return fmt.Errorf("v%d payload attributes before cancun", version)
	}
	return nil
}

func (v *BasicEngineValidator) checkWithdrawals(version PayloadVersion, number *big.Int, timestamp uint64, present bool) error {
	shanghai := v.chain.IsShanghai(number, timestamp)
	switch {
	case version == PayloadV1 && present:
		return fmt.Errorf("v1 must not carry withdrawals")
	case version >= PayloadV2 && shanghai && !present:
		return fmt.Errorf("withdrawals are required after shanghai")
	case version >= PayloadV2 && !shanghai && present:
		return fmt.Errorf("withdrawals are not allowed before shanghai")
	}
	return nil
}

// BasicEngineValidatorBuilder builds a BasicEngineValidator for the configured chain.
type BasicEngineValidatorBuilder struct{}

var _ EngineValidatorBuilder = BasicEngineValidatorBuilder{}

// BuildValidator implements EngineValidatorBuilder.
func (BasicEngineValidatorBuilder) BuildValidator(_ context.Context, actx *capability.AddOnsContext) (EngineValidator, error) {
	if actx == nil || actx.Config == nil || actx.Config.Chain == nil {
		return nil, fmt.Errorf("chain config is required")
	}
	return NewBasicEngineValidator(actx.Config.Chain), nil
}
