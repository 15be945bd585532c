package api

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

// PayloadStore resolves built payloads through the payload builder handle.
type PayloadStore struct {
	handle  capability.PayloadBuilderHandle
	timeout time.Duration
}

// NewPayloadStore creates a store over handle. A positive timeout bounds every resolution
// in addition to the caller context.
func NewPayloadStore(handle capability.PayloadBuilderHandle, timeout time.Duration) *PayloadStore {
	return &PayloadStore{handle: handle, timeout: timeout}
}

// Resolve returns the payload built for id. An id the builder does not know is reported as
// engine.UnknownPayload.
func (s *PayloadStore) Resolve(ctx context.Context, id engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	envelope, err := s.handle.ResolvePayload(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve payload %s: %w", id, err)
	}
	if envelope == nil || envelope.ExecutionPayload == nil {
		return nil, engine.UnknownPayload
	}
	return envelope, nil
}
